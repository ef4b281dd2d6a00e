package lord

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceUnavailable indicates the serial transport could not be
	// acquired. Not transient; callers report and exit rather than retry.
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrInvalidConfiguration indicates a caller-supplied channel/rate
	// table violates the encoding constraints.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrTimeout indicates no acknowledgment arrived within the response
	// window.
	ErrTimeout = errors.New("timed out waiting for acknowledgment")

	// ErrNack is matched by errors.Is against NackError values.
	ErrNack = errors.New("device rejected command")

	// ErrFrame indicates an outgoing packet could not be serialized or a
	// reply was structurally unusable.
	ErrFrame = errors.New("frame error")
)

// NackError carries the device-reported error code from a negative
// acknowledgment.
type NackError struct {
	Command byte
	Code    byte
}

func (e NackError) Error() string {
	return fmt.Sprintf("device rejected command 0x%02X (error code 0x%02X)", e.Command, e.Code)
}

// Is reports ErrNack so callers can classify without unpacking the code.
func (e NackError) Is(target error) bool {
	return target == ErrNack
}
