// Package serialmux abstracts the serial connection to a Microstrain sensor
// behind a small interface so the session layer can be exercised without
// real hardware.
package serialmux

import (
	"io"
)

// SerialPorter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without a physical sensor.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}
