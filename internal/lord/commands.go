package lord

import (
	"encoding/binary"
	"fmt"

	"github.com/banshee-data/microstrain/internal/mip"
)

// MIP function selectors shared by the format and stream-control commands.
const (
	FunctionApply byte = 0x01
	FunctionRead  byte = 0x02
	FunctionSave  byte = 0x03
	FunctionLoad  byte = 0x04
	FunctionReset byte = 0x05
)

// Stream selectors for the continuous-stream control command.
const (
	StreamIMU  byte = 0x01
	StreamGNSS byte = 0x02
	StreamEF   byte = 0x03
)

// ChannelRate selects one data channel and the decimation divisor applied to
// the subsystem base rate. Decimation must be positive; zero is a protocol
// error, not a disable request.
type ChannelRate struct {
	Channel    byte
	Decimation uint16
}

// BuildFormatField encodes a message-format command field: the function
// selector, a count byte, then each (channel, big-endian u16 decimation)
// entry in declared order.
func BuildFormatField(command byte, function byte, entries []ChannelRate) (mip.Field, error) {
	if function < FunctionApply || function > FunctionReset {
		return mip.Field{}, fmt.Errorf("%w: unknown function code 0x%02X", ErrInvalidConfiguration, function)
	}
	if function == FunctionApply && len(entries) == 0 {
		return mip.Field{}, fmt.Errorf("%w: apply requires at least one channel entry", ErrInvalidConfiguration)
	}
	if len(entries) > 0xFF {
		return mip.Field{}, fmt.Errorf("%w: %d entries exceed one-byte count", ErrInvalidConfiguration, len(entries))
	}

	data := make([]byte, 0, 2+3*len(entries))
	data = append(data, function, byte(len(entries)))
	for _, e := range entries {
		if e.Decimation == 0 {
			return mip.Field{}, fmt.Errorf("%w: channel 0x%02X has zero decimation", ErrInvalidConfiguration, e.Channel)
		}
		data = append(data, e.Channel)
		data = binary.BigEndian.AppendUint16(data, e.Decimation)
	}
	return mip.NewField(command, data), nil
}

// StreamStateField encodes a continuous-stream enable/disable field for the
// given stream selector.
func StreamStateField(stream byte, enable bool) mip.Field {
	state := byte(0x00)
	if enable {
		state = 0x01
	}
	return mip.NewField(mip.CmdStreamState, []byte{FunctionApply, stream, state})
}

// SaveStreamStateField encodes a save-to-startup field for the given stream
// selector.
func SaveStreamStateField(stream byte) mip.Field {
	return mip.NewField(mip.CmdStreamState, []byte{FunctionSave, stream})
}

// SaveFormatField encodes a bare save-to-startup field for a format command.
func SaveFormatField(command byte) mip.Field {
	return mip.NewField(command, []byte{FunctionSave})
}
