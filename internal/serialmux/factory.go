package serialmux

import (
	"go.bug.st/serial"
)

// Open opens the serial port at the given path with the provided options.
func Open(path string, opts PortOptions) (SerialPorter, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	return serial.Open(path, mode)
}

// ListPorts enumerates the serial device paths visible on this host.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
