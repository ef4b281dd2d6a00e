// Package mip implements the Microstrain MIP wire format: framed packets of
// tagged fields protected by a Fletcher checksum, plus a resynchronizing
// stream parser for the inbound byte stream.
package mip

import (
	"errors"
	"fmt"
	"strings"
)

const (
	sync1 = 0x75
	sync2 = 0x65

	headerLen   = 4
	checksumLen = 2

	// MaxPayload is the largest field payload a single frame can carry;
	// the length field is one byte.
	MaxPayload = 255
)

var (
	ErrFieldTooLong  = errors.New("mip: field data exceeds one-byte length")
	ErrPacketTooLong = errors.New("mip: fields exceed maximum frame payload")
)

// Field is a tagged byte-payload unit inside a packet.
type Field struct {
	Descriptor byte
	Data       []byte
}

// NewField constructs a field with the given descriptor and data bytes.
func NewField(descriptor byte, data []byte) Field {
	return Field{Descriptor: descriptor, Data: data}
}

// Packet is an ordered sequence of fields addressed to (or received from) one
// descriptor set.
type Packet struct {
	Descriptor byte
	Fields     []Field
}

// NewPacket constructs a packet for the given descriptor set.
func NewPacket(descriptor byte, fields ...Field) Packet {
	return Packet{Descriptor: descriptor, Fields: fields}
}

// Field returns the first field with the given descriptor.
func (p Packet) Field(descriptor byte) (Field, bool) {
	for _, f := range p.Fields {
		if f.Descriptor == descriptor {
			return f, true
		}
	}
	return Field{}, false
}

// Bytes encodes the packet as a transmit-ready frame, including sync bytes
// and checksum.
func (p Packet) Bytes() ([]byte, error) {
	payloadLen := 0
	for _, f := range p.Fields {
		if len(f.Data) > MaxPayload-2 {
			return nil, fmt.Errorf("%w: field 0x%02X has %d bytes", ErrFieldTooLong, f.Descriptor, len(f.Data))
		}
		payloadLen += 2 + len(f.Data)
	}
	if payloadLen > MaxPayload {
		return nil, fmt.Errorf("%w: payload is %d bytes", ErrPacketTooLong, payloadLen)
	}

	b := make([]byte, 0, headerLen+payloadLen+checksumLen)
	b = append(b, sync1, sync2, p.Descriptor, byte(payloadLen))
	for _, f := range p.Fields {
		b = append(b, byte(2+len(f.Data)), f.Descriptor)
		b = append(b, f.Data...)
	}
	ck1, ck2 := Fletcher(b)
	return append(b, ck1, ck2), nil
}

// String renders the packet as hex for diagnostic output.
func (p Packet) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "set=0x%02X", p.Descriptor)
	for _, f := range p.Fields {
		fmt.Fprintf(&sb, " [0x%02X:% 02X]", f.Descriptor, f.Data)
	}
	return sb.String()
}
