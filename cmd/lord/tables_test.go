package main

import (
	"bytes"
	"testing"

	"github.com/banshee-data/microstrain/internal/lord"
	"github.com/banshee-data/microstrain/internal/mip"
)

func TestDeviceSetupPacket(t *testing.T) {
	pkt, err := deviceSetupPacket()
	if err != nil {
		t.Fatalf("deviceSetupPacket() error: %v", err)
	}
	if pkt.Descriptor != mip.Set3DMCommand {
		t.Errorf("descriptor = 0x%02X, want 0x0C", pkt.Descriptor)
	}
	// three formats, three saves, three enables, three stream saves,
	// then the estimation filter reset and control tail
	if len(pkt.Fields) != 15 {
		t.Errorf("field count = %d, want 15", len(pkt.Fields))
	}

	if _, ok := pkt.Field(mip.CmdEFReset); !ok {
		t.Error("compound packet has no estimation filter reset field")
	}

	var efControl []mip.Field
	for _, f := range pkt.Fields {
		if f.Descriptor == mip.CmdEFControl {
			efControl = append(efControl, f)
		}
	}
	if len(efControl) != 2 {
		t.Fatalf("estimation filter control fields = %d, want 2", len(efControl))
	}
	if !bytes.Equal(efControl[0].Data, []byte{0x02}) {
		t.Errorf("first control field data = % 02X, want 02", efControl[0].Data)
	}
	if !bytes.Equal(efControl[1].Data, []byte{0x03, 0x01}) {
		t.Errorf("second control field data = % 02X, want 03 01", efControl[1].Data)
	}

	b, err := pkt.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}
	if len(b) > 255+6 {
		t.Errorf("frame length %d exceeds a single MIP frame", len(b))
	}
}

func TestChannelTablesEncode(t *testing.T) {
	tables := map[string]struct {
		command byte
		entries []lord.ChannelRate
	}{
		"imu":      {mip.CmdIMUFormat, imuChannels},
		"gnss":     {mip.CmdGNSSFormat, gnssChannels},
		"ekf":      {mip.CmdEFFormat, ekfChannels},
		"ekf-gnss": {mip.CmdGNSSFormat, ekfGNSSChannels},
	}

	for name, tt := range tables {
		t.Run(name, func(t *testing.T) {
			field, err := lord.BuildFormatField(tt.command, lord.FunctionApply, tt.entries)
			if err != nil {
				t.Fatalf("table does not encode: %v", err)
			}
			if got, want := len(field.Data), 2+3*len(tt.entries); got != want {
				t.Errorf("payload length = %d, want %d", got, want)
			}
		})
	}
}
