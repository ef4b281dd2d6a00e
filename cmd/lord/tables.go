package main

import (
	"github.com/banshee-data/microstrain/internal/lord"
	"github.com/banshee-data/microstrain/internal/mip"
)

// Channel tables for the configure and ekf commands. Decimation divides the
// subsystem base rate: IMU at base/50, GNSS at base/5.
var (
	imuChannels = []lord.ChannelRate{
		{Channel: 0x06, Decimation: 50}, // scaled accel
		{Channel: 0x04, Decimation: 50}, // scaled gyro
		{Channel: 0x05, Decimation: 50}, // scaled mag
		{Channel: 0x0A, Decimation: 50}, // orientation quaternion
		{Channel: 0x17, Decimation: 50}, // GPS timestamp correlation
	}

	gnssChannels = []lord.ChannelRate{
		{Channel: 0x09, Decimation: 5}, // GPS time
		{Channel: 0x0B, Decimation: 5}, // fix info
		{Channel: 0x03, Decimation: 5}, // LLH position
		{Channel: 0x07, Decimation: 5}, // NED velocity
		{Channel: 0x04, Decimation: 5}, // ECEF position
	}

	ekfChannels = []lord.ChannelRate{
		{Channel: 0x01, Decimation: 50}, // filtered LLH position
		{Channel: 0x11, Decimation: 50}, // filter GPS timestamp
	}

	ekfGNSSChannels = []lord.ChannelRate{
		{Channel: 0x03, Decimation: 4},
		{Channel: 0x09, Decimation: 4},
	}
)

// deviceSetupPacket assembles the full provisioning sequence as a single
// atomic packet: all three message formats, saves to startup, stream
// enables, and the estimation filter reset/control tail. Used by the packet
// command for manual protocol testing.
func deviceSetupPacket() (mip.Packet, error) {
	imu, err := lord.BuildFormatField(mip.CmdIMUFormat, lord.FunctionApply, []lord.ChannelRate{
		{Channel: 0x17, Decimation: 10},
		{Channel: 0x06, Decimation: 10},
		{Channel: 0x04, Decimation: 10},
		{Channel: 0x05, Decimation: 10},
		{Channel: 0x0A, Decimation: 10},
	})
	if err != nil {
		return mip.Packet{}, err
	}

	gnss, err := lord.BuildFormatField(mip.CmdGNSSFormat, lord.FunctionApply, []lord.ChannelRate{
		{Channel: 0x09, Decimation: 1},
		{Channel: 0x0B, Decimation: 1},
		{Channel: 0x03, Decimation: 1},
		{Channel: 0x07, Decimation: 1},
		{Channel: 0x05, Decimation: 1},
	})
	if err != nil {
		return mip.Packet{}, err
	}

	ekf, err := lord.BuildFormatField(mip.CmdEFFormat, lord.FunctionApply, []lord.ChannelRate{
		{Channel: 0x11, Decimation: 10},
		{Channel: 0x01, Decimation: 10},
		{Channel: 0x02, Decimation: 10},
		{Channel: 0x03, Decimation: 10},
		{Channel: 0x10, Decimation: 10},
	})
	if err != nil {
		return mip.Packet{}, err
	}

	return mip.NewPacket(mip.Set3DMCommand,
		imu, gnss, ekf,
		lord.SaveFormatField(mip.CmdIMUFormat),
		lord.SaveFormatField(mip.CmdGNSSFormat),
		lord.SaveFormatField(mip.CmdEFFormat),
		lord.StreamStateField(lord.StreamIMU, true),
		lord.StreamStateField(lord.StreamGNSS, true),
		lord.StreamStateField(lord.StreamEF, true),
		lord.SaveStreamStateField(lord.StreamIMU),
		lord.SaveStreamStateField(lord.StreamGNSS),
		lord.SaveStreamStateField(lord.StreamEF),
		mip.NewField(mip.CmdEFReset, nil),
		mip.NewField(mip.CmdEFControl, []byte{0x02}),
		mip.NewField(mip.CmdEFControl, []byte{0x03, 0x01}),
	), nil
}
