package lord

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/microstrain/internal/mip"
	"github.com/banshee-data/microstrain/internal/serialmux"
	"github.com/banshee-data/microstrain/internal/timeutil"
)

// startSession wires a session to a blocking mock port with its monitor loop
// running. Cleanup cancels the loop and closes the port.
func startSession(t *testing.T) (*Session, *serialmux.TestableSerialPort) {
	t.Helper()

	port := serialmux.NewTestableSerialPort()
	port.BlockReads = true

	s := NewSession(port, timeutil.RealClock{})
	s.SetAckTimeout(250 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Monitor(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		port.Close()
		<-done
	})
	return s, port
}

// replyAfterWrite injects frame into the port's read side once the command
// under test has actually been written.
func replyAfterWrite(t *testing.T, port *serialmux.TestableSerialPort, frame []byte) {
	t.Helper()
	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if len(port.WrittenBytes()) > 0 {
				port.AddReadData(frame)
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
}

func ackFrame(t *testing.T, set, command, code byte) []byte {
	t.Helper()
	b, err := mip.NewPacket(set, mip.NewField(mip.FieldAck, []byte{command, code})).Bytes()
	require.NoError(t, err)
	return b
}

func TestSessionSetIMUFormat(t *testing.T) {
	s, port := startSession(t)
	replyAfterWrite(t, port, ackFrame(t, mip.Set3DMCommand, mip.CmdIMUFormat, 0x00))

	entries := []ChannelRate{{Channel: 0x06, Decimation: 50}, {Channel: 0x04, Decimation: 50}}
	require.NoError(t, s.SetIMUFormat(FunctionApply, entries))

	field, err := BuildFormatField(mip.CmdIMUFormat, FunctionApply, entries)
	require.NoError(t, err)
	want, err := mip.NewPacket(mip.Set3DMCommand, field).Bytes()
	require.NoError(t, err)
	if diff := cmp.Diff(want, port.WrittenBytes()); diff != "" {
		t.Errorf("written frame mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionNack(t *testing.T) {
	s, port := startSession(t)
	replyAfterWrite(t, port, ackFrame(t, mip.Set3DMCommand, mip.CmdGNSSFormat, 0x03))

	err := s.SetGNSSFormat(FunctionApply, []ChannelRate{{Channel: 0x99, Decimation: 5}})
	require.ErrorIs(t, err, ErrNack)

	var nack NackError
	require.ErrorAs(t, err, &nack)
	assert.Equal(t, byte(0x03), nack.Code)
	assert.Equal(t, mip.CmdGNSSFormat, nack.Command)
}

func TestSessionTimeout(t *testing.T) {
	s, _ := startSession(t)
	s.SetAckTimeout(50 * time.Millisecond)

	err := s.SetIMUFormat(FunctionApply, []ChannelRate{{Channel: 0x06, Decimation: 50}})
	require.ErrorIs(t, err, ErrTimeout)
}

func TestSessionInvalidConfigurationSendsNothing(t *testing.T) {
	s, port := startSession(t)

	err := s.SetIMUFormat(FunctionApply, nil)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Empty(t, port.WrittenBytes(), "no bytes may reach the device on a builder error")
}

func TestSessionBaseRate(t *testing.T) {
	s, port := startSession(t)

	reply, err := mip.NewPacket(mip.Set3DMCommand,
		mip.NewField(mip.FieldAck, []byte{mip.CmdIMUBaseRate, 0x00}),
		mip.NewField(mip.FieldIMUBaseRate, []byte{0x00, 0x64}),
	).Bytes()
	require.NoError(t, err)
	replyAfterWrite(t, port, reply)

	rate, err := s.IMUBaseRate()
	require.NoError(t, err)
	assert.Equal(t, uint16(100), rate)
}

func TestSessionPollPacket(t *testing.T) {
	s, port := startSession(t)

	frame, err := mip.NewPacket(mip.SetIMUData, mip.NewField(0x04, []byte{0x01, 0x02})).Bytes()
	require.NoError(t, err)
	port.AddReadData(frame)

	var pkt mip.Packet
	require.Eventually(t, func() bool {
		var ok bool
		pkt, ok = s.PollPacket()
		return ok
	}, 2*time.Second, time.Millisecond, "decoded data packet never surfaced")

	assert.Equal(t, mip.SetIMUData, pkt.Descriptor)
	require.Len(t, pkt.Fields, 1)
	assert.Equal(t, byte(0x04), pkt.Fields[0].Descriptor)

	// consume-once: a drained packet never comes back
	_, ok := s.PollPacket()
	assert.False(t, ok)
}

func TestSessionCorruptFrameNeverSurfaces(t *testing.T) {
	s, port := startSession(t)

	bad, err := mip.NewPacket(mip.SetGNSSData, mip.NewField(0x03, []byte{0xAA})).Bytes()
	require.NoError(t, err)
	bad[len(bad)-1] ^= 0xFF

	good, err := mip.NewPacket(mip.SetEFData, mip.NewField(0x01, []byte{0x01})).Bytes()
	require.NoError(t, err)

	port.AddReadData(bad)
	port.AddReadData(good)

	var pkt mip.Packet
	require.Eventually(t, func() bool {
		var ok bool
		pkt, ok = s.PollPacket()
		return ok
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, mip.SetEFData, pkt.Descriptor, "only the valid frame may surface")
}

func TestOpenPortUnavailable(t *testing.T) {
	_, err := OpenPort("/dev/nonexistent-microstrain-0", serialmux.PortOptions{})
	require.ErrorIs(t, err, ErrDeviceUnavailable)
}
