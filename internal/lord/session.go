// Package lord manages a command and telemetry session against a Lord
// Microstrain inertial/GNSS sensor speaking the MIP protocol: building
// configuration command packets, awaiting acknowledgments, and draining the
// decoded telemetry stream.
package lord

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/microstrain/internal/mip"
	"github.com/banshee-data/microstrain/internal/monitoring"
	"github.com/banshee-data/microstrain/internal/serialmux"
	"github.com/banshee-data/microstrain/internal/timeutil"
)

const (
	defaultAckTimeout = 2 * time.Second

	// telemetryQueueSize bounds the decoded packet buffer between the
	// monitor goroutine and PollPacket. When the consumer falls behind,
	// new packets are dropped rather than blocking the decode loop.
	telemetryQueueSize = 64
)

// Session owns the serial port and frame codec for the lifetime of one CLI
// invocation. Commands are single-flight: only one may await acknowledgment
// at a time. PollPacket never blocks and may be interleaved with commands.
type Session struct {
	port       serialmux.SerialPorter
	parser     *mip.Parser
	clock      timeutil.Clock
	ackTimeout time.Duration

	cmdMu   sync.Mutex
	data    chan mip.Packet
	replies chan mip.Packet
}

// NewSession wraps an already-open port. Monitor must be running before any
// command or poll returns useful results.
func NewSession(port serialmux.SerialPorter, clock timeutil.Clock) *Session {
	return &Session{
		port:       port,
		parser:     mip.NewParser(),
		clock:      clock,
		ackTimeout: defaultAckTimeout,
		data:       make(chan mip.Packet, telemetryQueueSize),
		replies:    make(chan mip.Packet, 4),
	}
}

// OpenPort opens the named serial port and wraps it in a session.
func OpenPort(path string, opts serialmux.PortOptions) (*Session, error) {
	port, err := serialmux.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, path, err)
	}
	return NewSession(port, timeutil.RealClock{}), nil
}

// SetAckTimeout adjusts the acknowledgment window. Call before issuing
// commands.
func (s *Session) SetAckTimeout(d time.Duration) {
	s.ackTimeout = d
}

// Close closes the underlying port, which also unblocks the monitor loop.
func (s *Session) Close() error {
	return s.port.Close()
}

// Monitor reads the port and decodes frames until the context is cancelled
// or the port fails. Data packets are queued for PollPacket; command replies
// are routed to the outstanding Send call. Run it in its own goroutine.
func (s *Session) Monitor(ctx context.Context) error {
	chunks := make(chan []byte)
	readErr := make(chan error, 1)

	// The blocking port.Read lives in its own goroutine so the outer loop
	// can honor context cancellation.
	go func() {
		defer close(chunks)
		buf := make([]byte, 256)
		for {
			n, err := s.port.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				select {
				case readErr <- err:
				case <-ctx.Done():
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case chunk, ok := <-chunks:
			if !ok {
				return nil
			}
			s.parser.Write(chunk)
			for {
				pkt, ok := s.parser.Next()
				if !ok {
					break
				}
				s.route(pkt)
			}
		}
	}
}

func (s *Session) route(pkt mip.Packet) {
	if mip.IsDataSet(pkt.Descriptor) {
		select {
		case s.data <- pkt:
		default:
			monitoring.Logf("telemetry queue full, dropping packet %s", pkt)
		}
		return
	}
	select {
	case s.replies <- pkt:
	default:
		monitoring.Logf("dropping unsolicited reply %s", pkt)
	}
}

// Send transmits a pre-built packet and blocks until the device replies or
// the acknowledgment window elapses. A reply carrying a nonzero ack code
// returns a NackError alongside the reply packet.
func (s *Session) Send(pkt mip.Packet) (mip.Packet, error) {
	b, err := pkt.Bytes()
	if err != nil {
		return mip.Packet{}, fmt.Errorf("%w: %v", ErrFrame, err)
	}

	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	// Drop stale replies left over from a previously timed-out command so
	// they are never matched against this one.
	for {
		select {
		case <-s.replies:
			continue
		default:
		}
		break
	}

	if _, err := s.port.Write(b); err != nil {
		return mip.Packet{}, fmt.Errorf("write command: %w", err)
	}

	timer := s.clock.NewTimer(s.ackTimeout)
	defer timer.Stop()
	select {
	case reply := <-s.replies:
		if err := checkAck(reply); err != nil {
			return reply, err
		}
		return reply, nil
	case <-timer.C():
		return mip.Packet{}, ErrTimeout
	}
}

// checkAck scans every ack field in a reply; any nonzero error code rejects
// the whole command.
func checkAck(reply mip.Packet) error {
	for _, f := range reply.Fields {
		if f.Descriptor != mip.FieldAck || len(f.Data) < 2 {
			continue
		}
		if f.Data[1] != 0x00 {
			return NackError{Command: f.Data[0], Code: f.Data[1]}
		}
	}
	return nil
}

// SetIMUFormat applies a channel/rate table to the IMU data stream.
func (s *Session) SetIMUFormat(function byte, entries []ChannelRate) error {
	return s.setFormat(mip.CmdIMUFormat, function, entries)
}

// SetGNSSFormat applies a channel/rate table to the GNSS data stream.
func (s *Session) SetGNSSFormat(function byte, entries []ChannelRate) error {
	return s.setFormat(mip.CmdGNSSFormat, function, entries)
}

// SetEstimationFormat applies a channel/rate table to the estimation filter
// data stream.
func (s *Session) SetEstimationFormat(function byte, entries []ChannelRate) error {
	return s.setFormat(mip.CmdEFFormat, function, entries)
}

func (s *Session) setFormat(command byte, function byte, entries []ChannelRate) error {
	field, err := BuildFormatField(command, function, entries)
	if err != nil {
		return err
	}
	_, err = s.Send(mip.NewPacket(mip.Set3DMCommand, field))
	return err
}

// IMUBaseRate queries the IMU subsystem's base tick frequency in Hz.
func (s *Session) IMUBaseRate() (uint16, error) {
	return s.baseRate(mip.CmdIMUBaseRate, mip.FieldIMUBaseRate)
}

// GNSSBaseRate queries the GNSS subsystem's base tick frequency in Hz.
func (s *Session) GNSSBaseRate() (uint16, error) {
	return s.baseRate(mip.CmdGNSSBaseRate, mip.FieldGNSSBaseRate)
}

func (s *Session) baseRate(command, replyField byte) (uint16, error) {
	reply, err := s.Send(mip.NewPacket(mip.Set3DMCommand, mip.NewField(command, nil)))
	if err != nil {
		return 0, err
	}
	f, ok := reply.Field(replyField)
	if !ok || len(f.Data) < 2 {
		return 0, fmt.Errorf("%w: reply missing base rate field 0x%02X", ErrFrame, replyField)
	}
	return binary.BigEndian.Uint16(f.Data[:2]), nil
}

// PollPacket returns the next buffered telemetry packet, if any. It never
// blocks; malformed frames are dropped inside the codec and never appear
// here.
func (s *Session) PollPacket() (mip.Packet, bool) {
	select {
	case pkt := <-s.data:
		return pkt, true
	default:
		return mip.Packet{}, false
	}
}
