package lord

import (
	"time"

	"github.com/banshee-data/microstrain/internal/mip"
	"github.com/banshee-data/microstrain/internal/timeutil"
)

// Arrival reports the inter-arrival timing for one observed packet. The
// first packet seen for a descriptor has First set and zero Elapsed.
type Arrival struct {
	Descriptor byte
	Elapsed    time.Duration
	First      bool
}

// Correlator tracks, per descriptor, the instant the previous packet
// arrived. One instance drives one streaming loop; state starts empty and
// is never shared across sessions.
type Correlator struct {
	clock    timeutil.Clock
	lastSeen map[byte]time.Time
}

// NewCorrelator creates an empty correlator using the given clock.
func NewCorrelator(clock timeutil.Clock) *Correlator {
	return &Correlator{
		clock:    clock,
		lastSeen: make(map[byte]time.Time),
	}
}

// Observe records one packet arrival and reports the elapsed time since the
// previous packet with the same descriptor. Every packet is reported exactly
// once; packets for other descriptors are unaffected.
func (c *Correlator) Observe(pkt mip.Packet) Arrival {
	a := Arrival{Descriptor: pkt.Descriptor}
	if prev, ok := c.lastSeen[pkt.Descriptor]; ok {
		a.Elapsed = c.clock.Since(prev)
	} else {
		a.First = true
	}
	c.lastSeen[pkt.Descriptor] = c.clock.Now()
	return a
}
