package timeutil

import (
	"testing"
	"time"
)

func TestMockClockNowAndSince(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	if !clock.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", clock.Now(), start)
	}

	clock.Advance(150 * time.Millisecond)
	if got := clock.Since(start); got != 150*time.Millisecond {
		t.Errorf("Since(start) = %v, want 150ms", got)
	}
}

func TestMockClockTimerFires(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	timer := clock.NewTimer(100 * time.Millisecond)

	clock.Advance(50 * time.Millisecond)
	select {
	case <-timer.C():
		t.Fatal("timer fired before deadline")
	default:
	}

	clock.Advance(50 * time.Millisecond)
	select {
	case <-timer.C():
	default:
		t.Fatal("timer did not fire at deadline")
	}
}

func TestMockClockTimerStop(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	timer := clock.NewTimer(10 * time.Millisecond)

	if !timer.Stop() {
		t.Error("Stop() on an active timer returned false")
	}
	clock.Advance(time.Second)
	select {
	case <-timer.C():
		t.Error("stopped timer fired")
	default:
	}
}

func TestRealClock(t *testing.T) {
	clock := RealClock{}
	before := clock.Now()
	if clock.Since(before) < 0 {
		t.Error("Since returned negative duration")
	}

	timer := clock.NewTimer(time.Millisecond)
	select {
	case <-timer.C():
	case <-time.After(2 * time.Second):
		t.Fatal("real timer never fired")
	}
}
