package debounce

import (
	"sync"
	"time"
)

// Intervals for the overlay's three independent gates.
const (
	ToggleInterval  = 350 * time.Millisecond
	NudgeInterval   = 120 * time.Millisecond
	CaptureInterval = 500 * time.Millisecond
)

// Gate lets an action fire at most once per interval.
type Gate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// New returns a gate whose first TryAcquire always succeeds.
func New(interval time.Duration) *Gate {
	return NewAt(interval, time.Now().Add(-interval))
}

// NewAt returns a gate that last fired at the given time.
func NewAt(interval time.Duration, last time.Time) *Gate {
	return &Gate{interval: interval, last: last}
}

// TryAcquire grants the gate iff now is at least one interval past the last
// grant, recording now as the new last grant before returning.
func (g *Gate) TryAcquire(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if now.Sub(g.last) < g.interval {
		return false
	}
	g.last = now
	return true
}

// Allow is TryAcquire at the current time.
func (g *Gate) Allow() bool { return g.TryAcquire(time.Now()) }

// Interval returns the gate's minimum spacing.
func (g *Gate) Interval() time.Duration { return g.interval }

// LastFired returns the time of the last grant.
func (g *Gate) LastFired() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}
