package sim

import (
	"sync"
	"time"
)

// Clock is a monotonic elapsed-time source. Now never goes backwards.
type Clock interface {
	Now() time.Duration
}

// WallClock reports real time elapsed since construction
type WallClock struct {
	start time.Time
}

// NewWallClock starts a wall clock at zero
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

// Now uses the monotonic reading carried by time.Time
func (c *WallClock) Now() time.Duration {
	return time.Since(c.start)
}

// ManualClock only moves when told to. Fixed-step drivers advance it by one
// step per tick, tests set it directly.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Duration
}

// NewManualClock creates a manual clock at the given time
func NewManualClock(start time.Duration) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set jumps to t. Earlier values are ignored to keep the clock monotonic.
func (c *ManualClock) Set(t time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t > c.now {
		c.now = t
	}
}

// Advance moves the clock forward by d and returns the new time
func (c *ManualClock) Advance(d time.Duration) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now += d
	}
	return c.now
}

// Seconds converts a fixed step in seconds to a Duration
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Millis converts milliseconds to a Duration
func Millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
