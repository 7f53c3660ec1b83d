package trace

import (
	"sync"
	"time"
)

// Clock returns the current time in milliseconds since epoch
type Clock interface {
	NowMS() int64
}

// ClockFunc adapts a function to Clock
type ClockFunc func() int64

// NowMS returns f()
func (f ClockFunc) NowMS() int64 {
	return f()
}

// SystemClock is a wall clock that never goes backwards
type SystemClock struct {
	lock sync.Mutex
	last int64
}

// NewSystemClock returns a monotonic wall clock
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// NowMS returns the current time in milliseconds,
// never less than the previously returned value.
func (c *SystemClock) NowMS() int64 {
	now := time.Now().UnixMilli()

	c.lock.Lock()
	defer c.lock.Unlock()
	if now < c.last {
		now = c.last
	}
	c.last = now
	return now
}
