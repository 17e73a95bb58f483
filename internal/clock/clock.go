package clock

import (
	"sync"
	"time"
)

// Clock is the ledger-wide timestamp source, in unix seconds. Deadlines and
// rental windows are compared against it and never against the caller's clock.
type Clock interface {
	Now() int64
}

// System reads wall time but never reports a value smaller than one it has
// already returned.
type System struct {
	mu   sync.Mutex
	last int64
}

func NewSystem() *System {
	return &System{}
}

func (c *System) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().Unix()
	if now < c.last {
		return c.last
	}
	c.last = now
	return now
}

// Manual is a clock that only moves when told to.
type Manual struct {
	mu  sync.Mutex
	now int64
}

func NewManual(start int64) *Manual {
	return &Manual{now: start}
}

func (c *Manual) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d seconds. Negative values are ignored.
func (c *Manual) Advance(d int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now += d
	}
	return c.now
}

// Set moves the clock to t if t is not in the past.
func (c *Manual) Set(t int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t > c.now {
		c.now = t
	}
}
