package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant returned by a new DeterministicClock.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock hands out evenly spaced timestamps for fixtures.
//
// The same sequence of calls always yields the same instants, so golden
// output containing times stays byte-identical between runs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	step time.Duration
	n    int64
}

// NewDeterministicClock creates a clock that advances by step on every Next.
// The first call to Next() returns Epoch.
func NewDeterministicClock(step time.Duration) *DeterministicClock {
	if step <= 0 {
		step = time.Hour
	}
	return &DeterministicClock{step: step}
}

// Next returns the next instant.
func (c *DeterministicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Epoch.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// NextPtr is Next for nullable fixture fields.
func (c *DeterministicClock) NextPtr() *time.Time {
	t := c.Next()
	return &t
}

// Reset rewinds the clock to Epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
