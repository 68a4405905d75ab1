package testutil

import "sync"

// FixedClock is a settable millisecond clock for tests.
//
// Now returns the same value until Set or Advance moves it, so contacts built
// from it carry predictable CreatedAt and UpdatedAt values.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now int64
}

// NewFixedClock creates a clock reading start milliseconds.
func NewFixedClock(start int64) *FixedClock {
	return &FixedClock{now: start}
}

// Now returns the current reading. Implements contact.Clock.
func (c *FixedClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by ms and returns the new reading.
func (c *FixedClock) Advance(ms int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += ms
	return c.now
}

// Set replaces the reading. Setting an earlier value is allowed; callers
// testing backward clocks rely on it.
func (c *FixedClock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = ms
}
