package contact

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time in milliseconds since the Unix epoch.
type Clock interface {
	Now() int64
}

// WallClock reads the system clock and never returns a value smaller than
// one it returned before.
//
// Thread-safety: WallClock is safe for concurrent use (atomic operations).
type WallClock struct {
	last atomic.Int64
	now  func() time.Time
}

var systemClock = NewWallClock()

// SystemClock returns the process-wide WallClock used by New and Touch.
func SystemClock() *WallClock {
	return systemClock
}

// NewWallClock creates a WallClock backed by time.Now.
func NewWallClock() *WallClock {
	return &WallClock{now: time.Now}
}

// Now returns max(wall time, last returned value).
func (c *WallClock) Now() int64 {
	now := c.now().UnixMilli()
	for {
		last := c.last.Load()
		if now <= last {
			return last
		}
		if c.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

// IDGenerator allocates contact identifiers.
type IDGenerator interface {
	NewID() uuid.UUID
}

// RandomIDs generates random (v4) UUIDs: 122 random bits, so concurrent
// creation never needs coordination.
//
// Thread-safety: RandomIDs is stateless and safe for concurrent use.
type RandomIDs struct{}

// NewID returns a new random UUID.
func (RandomIDs) NewID() uuid.UUID {
	return uuid.New()
}
