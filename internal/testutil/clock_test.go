package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/contactsync/internal/contact"
)

var _ contact.Clock = (*FixedClock)(nil)

func TestFixedClock_StartsAtGivenValue(t *testing.T) {
	clock := NewFixedClock(1_700_000_000_000)
	assert.Equal(t, int64(1_700_000_000_000), clock.Now())
	assert.Equal(t, int64(1_700_000_000_000), clock.Now())
}

func TestFixedClock_Advance(t *testing.T) {
	clock := NewFixedClock(1000)

	assert.Equal(t, int64(1500), clock.Advance(500))
	assert.Equal(t, int64(1500), clock.Now())
	assert.Equal(t, int64(1501), clock.Advance(1))
}

func TestFixedClock_SetBackwards(t *testing.T) {
	clock := NewFixedClock(1000)
	clock.Set(10)
	assert.Equal(t, int64(10), clock.Now())
}

func TestFixedClock_TouchNeverRewinds(t *testing.T) {
	clock := NewFixedClock(5000)
	c := contact.Factory{Clock: clock, IDs: NewSequenceIDs()}.New("John", "Doe", "", "")
	assert.Equal(t, int64(5000), c.UpdatedAt)

	clock.Set(1000)
	c.TouchAt(clock)
	assert.Equal(t, int64(5000), c.UpdatedAt)

	clock.Set(6000)
	c.TouchAt(clock)
	assert.Equal(t, int64(6000), c.UpdatedAt)
	assert.Equal(t, int64(5000), c.CreatedAt)
}

func TestFixedClock_ThreadSafe(t *testing.T) {
	clock := NewFixedClock(0)
	const numGoroutines = 50
	const callsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				clock.Advance(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(numGoroutines*callsPerGoroutine), clock.Now())
}
