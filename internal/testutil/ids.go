package testutil

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SequenceIDs generates predictable version-4 shaped UUIDs:
//
//	00000000-0000-4000-8000-000000000001
//	00000000-0000-4000-8000-000000000002
//	...
//
// This enables golden snapshot comparison of contacts created in tests.
//
// Thread-safety: NewID is safe for concurrent use.
type SequenceIDs struct {
	mu  sync.Mutex
	seq uint64
}

// NewSequenceIDs creates a generator whose first ID ends in ...001.
func NewSequenceIDs() *SequenceIDs {
	return &SequenceIDs{}
}

// NewID returns the next ID. Implements contact.IDGenerator.
func (g *SequenceIDs) NewID() uuid.UUID {
	g.mu.Lock()
	g.seq++
	n := g.seq
	g.mu.Unlock()
	return SequenceID(n)
}

// Reset restarts the sequence at 1.
func (g *SequenceIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// SequenceID returns the n-th ID a fresh SequenceIDs would produce.
func SequenceID(n uint64) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-4000-8000-%012d", n))
}
