// Package lock serializes work per key.
//
// Reconciliation of one contact is read-then-write. Two batches for the same
// ID applied concurrently can both see "absent" and both insert; the store
// rejects the loser with ErrDuplicate. Callers that need strict ordering
// acquire a Locker keyed by contact ID around each reconciliation.
package lock

import (
	"context"
	"sync"
)

// Release frees a lock obtained from a Locker.
type Release func() error

// Locker hands out mutual exclusion per key.
type Locker interface {
	// Acquire blocks until the lock for key is held or ctx is done.
	Acquire(ctx context.Context, key string) (Release, error)
}

// Noop is a Locker that never blocks.
type Noop struct{}

// Acquire returns immediately.
func (Noop) Acquire(context.Context, string) (Release, error) {
	return func() error { return nil }, nil
}

// Local is an in-process keyed mutex. Entries are dropped once no goroutine
// holds or waits on them.
//
// Thread-safety: Local is safe for concurrent use.
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

// NewLocal creates an empty keyed mutex.
func NewLocal() *Local {
	return &Local{locks: make(map[string]*entry)}
}

// Acquire waits for key, honoring ctx cancellation while waiting.
func (l *Local) Acquire(ctx context.Context, key string) (Release, error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() error {
		once.Do(func() {
			<-e.sem
			l.unref(key, e)
		})
		return nil
	}, nil
}

// Len returns the number of keys currently tracked.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *Local) unref(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}
