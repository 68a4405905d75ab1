package reconcile

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/roach88/contactsync/internal/contact"
	"github.com/roach88/contactsync/internal/store"
)

// setupTestEngine creates an engine over a fresh temp-dir SQLite store.
func setupTestEngine(t *testing.T, opts ...Option) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "contacts.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s, opts...), s
}

func testContact(first, last string) contact.Contact {
	return contact.Contact{
		ID:        uuid.New(),
		FirstName: first,
		LastName:  last,
		Phone:     "555-123-4567",
		Email:     "john.doe@example.com",
		CreatedAt: 1_700_000_000_000,
		UpdatedAt: 1_700_000_000_000,
	}
}

var errInjected = errors.New("injected failure")

// fakeRepo is an in-memory Repository with per-step failure injection and
// call counting.
type fakeRepo struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]contact.Contact
	calls    map[string]int
	failOn   string
	hideRows bool // Find always reports absent
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		rows:  make(map[uuid.UUID]contact.Contact),
		calls: make(map[string]int),
	}
}

func (f *fakeRepo) step(op string) error {
	f.calls[op]++
	if f.failOn == op {
		return errInjected
	}
	return nil
}

func (f *fakeRepo) Find(_ context.Context, id uuid.UUID) (contact.Contact, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.step("find"); err != nil {
		return contact.Contact{}, false, err
	}
	if f.hideRows {
		return contact.Contact{}, false, nil
	}
	c, ok := f.rows[id]
	return c, ok, nil
}

func (f *fakeRepo) Insert(_ context.Context, c contact.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.step("insert"); err != nil {
		return err
	}
	if _, ok := f.rows[c.ID]; ok {
		return store.ErrDuplicate
	}
	f.rows[c.ID] = c
	return nil
}

func (f *fakeRepo) Update(_ context.Context, c contact.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.step("update"); err != nil {
		return err
	}
	old, ok := f.rows[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	c.CreatedAt = old.CreatedAt
	f.rows[c.ID] = c
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.step("delete"); err != nil {
		return false, err
	}
	_, ok := f.rows[id]
	delete(f.rows, id)
	return ok, nil
}

func (f *fakeRepo) List(context.Context) ([]contact.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.step("list"); err != nil {
		return nil, err
	}
	out := make([]contact.Contact, 0, len(f.rows))
	for _, c := range f.rows {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}
