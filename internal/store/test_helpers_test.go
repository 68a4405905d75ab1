package store

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/roach88/contactsync/internal/contact"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestContact creates a contact with fixed timestamps.
func createTestContact(first, last string) contact.Contact {
	return contact.Contact{
		ID:        uuid.New(),
		FirstName: first,
		LastName:  last,
		Phone:     "555-0100",
		Email:     first + "@example.com",
		CreatedAt: 1_700_000_000_000,
		UpdatedAt: 1_700_000_000_000,
	}
}
