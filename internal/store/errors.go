package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrDuplicate is returned by Insert when a row with the same ID exists.
	// Two concurrent reconciliations of a new contact race to this error.
	ErrDuplicate = errors.New("contact already exists")

	// ErrNotFound is returned by Update when no row has the contact's ID.
	ErrNotFound = errors.New("contact not found")
)

// isUniqueViolation reports whether err is a SQLite primary key or unique
// constraint failure.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		se.ExtendedCode == sqlite3.ErrConstraintUnique
}
