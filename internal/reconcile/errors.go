package reconcile

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrUnknownChange is returned for a Change whose Kind is neither upsert nor
// remove.
var ErrUnknownChange = errors.New("unknown change kind")

// Error reports a failed repository step. Storage errors are wrapped
// unchanged so errors.Is(err, store.ErrDuplicate) keeps working.
type Error struct {
	// Op is the step that failed: "lock", "find", "insert", "update", "delete".
	Op string

	// ID is the contact being reconciled.
	ID uuid.UUID

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("reconcile %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsStorageError returns true if err came from a repository step.
func IsStorageError(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Op != "lock"
	}
	return false
}
