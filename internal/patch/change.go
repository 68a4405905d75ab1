package patch

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/contactsync/internal/contact"
)

// ChangeKind tags a Change.
type ChangeKind uint8

const (
	// ChangeUpsert carries a fully reconstructed contact.
	ChangeUpsert ChangeKind = iota + 1
	// ChangeRemove carries only the ID of a removed contact.
	ChangeRemove
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeUpsert:
		return "upsert"
	case ChangeRemove:
		return "remove"
	default:
		return fmt.Sprintf("ChangeKind(%d)", uint8(k))
	}
}

// Change is the parsed outcome of one batch.
// Construct it with Upsert or Remove.
type Change struct {
	Kind    ChangeKind
	Contact contact.Contact // set for ChangeUpsert
	ID      uuid.UUID       // set for both kinds
}

// Upsert wraps a reconstructed contact.
func Upsert(c contact.Contact) Change {
	return Change{Kind: ChangeUpsert, Contact: c, ID: c.ID}
}

// Remove signals removal of the contact with the given ID.
func Remove(id uuid.UUID) Change {
	return Change{Kind: ChangeRemove, ID: id}
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s", c.Kind, c.ID)
}
