package document

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/contactsync/internal/contact"
	"github.com/roach88/contactsync/internal/patch"
)

// PutContact writes c as a fresh container keyed by its ID with all seven
// fields. Re-saving a contact replaces its container, so the diff of any save
// is a complete snapshot.
func PutContact(d *Doc, c contact.Contact) error {
	obj, err := d.PutObject(c.ID.String())
	if err != nil {
		return fmt.Errorf("put contact %s: %w", c.ID, err)
	}
	for _, f := range patch.EncodeFields(c) {
		if err := d.Put(obj, f.Key, f.Value); err != nil {
			return fmt.Errorf("put contact %s: %w", c.ID, err)
		}
	}
	return nil
}

// DeleteContact removes the container for id.
func DeleteContact(d *Doc, id uuid.UUID) error {
	if err := d.Delete(id.String()); err != nil {
		return fmt.Errorf("delete contact %s: %w", id, err)
	}
	return nil
}

// Track runs edit and returns the patches between the states before and
// after it.
func Track(d *Doc, edit func(d *Doc) error) ([]patch.Patch, error) {
	before := d.Heads()
	if err := edit(d); err != nil {
		return nil, err
	}
	return d.Diff(before, d.Heads())
}
