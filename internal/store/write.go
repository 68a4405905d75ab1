package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/contactsync/internal/contact"
)

// Insert adds a new row for c.
// Returns an error wrapping ErrDuplicate if the ID is already present.
func (s *Store) Insert(ctx context.Context, c contact.Contact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts
		(id, first_name, last_name, phone, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID.String(),
		c.FirstName,
		c.LastName,
		c.Phone,
		c.Email,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert contact %s: %w: %v", c.ID, ErrDuplicate, err)
		}
		return fmt.Errorf("insert contact %s: %w", c.ID, err)
	}
	return nil
}

// Update overwrites the mutable fields and updated_at of the row for c.ID.
// created_at is never written.
// Returns an error wrapping ErrNotFound if no row matched.
func (s *Store) Update(ctx context.Context, c contact.Contact) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE contacts
		SET first_name = ?, last_name = ?, phone = ?, email = ?, updated_at = ?
		WHERE id = ?
	`,
		c.FirstName,
		c.LastName,
		c.Phone,
		c.Email,
		c.UpdatedAt,
		c.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update contact %s: %w", c.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update contact %s: rows affected: %w", c.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update contact %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

// Delete removes the row for id and reports whether one existed.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("delete contact %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete contact %s: rows affected: %w", id, err)
	}
	return n > 0, nil
}
