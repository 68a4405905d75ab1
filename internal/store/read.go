package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/contactsync/internal/contact"
)

const selectContact = `
	SELECT id, first_name, last_name, phone, email, created_at, updated_at
	FROM contacts`

// Find returns the row for id. The boolean is false when no row exists;
// that case is not an error.
func (s *Store) Find(ctx context.Context, id uuid.UUID) (contact.Contact, bool, error) {
	row := s.db.QueryRowContext(ctx, selectContact+` WHERE id = ?`, id.String())

	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return contact.Contact{}, false, nil
	}
	if err != nil {
		return contact.Contact{}, false, fmt.Errorf("find contact %s: %w", id, err)
	}
	return c, true, nil
}

// List returns every row ordered by last_name, first_name ascending.
// Ties are broken by id so results are deterministic.
//
// Returns an empty slice (not nil) if the projection is empty.
func (s *Store) List(ctx context.Context) ([]contact.Contact, error) {
	rows, err := s.db.QueryContext(ctx, selectContact+`
		ORDER BY last_name COLLATE BINARY ASC, first_name COLLATE BINARY ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	contacts := []contact.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}

	return contacts, nil
}

// Count returns the number of rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanContact scans one row into a Contact.
func scanContact(r rowScanner) (contact.Contact, error) {
	var c contact.Contact
	var id string

	if err := r.Scan(&id, &c.FirstName, &c.LastName, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contact.Contact{}, err
		}
		return contact.Contact{}, fmt.Errorf("scan contact: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("scan contact: invalid id %q: %w", id, err)
	}
	c.ID = parsed

	return c, nil
}
