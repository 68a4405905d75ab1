package contact

import (
	"fmt"

	"github.com/google/uuid"
)

// Field names used for the named entries of a contact container in the
// document and for the projection columns.
const (
	FieldID        = "id"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldPhone     = "phone"
	FieldEmail     = "email"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Fields lists every serialized field in write order.
var Fields = []string{
	FieldID,
	FieldFirstName,
	FieldLastName,
	FieldPhone,
	FieldEmail,
	FieldCreatedAt,
	FieldUpdatedAt,
}

// Contact is the replicated record.
type Contact struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
}

var defaultFactory = Factory{Clock: SystemClock(), IDs: RandomIDs{}}

// New creates a contact with a fresh random ID and CreatedAt = UpdatedAt = now.
func New(firstName, lastName, phone, email string) Contact {
	return defaultFactory.New(firstName, lastName, phone, email)
}

// Touch refreshes UpdatedAt from the process clock.
// Must be called after changing fields and before saving to the document.
func (c *Contact) Touch() {
	c.TouchAt(defaultFactory.Clock)
}

// TouchAt refreshes UpdatedAt from the given clock.
// UpdatedAt is never moved backwards.
func (c *Contact) TouchAt(clock Clock) {
	if now := clock.Now(); now > c.UpdatedAt {
		c.UpdatedAt = now
	}
}

// HasRequiredFields reports whether both name fields are populated.
func (c Contact) HasRequiredFields() bool {
	return c.FirstName != "" && c.LastName != ""
}

// FullName returns "First Last".
func (c Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

func (c Contact) String() string {
	return fmt.Sprintf("%s %s: %s / %s (Created: %d, Updated: %d)",
		c.FirstName, c.LastName, c.Phone, c.Email, c.CreatedAt, c.UpdatedAt)
}

// Factory builds contacts from an injectable clock and ID source.
// Tests use it with testutil.FixedClock and testutil.SequenceIDs for
// deterministic output.
type Factory struct {
	Clock Clock
	IDs   IDGenerator
}

// New creates a contact stamped by f.Clock with an ID from f.IDs.
func (f Factory) New(firstName, lastName, phone, email string) Contact {
	now := f.Clock.Now()
	return Contact{
		ID:        f.IDs.NewID(),
		FirstName: firstName,
		LastName:  lastName,
		Phone:     phone,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
