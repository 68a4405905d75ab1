package patch

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/roach88/contactsync/internal/contact"
)

// Parse turns one batch into an Upsert or a Remove.
//
// The first patch decides the batch kind and discloses the contact ID. The
// returned error is always a *ParseError.
func Parse(batch []Patch) (Change, error) {
	if len(batch) == 0 {
		return Change{}, newParseError(CodeEmptyBatch, -1, "", nil, "no patches provided")
	}

	switch first := batch[0].(type) {
	case RemoveObject:
		id, err := parseID(0, first.Key)
		if err != nil {
			return Change{}, err
		}
		return Remove(id), nil

	case PutObject:
		id, err := parseID(0, first.Key)
		if err != nil {
			return Change{}, err
		}
		c, err := parseContact(id, first.Key, batch)
		if err != nil {
			return Change{}, err
		}
		return Upsert(c), nil

	case PutField:
		return Change{}, newParseError(CodeMalformedBatch, 0, first.Key, nil,
			"first patch sets %q inside %q, expected a container creation", first.Key, first.Object)

	default:
		return Change{}, newParseError(CodeMalformedBatch, 0, "", nil, "unknown patch kind %T", first)
	}
}

func parseID(index int, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(key)
	if err != nil {
		return uuid.Nil, newParseError(CodeInvalidIdentifier, index, key, err, "container key %q is not a UUID", key)
	}
	return id, nil
}

// parseContact folds the field patches that follow batch[0] into a contact.
// Only field patches addressed to key count; a later value for the same field
// wins. The id field is ignored since the container key already names the
// contact.
func parseContact(id uuid.UUID, key string, batch []Patch) (contact.Contact, error) {
	c := contact.Contact{ID: id}

	for i := 1; i < len(batch); i++ {
		switch p := batch[i].(type) {
		case PutField:
			if p.Object != key {
				continue
			}
			if err := setField(&c, i, p); err != nil {
				return contact.Contact{}, err
			}
		case PutObject, RemoveObject:
			continue
		default:
			return contact.Contact{}, newParseError(CodeMalformedBatch, i, "", nil, "unknown patch kind %T", p)
		}
	}

	if c.FirstName == "" {
		return contact.Contact{}, newParseError(CodeMissingRequiredField, -1, contact.FieldFirstName, nil,
			"%s not set for %s", contact.FieldFirstName, id)
	}
	if c.LastName == "" {
		return contact.Contact{}, newParseError(CodeMissingRequiredField, -1, contact.FieldLastName, nil,
			"%s not set for %s", contact.FieldLastName, id)
	}

	return c, nil
}

func setField(c *contact.Contact, index int, p PutField) error {
	var err error
	switch p.Key {
	case contact.FieldFirstName:
		c.FirstName, err = stringValue(index, p)
	case contact.FieldLastName:
		c.LastName, err = stringValue(index, p)
	case contact.FieldPhone:
		c.Phone, err = stringValue(index, p)
	case contact.FieldEmail:
		c.Email, err = stringValue(index, p)
	case contact.FieldCreatedAt:
		c.CreatedAt, err = timestampValue(index, p)
	case contact.FieldUpdatedAt:
		c.UpdatedAt, err = timestampValue(index, p)
	}
	return err
}

// stringValue coerces a scalar to text. Integers become base-10 strings.
func stringValue(index int, p PutField) (string, error) {
	if s, ok := p.Value.AsString(); ok {
		return s, nil
	}
	if n, ok := p.Value.AsInt(); ok {
		return strconv.FormatInt(n, 10), nil
	}
	return "", newParseError(CodeMalformedBatch, index, p.Key, nil,
		"field %q: expected string or integer scalar, got %s", p.Key, p.Value.Kind())
}

// timestampValue accepts the decimal-string wire form and native integers.
func timestampValue(index int, p PutField) (int64, error) {
	if n, ok := p.Value.AsInt(); ok {
		return n, nil
	}
	s, ok := p.Value.AsString()
	if !ok {
		return 0, newParseError(CodeInvalidTimestamp, index, p.Key, nil,
			"field %q: expected decimal string, got %s", p.Key, p.Value.Kind())
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, newParseError(CodeInvalidTimestamp, index, p.Key, err, "field %q: %q is not a base-10 integer", p.Key, s)
	}
	return n, nil
}
