package patch

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/roach88/contactsync/internal/contact"
)

// Encode returns the batch that creates c: the container followed by all
// seven fields in contact.Fields order.
func Encode(c contact.Contact) []Patch {
	fields := EncodeFields(c)
	batch := make([]Patch, 0, len(fields)+1)
	batch = append(batch, PutObject{Key: c.ID.String()})
	for _, f := range fields {
		batch = append(batch, f)
	}
	return batch
}

// EncodeFields returns one PutField per contact field. Timestamps are
// written as base-10 strings.
func EncodeFields(c contact.Contact) []PutField {
	key := c.ID.String()
	return []PutField{
		{Object: key, Key: contact.FieldID, Value: Str(key)},
		{Object: key, Key: contact.FieldFirstName, Value: Str(c.FirstName)},
		{Object: key, Key: contact.FieldLastName, Value: Str(c.LastName)},
		{Object: key, Key: contact.FieldPhone, Value: Str(c.Phone)},
		{Object: key, Key: contact.FieldEmail, Value: Str(c.Email)},
		{Object: key, Key: contact.FieldCreatedAt, Value: Str(strconv.FormatInt(c.CreatedAt, 10))},
		{Object: key, Key: contact.FieldUpdatedAt, Value: Str(strconv.FormatInt(c.UpdatedAt, 10))},
	}
}

// EncodeRemoval returns the single-patch batch that removes id.
func EncodeRemoval(id uuid.UUID) []Patch {
	return []Patch{RemoveObject{Key: id.String()}}
}

// ContainerKey returns the root container a patch addresses.
func ContainerKey(p Patch) string {
	switch p := p.(type) {
	case PutObject:
		return p.Key
	case PutField:
		return p.Object
	case RemoveObject:
		return p.Key
	default:
		return ""
	}
}

// Group splits a diff touching several containers into per-entity batches.
//
// A PutObject or RemoveObject opens a new batch for its key; PutField
// patches join the latest batch for their container. Batches are returned in
// the order they were opened. Field patches for a container with no open
// batch start a batch of their own, which Parse will reject as malformed.
func Group(patches []Patch) [][]Patch {
	var batches [][]Patch
	open := make(map[string]int)

	for _, p := range patches {
		key := ContainerKey(p)
		switch p.(type) {
		case PutObject, RemoveObject:
			open[key] = len(batches)
			batches = append(batches, []Patch{p})
		default:
			idx, ok := open[key]
			if !ok {
				open[key] = len(batches)
				batches = append(batches, []Patch{p})
				continue
			}
			batches[idx] = append(batches[idx], p)
		}
	}

	return batches
}
