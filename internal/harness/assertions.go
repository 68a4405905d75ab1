package harness

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/contactsync/internal/contact"
	"github.com/roach88/contactsync/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string            // Assertion type for categorization
	Expected string            // Human-readable expected outcome
	Actual   string            // Human-readable actual outcome
	Rows     []contact.Contact // Final projection for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Rows != nil {
		fmt.Fprintf(&buf, "\nProjection:\n")
		for i, c := range e.Rows {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", i+1, c.ID, c)
		}
	}

	return buf.String()
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store  *store.Store
	Ctx    context.Context
	RefIDs map[string]uuid.UUID
}

func (a *AssertionContext) lookup(ref string) (contact.Contact, bool, error) {
	id, ok := a.RefIDs[ref]
	if !ok {
		return contact.Contact{}, false, fmt.Errorf("unknown ref %q", ref)
	}
	c, found, err := a.Store.Find(a.Ctx, id)
	if err != nil {
		return contact.Contact{}, false, fmt.Errorf("find %q: %w", ref, err)
	}
	return c, found, nil
}

// assertRowPresence checks row_exists and row_absent.
func assertRowPresence(actx *AssertionContext, assertion Assertion, rows []contact.Contact) error {
	_, found, err := actx.lookup(assertion.Ref)
	if err != nil {
		return err
	}

	want := assertion.Type == AssertRowExists
	if found == want {
		return nil
	}

	expected, actual := "row present", "row not found"
	if !want {
		expected, actual = "no row", "row present"
	}
	return &AssertionError{
		Type:     assertion.Type,
		Expected: fmt.Sprintf("%s for %s (%s)", expected, assertion.Ref, actx.RefIDs[assertion.Ref]),
		Actual:   actual,
		Rows:     rows,
	}
}

// assertRowFields checks the ref's row with subset semantics: only the
// columns named in Expect are compared.
func assertRowFields(actx *AssertionContext, assertion Assertion, rows []contact.Contact) error {
	c, found, err := actx.lookup(assertion.Ref)
	if err != nil {
		return err
	}
	if !found {
		return &AssertionError{
			Type:     AssertRowFields,
			Expected: fmt.Sprintf("row for %s", assertion.Ref),
			Actual:   "row not found",
			Rows:     rows,
		}
	}

	actual := contactColumns(c)

	// Sort keys for deterministic failure messages
	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expected := assertion.Expect[key]
		actualValue, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     AssertRowFields,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q is not a contact column", key),
			}
		}

		if !fieldEqual(expected, actualValue) {
			return &AssertionError{
				Type:     AssertRowFields,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expected, expected),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
				Rows:     rows,
			}
		}
	}

	return nil
}

func assertRowCount(assertion Assertion, rows []contact.Contact) error {
	if len(rows) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertRowCount,
		Expected: fmt.Sprintf("%d rows", assertion.Count),
		Actual:   fmt.Sprintf("%d rows", len(rows)),
		Rows:     rows,
	}
}

func assertListOrder(assertion Assertion, rows []contact.Contact) error {
	names := make([]string, len(rows))
	for i, c := range rows {
		names[i] = c.FullName()
	}
	if slices.Equal(names, assertion.Names) {
		return nil
	}
	return &AssertionError{
		Type:     AssertListOrder,
		Expected: fmt.Sprintf("%q", assertion.Names),
		Actual:   fmt.Sprintf("%q", names),
	}
}

// contactColumns maps column names to values as stored.
func contactColumns(c contact.Contact) map[string]any {
	return map[string]any{
		contact.FieldID:        c.ID.String(),
		contact.FieldFirstName: c.FirstName,
		contact.FieldLastName:  c.LastName,
		contact.FieldPhone:     c.Phone,
		contact.FieldEmail:     c.Email,
		contact.FieldCreatedAt: c.CreatedAt,
		contact.FieldUpdatedAt: c.UpdatedAt,
	}
}

// fieldEqual compares a YAML-decoded expectation with a column value.
// YAML integers decode as int; timestamps may also be written as strings.
func fieldEqual(expected, actual any) bool {
	switch act := actual.(type) {
	case string:
		exp, ok := expected.(string)
		return ok && exp == act
	case int64:
		switch exp := expected.(type) {
		case int:
			return int64(exp) == act
		case int64:
			return exp == act
		case uint64:
			return exp <= 1<<63-1 && int64(exp) == act
		case string:
			n, err := strconv.ParseInt(exp, 10, 64)
			return err == nil && n == act
		}
	}
	return false
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRowExists, AssertRowAbsent, AssertRowFields:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
			} else if assertion.Type == AssertRowFields {
				err = assertRowFields(actx, assertion, result.Contacts)
			} else {
				err = assertRowPresence(actx, assertion, result.Contacts)
			}
		case AssertRowCount:
			err = assertRowCount(assertion, result.Contacts)
		case AssertListOrder:
			err = assertListOrder(assertion, result.Contacts)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
