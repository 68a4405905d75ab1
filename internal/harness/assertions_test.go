package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contactsync/internal/contact"
	"github.com/roach88/contactsync/internal/store"
)

func setupAssertionContext(t *testing.T, contacts ...contact.Contact) (*AssertionContext, *Result) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "assert.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	refs := make(map[string]uuid.UUID)
	for _, c := range contacts {
		require.NoError(t, st.Insert(ctx, c))
		refs[c.FirstName] = c.ID
	}

	rows, err := st.List(ctx)
	require.NoError(t, err)

	result := NewResult()
	result.Contacts = rows
	return &AssertionContext{Store: st, Ctx: ctx, RefIDs: refs}, result
}

func sampleContact(first, last string) contact.Contact {
	return contact.Contact{
		ID:        uuid.New(),
		FirstName: first,
		LastName:  last,
		Phone:     "555-0100",
		Email:     first + "@example.com",
		CreatedAt: 100,
		UpdatedAt: 200,
	}
}

func TestAssertRowPresence(t *testing.T) {
	actx, result := setupAssertionContext(t, sampleContact("john", "Doe"))
	actx.RefIDs["ghost"] = uuid.New()

	assert.Empty(t, EvaluateAssertions(result, []Assertion{
		{Type: AssertRowExists, Ref: "john"},
		{Type: AssertRowAbsent, Ref: "ghost"},
	}, actx))

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertRowAbsent, Ref: "john"},
		{Type: AssertRowExists, Ref: "ghost"},
	}, actx)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "Assertion failed: row_absent")
	assert.Contains(t, errs[1], "row not found")
}

func TestAssertRowPresence_UnknownRef(t *testing.T) {
	actx, result := setupAssertionContext(t)

	errs := EvaluateAssertions(result, []Assertion{{Type: AssertRowExists, Ref: "nobody"}}, actx)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown ref "nobody"`)
}

func TestAssertRowFields(t *testing.T) {
	actx, result := setupAssertionContext(t, sampleContact("john", "Doe"))

	tests := []struct {
		name    string
		expect  map[string]any
		wantErr string
	}{
		{"strings match", map[string]any{"last_name": "Doe", "email": "john@example.com"}, ""},
		{"int timestamp", map[string]any{"created_at": 100}, ""},
		{"string timestamp", map[string]any{"updated_at": "200"}, ""},
		{"wrong value", map[string]any{"phone": "555-9999"}, `field "phone" = 555-9999`},
		{"wrong timestamp", map[string]any{"created_at": 101}, `field "created_at"`},
		{"type mismatch", map[string]any{"phone": 5550100}, `field "phone"`},
		{"unknown column", map[string]any{"nickname": "JD"}, `field "nickname" to exist`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{
				{Type: AssertRowFields, Ref: "john", Expect: tt.expect},
			}, actx)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestAssertRowCountAndOrder(t *testing.T) {
	actx, result := setupAssertionContext(t,
		sampleContact("Bob", "Brown"),
		sampleContact("Amy", "Adams"),
	)

	assert.Empty(t, EvaluateAssertions(result, []Assertion{
		{Type: AssertRowCount, Count: 2},
		{Type: AssertListOrder, Names: []string{"Amy Adams", "Bob Brown"}},
	}, actx))

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertRowCount, Count: 3},
		{Type: AssertListOrder, Names: []string{"Bob Brown", "Amy Adams"}},
	}, actx)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "Expected: 3 rows")
	assert.Contains(t, errs[1], `Actual: ["Amy Adams" "Bob Brown"]`)
}

func TestEvaluateAssertions_NoStore(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertRowExists, Ref: "a"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires database context")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: "trace_count"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "unknown assertion type")
}
