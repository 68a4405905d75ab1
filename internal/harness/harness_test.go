package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contactsync/internal/batchfile"
	"github.com/roach88/contactsync/internal/testutil"
)

func TestRun_CreateInsertsRow(t *testing.T) {
	scenario := &Scenario{
		Name:        "create",
		Description: "single create",
		Steps: []Step{
			{Create: &CreateStep{Ref: "john", FirstName: "John", LastName: "Doe"}},
		},
		Assertions: []Assertion{
			{Type: AssertRowExists, Ref: "john"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 1)
	assert.Equal(t, TraceEvent{
		Seq: 1, Step: StepCreate, Ref: "john", Patches: 8, Actions: []string{"inserted"},
	}, result.Trace[0])

	require.Len(t, result.Contacts, 1)
	c := result.Contacts[0]
	assert.Equal(t, testutil.SequenceID(1), c.ID)
	assert.Equal(t, DefaultClock, c.CreatedAt)
	assert.Equal(t, DefaultClock, c.UpdatedAt)
}

func TestRun_CustomClock(t *testing.T) {
	scenario := &Scenario{
		Name:        "clock",
		Description: "custom start",
		Clock:       42,
		Steps: []Step{
			{Advance: 8},
			{Create: &CreateStep{Ref: "john", FirstName: "John", LastName: "Doe"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Contacts, 1)
	assert.Equal(t, int64(50), result.Contacts[0].CreatedAt)

	assert.Equal(t, StepAdvance, result.Trace[0].Step)
	assert.Equal(t, []string{}, result.Trace[0].Actions)
}

func TestRun_UpdateKeepsCreatedAt(t *testing.T) {
	scenario := &Scenario{
		Name:        "update",
		Description: "update keeps created_at",
		Steps: []Step{
			{Create: &CreateStep{Ref: "john", FirstName: "John", LastName: "Doe"}},
			{
				Update:  &UpdateStep{Ref: "john", Set: map[string]string{"phone": "555-987-6543"}},
				Advance: 250,
				Expect:  &Expect{Actions: []string{"updated"}},
			},
		},
		Assertions: []Assertion{
			{Type: AssertRowFields, Ref: "john", Expect: map[string]any{
				"phone":      "555-987-6543",
				"created_at": int(DefaultClock),
				"updated_at": "1700000000250",
			}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_UpdateUnknownRef(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad",
		Description: "update before create",
		Steps: []Step{
			{Update: &UpdateStep{Ref: "nobody", Set: map[string]string{"phone": "x"}}},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ref")
}

func TestRun_DeleteNeverCreated(t *testing.T) {
	scenario := &Scenario{
		Name:        "delete_ghost",
		Description: "document delete of unknown contact",
		Steps: []Step{
			{Delete: &RefStep{Ref: "ghost"}, Expect: &Expect{Actions: []string{}}},
		},
		Assertions: []Assertion{
			{Type: AssertRowAbsent, Ref: "ghost"},
			{Type: AssertRowCount, Count: 0},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 0, result.Trace[0].Patches)
}

func TestRun_ApplyExpandsRefs(t *testing.T) {
	scenario := &Scenario{
		Name:        "apply",
		Description: "raw batch with refs",
		Steps: []Step{
			{Apply: &ApplyStep{Patches: []batchfile.Entry{
				{Op: "put_object", Key: "$pat"},
				{Op: "put_field", Object: "$pat", Key: "id", Value: "$pat"},
				{Op: "put_field", Object: "$pat", Key: "first_name", Value: "Pat"},
				{Op: "put_field", Object: "$pat", Key: "last_name", Value: "Lee"},
				{Op: "put_field", Object: "$pat", Key: "created_at", Value: 7},
			}}, Expect: &Expect{Actions: []string{"inserted"}}},
		},
		Assertions: []Assertion{
			{Type: AssertRowFields, Ref: "pat", Expect: map[string]any{
				"id":         testutil.SequenceID(1).String(),
				"created_at": 7,
				"updated_at": 0,
			}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "fails",
		Description: "missing last name without expectation",
		Steps: []Step{
			{Create: &CreateStep{Ref: "solo", FirstName: "Solo"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error")
	assert.Equal(t, "MISSING_REQUIRED_FIELD", result.Trace[0].Error)
}

func TestRun_ExpectationMismatches(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "wrong expectations",
		Steps: []Step{
			{
				Create: &CreateStep{Ref: "john", FirstName: "John", LastName: "Doe"},
				Expect: &Expect{Actions: []string{"updated"}},
			},
			{
				Delete: &RefStep{Ref: "john"},
				Expect: &Expect{Error: "MALFORMED_BATCH"},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected actions [updated], got [inserted]")
	assert.Contains(t, result.Errors[1], "expected error MALFORMED_BATCH, got success")
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("../../testdata/scenarios/contact_lifecycle.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
