package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: sample
description: "sample scenario"
clock: 1000
steps:
  - create: { ref: john, first_name: John, last_name: Doe, phone: "555", email: j@example.com }
    expect: { actions: [inserted] }
  - update: { ref: john, set: { email: john@example.com } }
    advance: 5
  - apply:
      patches:
        - { op: remove_object, key: $john }
    expect: { actions: [deleted] }
  - advance: 10
  - delete: { ref: john }
assertions:
  - type: row_absent
    ref: john
  - type: list_order
    names: []
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "sample", s.Name)
	assert.Equal(t, int64(1000), s.Clock)
	require.Len(t, s.Steps, 5)
	assert.Equal(t, StepCreate, s.Steps[0].Kind())
	assert.Equal(t, "555", s.Steps[0].Create.Phone)
	assert.Equal(t, []string{"inserted"}, s.Steps[0].Expect.Actions)
	assert.Equal(t, StepUpdate, s.Steps[1].Kind())
	assert.Equal(t, int64(5), s.Steps[1].Advance)
	assert.Equal(t, StepApply, s.Steps[2].Kind())
	assert.Equal(t, "$john", s.Steps[2].Apply.Patches[0].Key)
	assert.Equal(t, StepAdvance, s.Steps[3].Kind())
	assert.Equal(t, StepDelete, s.Steps[4].Kind())
	assert.Len(t, s.Assertions, 2)
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "typo"
steps:
  - create: { ref: a, first_name: A, last_name: B }
assertion:
  - type: row_count
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing name",
			body:    "description: d\nsteps:\n  - advance: 1\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			body:    "name: n\nsteps:\n  - advance: 1\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			body:    "name: n\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "two actions",
			body:    "name: n\ndescription: d\nsteps:\n  - create: {ref: a}\n    delete: {ref: a}\n",
			wantErr: "only one of",
		},
		{
			name:    "empty step",
			body:    "name: n\ndescription: d\nsteps:\n  - expect: {actions: []}\n",
			wantErr: "step has no action",
		},
		{
			name:    "create without ref",
			body:    "name: n\ndescription: d\nsteps:\n  - create: {first_name: A}\n",
			wantErr: "ref is required",
		},
		{
			name:    "update of id",
			body:    "name: n\ndescription: d\nsteps:\n  - update: {ref: a, set: {id: x}}\n",
			wantErr: `cannot set field "id"`,
		},
		{
			name:    "negative advance",
			body:    "name: n\ndescription: d\nsteps:\n  - advance: -1\n",
			wantErr: "advance must be non-negative",
		},
		{
			name:    "unknown assertion",
			body:    "name: n\ndescription: d\nsteps:\n  - advance: 1\nassertions:\n  - type: trace_contains\n",
			wantErr: "unknown assertion type",
		},
		{
			name:    "row_fields without expect",
			body:    "name: n\ndescription: d\nsteps:\n  - advance: 1\nassertions:\n  - type: row_fields\n    ref: a\n",
			wantErr: "expect is required",
		},
		{
			name:    "list_order without names",
			body:    "name: n\ndescription: d\nsteps:\n  - advance: 1\nassertions:\n  - type: list_order\n",
			wantErr: "names list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
