package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/contactsync/internal/batchfile"
	"github.com/roach88/contactsync/internal/contact"
)

// DefaultClock is the starting time for scenarios that do not set one.
const DefaultClock int64 = 1_700_000_000_000

// Scenario defines one end-to-end run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Clock is the starting time in ms. Zero means DefaultClock.
	Clock int64 `yaml:"clock,omitempty"`

	// Steps run in order against one document and one store.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final projection.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario action. Exactly one of Create, Update, Delete and
// Apply is set, or none of them when the step only advances the clock.
type Step struct {
	Create *CreateStep `yaml:"create,omitempty"`
	Update *UpdateStep `yaml:"update,omitempty"`
	Delete *RefStep    `yaml:"delete,omitempty"`
	Apply  *ApplyStep  `yaml:"apply,omitempty"`

	// Advance moves the clock forward by this many ms before the step runs.
	Advance int64 `yaml:"advance,omitempty"`

	// Expect checks the outcome of the step. Nil means "no error".
	Expect *Expect `yaml:"expect,omitempty"`
}

// Step kinds as reported in the trace.
const (
	StepCreate  = "create"
	StepUpdate  = "update"
	StepDelete  = "delete"
	StepApply   = "apply"
	StepAdvance = "advance"
)

// Kind returns the step kind, or "" if more than one action is set.
func (s Step) Kind() string {
	var kinds []string
	if s.Create != nil {
		kinds = append(kinds, StepCreate)
	}
	if s.Update != nil {
		kinds = append(kinds, StepUpdate)
	}
	if s.Delete != nil {
		kinds = append(kinds, StepDelete)
	}
	if s.Apply != nil {
		kinds = append(kinds, StepApply)
	}
	switch len(kinds) {
	case 0:
		return StepAdvance
	case 1:
		return kinds[0]
	default:
		return ""
	}
}

// CreateStep creates a contact, saves it to the document and applies the diff.
type CreateStep struct {
	Ref       string `yaml:"ref"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Phone     string `yaml:"phone,omitempty"`
	Email     string `yaml:"email,omitempty"`
}

// UpdateStep changes fields of a created contact, touches it and re-saves it.
// Set keys are first_name, last_name, phone and email.
type UpdateStep struct {
	Ref string            `yaml:"ref"`
	Set map[string]string `yaml:"set"`
}

// RefStep names a contact. Refs never created get a fresh ID on first use.
type RefStep struct {
	Ref string `yaml:"ref"`
}

// ApplyStep hands one raw batch straight to the engine, bypassing the
// document. String fields equal to "$ref" are replaced by that ref's ID.
type ApplyStep struct {
	Patches []batchfile.Entry `yaml:"patches"`
}

// Expect specifies the outcome of a step.
type Expect struct {
	// Actions lists the reconcile actions in order (inserted, updated,
	// deleted, noop). Nil skips the check; an empty list requires none.
	Actions []string `yaml:"actions,omitempty"`

	// Error is the expected error code: a parse error code such as
	// MALFORMED_BATCH, or DUPLICATE. Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final projection.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Ref names the contact (row_exists, row_absent, row_fields).
	Ref string `yaml:"ref,omitempty"`

	// Expect holds expected column values (row_fields). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of rows (row_count).
	Count int `yaml:"count,omitempty"`

	// Names is the expected "First Last" order (list_order).
	Names []string `yaml:"names,omitempty"`
}

// Assertion type constants.
const (
	AssertRowExists = "row_exists"
	AssertRowAbsent = "row_absent"
	AssertRowFields = "row_fields"
	AssertRowCount  = "row_count"
	AssertListOrder = "list_order"
)

var updatableFields = map[string]bool{
	contact.FieldFirstName: true,
	contact.FieldLastName:  true,
	contact.FieldPhone:     true,
	contact.FieldEmail:     true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields so "assertion:" vs "assertions:" typos fail loudly.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.Clock < 0 {
		return fmt.Errorf("clock must be non-negative")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, s Step) error {
	if s.Advance < 0 {
		return fmt.Errorf("steps[%d]: advance must be non-negative", index)
	}

	switch s.Kind() {
	case "":
		return fmt.Errorf("steps[%d]: only one of create, update, delete, apply may be set", index)
	case StepCreate:
		if s.Create.Ref == "" {
			return fmt.Errorf("steps[%d].create: ref is required", index)
		}
	case StepUpdate:
		if s.Update.Ref == "" {
			return fmt.Errorf("steps[%d].update: ref is required", index)
		}
		for field := range s.Update.Set {
			if !updatableFields[field] {
				return fmt.Errorf("steps[%d].update: cannot set field %q", index, field)
			}
		}
	case StepDelete:
		if s.Delete.Ref == "" {
			return fmt.Errorf("steps[%d].delete: ref is required", index)
		}
	case StepAdvance:
		if s.Advance == 0 {
			return fmt.Errorf("steps[%d]: step has no action", index)
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRowExists, AssertRowAbsent:
		if a.Ref == "" {
			return fmt.Errorf("assertions[%d]: ref is required for %s", index, a.Type)
		}
	case AssertRowFields:
		if a.Ref == "" {
			return fmt.Errorf("assertions[%d]: ref is required for row_fields", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for row_fields", index)
		}
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	case AssertListOrder:
		if a.Names == nil {
			return fmt.Errorf("assertions[%d]: names list is required for list_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
