package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/contactsync/internal/canonical"
	"github.com/roach88/contactsync/internal/contact"
)

// Snapshot captures a scenario execution for golden comparison.
type Snapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	Contacts     []contact.Contact
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization.
func (s *Snapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		actions := make([]any, len(event.Actions))
		for j, a := range event.Actions {
			actions[j] = a
		}
		m := map[string]any{
			"seq":     event.Seq,
			"step":    event.Step,
			"patches": event.Patches,
			"actions": actions,
		}
		if event.Ref != "" {
			m["ref"] = event.Ref
		}
		if event.Error != "" {
			m["error"] = event.Error
		}
		trace[i] = m
	}

	contacts := make([]any, len(s.Contacts))
	for i, c := range s.Contacts {
		contacts[i] = contactColumns(c)
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"contacts":      contacts,
	}
}

// Marshal returns the canonical JSON form of the snapshot.
func (s *Snapshot) Marshal() ([]byte, error) {
	return canonical.Marshal(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Contacts:     result.Contacts,
	}
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
