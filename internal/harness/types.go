package harness

import (
	"github.com/roach88/contactsync/internal/contact"
)

// TraceEvent records what one step did.
type TraceEvent struct {
	Seq     int      `json:"seq"`  // 1-based step number
	Step    string   `json:"step"` // step kind
	Ref     string   `json:"ref,omitempty"`
	Patches int      `json:"patches"` // patches handed to the engine
	Actions []string `json:"actions"` // reconcile actions, in order
	Error   string   `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Contacts is the final projection in List order.
	Contacts []contact.Contact `json:"contacts"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Errors:   []string{},
		Contacts: []contact.Contact{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step event.
func (r *Result) AddTrace(event TraceEvent) {
	if event.Actions == nil {
		event.Actions = []string{}
	}
	r.Trace = append(r.Trace, event)
}
