package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/contactsync/internal/batchfile"
	"github.com/roach88/contactsync/internal/contact"
	"github.com/roach88/contactsync/internal/document"
	"github.com/roach88/contactsync/internal/lock"
	"github.com/roach88/contactsync/internal/patch"
	"github.com/roach88/contactsync/internal/reconcile"
	"github.com/roach88/contactsync/internal/store"
	"github.com/roach88/contactsync/internal/testutil"
)

// Error codes reported in the trace for failures that are not parse errors.
const (
	CodeDuplicate = "DUPLICATE"
	CodeError     = "ERROR"
)

// Harness is the scenario execution state.
type Harness struct {
	store    *store.Store
	engine   *reconcile.Engine
	doc      *document.Doc
	clock    *testutil.FixedClock
	factory  contact.Factory
	ids      *testutil.SequenceIDs
	refIDs   map[string]uuid.UUID
	contacts map[string]contact.Contact // last saved version per ref
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// An error is returned only when the scenario itself cannot be executed,
// for example an update of a ref that was never created. Failed
// expectations and assertions are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(store.MemoryDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	start := scenario.Clock
	if start == 0 {
		start = DefaultClock
	}
	clock := testutil.NewFixedClock(start)
	ids := testutil.NewSequenceIDs()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &Harness{
		store:    st,
		engine:   reconcile.New(st, reconcile.WithLocker(lock.NewLocal()), reconcile.WithLogger(logger)),
		doc:      document.New(),
		clock:    clock,
		factory:  contact.Factory{Clock: clock, IDs: ids},
		ids:      ids,
		refIDs:   make(map[string]uuid.UUID),
		contacts: make(map[string]contact.Contact),
		logger:   logger,
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	contacts, err := st.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	result.Contacts = contacts

	actx := &AssertionContext{
		Store:  st,
		Ctx:    ctx,
		RefIDs: h.refIDs,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep runs one step and records it in the trace.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	if step.Advance > 0 {
		h.clock.Advance(step.Advance)
	}

	event := TraceEvent{Seq: index + 1, Step: step.Kind()}

	var (
		results []reconcile.Result
		runErr  error
	)

	switch event.Step {
	case StepCreate:
		event.Ref = step.Create.Ref
		c := h.factory.New(step.Create.FirstName, step.Create.LastName, step.Create.Phone, step.Create.Email)
		h.refIDs[event.Ref] = c.ID
		h.contacts[event.Ref] = c

		patches, err := document.Track(h.doc, func(d *document.Doc) error {
			return document.PutContact(d, c)
		})
		if err != nil {
			return err
		}
		event.Patches = len(patches)
		results, runErr = h.engine.ApplyDiff(ctx, patches)

	case StepUpdate:
		event.Ref = step.Update.Ref
		c, ok := h.contacts[event.Ref]
		if !ok {
			return fmt.Errorf("update of unknown ref %q", event.Ref)
		}
		applySet(&c, step.Update.Set)
		c.TouchAt(h.clock)
		h.contacts[event.Ref] = c

		patches, err := document.Track(h.doc, func(d *document.Doc) error {
			return document.PutContact(d, c)
		})
		if err != nil {
			return err
		}
		event.Patches = len(patches)
		results, runErr = h.engine.ApplyDiff(ctx, patches)

	case StepDelete:
		event.Ref = step.Delete.Ref
		id := h.refID(event.Ref)
		delete(h.contacts, event.Ref)

		patches, err := document.Track(h.doc, func(d *document.Doc) error {
			return document.DeleteContact(d, id)
		})
		if err != nil {
			return err
		}
		event.Patches = len(patches)
		results, runErr = h.engine.ApplyDiff(ctx, patches)

	case StepApply:
		patches, err := batchfile.FromFile(batchfile.File{Patches: h.expandRefs(step.Apply.Patches)})
		if err != nil {
			return err
		}
		event.Patches = len(patches)
		res, err := h.engine.Apply(ctx, patches)
		if err == nil {
			results = []reconcile.Result{res}
		}
		runErr = err

	case StepAdvance:
		// clock already moved
	}

	for _, r := range results {
		event.Actions = append(event.Actions, string(r.Action))
	}
	if runErr != nil {
		event.Error = errorCode(runErr)
	}
	result.AddTrace(event)

	checkExpect(index, step, event, runErr, result)

	h.logger.Info("scenario step completed",
		"step", event.Seq,
		"kind", event.Step,
		"ref", event.Ref,
		"patches", event.Patches,
		"actions", event.Actions,
	)
	return nil
}

// refID returns the ID bound to ref, allocating one on first use.
func (h *Harness) refID(ref string) uuid.UUID {
	id, ok := h.refIDs[ref]
	if !ok {
		id = h.ids.NewID()
		h.refIDs[ref] = id
	}
	return id
}

// expandRefs replaces "$ref" strings with the ref's ID.
func (h *Harness) expandRefs(entries []batchfile.Entry) []batchfile.Entry {
	expand := func(s string) string {
		if ref, ok := strings.CutPrefix(s, "$"); ok && ref != "" {
			return h.refID(ref).String()
		}
		return s
	}

	out := make([]batchfile.Entry, len(entries))
	for i, e := range entries {
		e.Key = expand(e.Key)
		e.Object = expand(e.Object)
		if s, ok := e.Value.(string); ok {
			e.Value = expand(s)
		}
		out[i] = e
	}
	return out
}

func applySet(c *contact.Contact, set map[string]string) {
	for field, value := range set {
		switch field {
		case contact.FieldFirstName:
			c.FirstName = value
		case contact.FieldLastName:
			c.LastName = value
		case contact.FieldPhone:
			c.Phone = value
		case contact.FieldEmail:
			c.Email = value
		}
	}
}

// errorCode maps an engine error to the code used in traces and expectations.
func errorCode(err error) string {
	if code := patch.CodeOf(err); code != "" {
		return string(code)
	}
	if errors.Is(err, store.ErrDuplicate) {
		return CodeDuplicate
	}
	return CodeError
}

func checkExpect(index int, step Step, event TraceEvent, runErr error, result *Result) {
	prefix := fmt.Sprintf("step %d (%s)", index+1, event.Step)

	var want Expect
	if step.Expect != nil {
		want = *step.Expect
	}

	switch {
	case want.Error == "" && runErr != nil:
		result.AddError(fmt.Sprintf("%s: unexpected error: %v", prefix, runErr))
	case want.Error != "" && runErr == nil:
		result.AddError(fmt.Sprintf("%s: expected error %s, got success", prefix, want.Error))
	case want.Error != "" && event.Error != want.Error:
		result.AddError(fmt.Sprintf("%s: expected error %s, got %s (%v)", prefix, want.Error, event.Error, runErr))
	}

	if want.Actions != nil && !slices.Equal(want.Actions, event.Actions) {
		result.AddError(fmt.Sprintf("%s: expected actions %v, got %v", prefix, want.Actions, event.Actions))
	}
}
