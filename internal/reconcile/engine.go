package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/contactsync/internal/contact"
	"github.com/roach88/contactsync/internal/lock"
	"github.com/roach88/contactsync/internal/patch"
)

// Repository is the persistent projection.
// Implemented by store.Store (SQLite) and postgres.Store.
type Repository interface {
	Find(ctx context.Context, id uuid.UUID) (contact.Contact, bool, error)
	Insert(ctx context.Context, c contact.Contact) error
	Update(ctx context.Context, c contact.Contact) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]contact.Contact, error)
}

// Action is the mutation a reconciliation performed.
type Action string

const (
	ActionInserted Action = "inserted"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionNoop     Action = "noop"
)

// Result describes one reconciliation.
type Result struct {
	Action Action
	ID     uuid.UUID
}

// Engine is the only component that decides between insert, update and
// delete on the projection.
//
// Thread-safety: Engine holds no mutable state and is safe for concurrent
// use; see the package documentation for same-ID races.
type Engine struct {
	repo   Repository
	locker lock.Locker
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocker serializes reconciliation per contact ID.
//
// Default: lock.Noop (no serialization).
func WithLocker(l lock.Locker) Option {
	return func(e *Engine) {
		if l != nil {
			e.locker = l
		}
	}
}

// WithLogger sets the logger for mutation events.
//
// Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine over repo.
func New(repo Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:   repo,
		locker: lock.Noop{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply parses one batch and reconciles it.
//
// An empty batch is a successful no-op. Parse failures are returned as
// *patch.ParseError and nothing is written.
func (e *Engine) Apply(ctx context.Context, batch []patch.Patch) (Result, error) {
	if len(batch) == 0 {
		return Result{Action: ActionNoop}, nil
	}

	change, err := patch.Parse(batch)
	if err != nil {
		e.logger.Warn("dropped patch batch", "patches", len(batch), "error", err)
		return Result{}, fmt.Errorf("apply batch: %w", err)
	}

	return e.Reconcile(ctx, change)
}

// ApplyDiff splits a diff into per-contact batches with patch.Group and
// applies each in order. A failing batch does not stop the others; all
// failures are joined into the returned error.
func (e *Engine) ApplyDiff(ctx context.Context, patches []patch.Patch) ([]Result, error) {
	var results []Result
	var errs []error

	for _, batch := range patch.Group(patches) {
		res, err := e.Apply(ctx, batch)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}

	return results, errors.Join(errs...)
}

// Reconcile performs the single mutation that brings the projection in line
// with change.
func (e *Engine) Reconcile(ctx context.Context, change patch.Change) (Result, error) {
	release, err := e.locker.Acquire(ctx, change.ID.String())
	if err != nil {
		return Result{}, &Error{Op: "lock", ID: change.ID, Err: err}
	}
	defer func() {
		if err := release(); err != nil {
			e.logger.Warn("release lock failed", "id", change.ID, "error", err)
		}
	}()

	switch change.Kind {
	case patch.ChangeUpsert:
		return e.upsert(ctx, change.Contact)
	case patch.ChangeRemove:
		return e.remove(ctx, change.ID)
	default:
		return Result{}, &Error{Op: "reconcile", ID: change.ID, Err: fmt.Errorf("%w: %s", ErrUnknownChange, change.Kind)}
	}
}

// Contacts lists the projection ordered by last name, first name.
func (e *Engine) Contacts(ctx context.Context) ([]contact.Contact, error) {
	contacts, err := e.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

func (e *Engine) upsert(ctx context.Context, c contact.Contact) (Result, error) {
	if !c.HasRequiredFields() {
		return Result{}, fmt.Errorf("upsert %s: %w", c.ID, patch.ErrMissingRequiredField)
	}

	_, exists, err := e.repo.Find(ctx, c.ID)
	if err != nil {
		return Result{}, &Error{Op: "find", ID: c.ID, Err: err}
	}

	if !exists {
		if err := e.repo.Insert(ctx, c); err != nil {
			return Result{}, &Error{Op: "insert", ID: c.ID, Err: err}
		}
		e.logger.Info("inserted contact", "id", c.ID, "first_name", c.FirstName, "last_name", c.LastName)
		return Result{Action: ActionInserted, ID: c.ID}, nil
	}

	if err := e.repo.Update(ctx, c); err != nil {
		return Result{}, &Error{Op: "update", ID: c.ID, Err: err}
	}
	e.logger.Info("updated contact", "id", c.ID, "first_name", c.FirstName, "last_name", c.LastName)
	return Result{Action: ActionUpdated, ID: c.ID}, nil
}

func (e *Engine) remove(ctx context.Context, id uuid.UUID) (Result, error) {
	deleted, err := e.repo.Delete(ctx, id)
	if err != nil {
		return Result{}, &Error{Op: "delete", ID: id, Err: err}
	}
	if !deleted {
		e.logger.Debug("delete of absent contact", "id", id)
		return Result{Action: ActionNoop, ID: id}, nil
	}
	e.logger.Info("deleted contact", "id", id)
	return Result{Action: ActionDeleted, ID: id}, nil
}
