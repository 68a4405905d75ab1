package reconcile

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contactsync/internal/contact"
	"github.com/roach88/contactsync/internal/lock"
	"github.com/roach88/contactsync/internal/patch"
	"github.com/roach88/contactsync/internal/store"
)

func TestApply_InsertsNewContact(t *testing.T) {
	ctx := context.Background()
	e, s := setupTestEngine(t)
	c := testContact("John", "Doe")

	res, err := e.Apply(ctx, patch.Encode(c))
	require.NoError(t, err)
	assert.Equal(t, ActionInserted, res.Action)
	assert.Equal(t, c.ID, res.ID)

	got, ok, err := s.Find(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, c, got)
}

func TestApply_UpdatePreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	e, s := setupTestEngine(t)
	c := testContact("John", "Doe")

	_, err := e.Apply(ctx, patch.Encode(c))
	require.NoError(t, err)

	modified := c
	modified.Phone = "555-987-6543"
	modified.Email = "john.d@company.com"
	modified.CreatedAt = 42
	modified.UpdatedAt = c.UpdatedAt + 1000

	res, err := e.Apply(ctx, patch.Encode(modified))
	require.NoError(t, err)
	assert.Equal(t, Result{Action: ActionUpdated, ID: c.ID}, res)

	got, ok, err := s.Find(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "555-987-6543", got.Phone)
	assert.Equal(t, "john.d@company.com", got.Email)
	assert.Equal(t, modified.UpdatedAt, got.UpdatedAt)
	assert.Equal(t, c.CreatedAt, got.CreatedAt, "created_at must survive updates")
}

func TestApply_IdempotentUpsert(t *testing.T) {
	ctx := context.Background()
	e, s := setupTestEngine(t)
	c := testContact("John", "Doe")
	batch := patch.Encode(c)

	first, err := e.Apply(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, ActionInserted, first.Action)

	second, err := e.Apply(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, second.Action)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _, err := s.Find(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestApply_DeleteRemovesRow(t *testing.T) {
	ctx := context.Background()
	e, s := setupTestEngine(t)
	c := testContact("John", "Doe")

	_, err := e.Apply(ctx, patch.Encode(c))
	require.NoError(t, err)

	res, err := e.Apply(ctx, patch.EncodeRemoval(c.ID))
	require.NoError(t, err)
	assert.Equal(t, ActionDeleted, res.Action)

	_, ok, err := s.Find(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApply_DeleteAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	e, s := setupTestEngine(t)
	id := uuid.New()

	res, err := e.Apply(ctx, patch.EncodeRemoval(id))
	require.NoError(t, err)
	assert.Equal(t, ActionNoop, res.Action)
	assert.Equal(t, id, res.ID)

	// Repeating is equally harmless.
	res, err = e.Apply(ctx, patch.EncodeRemoval(id))
	require.NoError(t, err)
	assert.Equal(t, ActionNoop, res.Action)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestApply_EmptyBatchIsNoop(t *testing.T) {
	e, s := setupTestEngine(t)

	res, err := e.Apply(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, ActionNoop, res.Action)
	assert.Equal(t, uuid.Nil, res.ID)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestApply_ParseErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	e := New(repo)
	c := testContact("John", "Doe")

	tests := []struct {
		name  string
		batch []patch.Patch
		code  patch.ErrorCode
	}{
		{
			name:  "field before container",
			batch: []patch.Patch{patch.PutField{Object: c.ID.String(), Key: contact.FieldFirstName, Value: patch.Str("John")}},
			code:  patch.CodeMalformedBatch,
		},
		{
			name:  "bad identifier",
			batch: []patch.Patch{patch.PutObject{Key: "not-a-uuid"}},
			code:  patch.CodeInvalidIdentifier,
		},
		{
			name: "bad timestamp",
			batch: append(patch.Encode(c), patch.PutField{
				Object: c.ID.String(), Key: contact.FieldCreatedAt, Value: patch.Str("yesterday"),
			}),
			code: patch.CodeInvalidTimestamp,
		},
		{
			name:  "missing names",
			batch: []patch.Patch{patch.PutObject{Key: c.ID.String()}},
			code:  patch.CodeMissingRequiredField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Apply(ctx, tt.batch)
			require.Error(t, err)
			assert.True(t, patch.IsParseError(err))
			assert.Equal(t, tt.code, patch.CodeOf(err))
		})
	}

	assert.Zero(t, repo.count("find"))
	assert.Zero(t, repo.count("insert"))
	assert.Zero(t, repo.count("update"))
	assert.Zero(t, repo.count("delete"))
}

func TestReconcile_StorageErrorPropagates(t *testing.T) {
	ctx := context.Background()
	c := testContact("John", "Doe")

	for _, op := range []string{"find", "insert", "update", "delete"} {
		t.Run(op, func(t *testing.T) {
			repo := newFakeRepo()
			e := New(repo)

			change := patch.Upsert(c)
			switch op {
			case "update":
				repo.rows[c.ID] = c
			case "delete":
				repo.rows[c.ID] = c
				change = patch.Remove(c.ID)
			}
			repo.failOn = op

			_, err := e.Reconcile(ctx, change)
			require.Error(t, err)
			assert.ErrorIs(t, err, errInjected)
			assert.True(t, IsStorageError(err))

			var re *Error
			require.ErrorAs(t, err, &re)
			assert.Equal(t, op, re.Op)
			assert.Equal(t, c.ID, re.ID)

			// No retry.
			assert.Equal(t, 1, repo.count(op))
		})
	}
}

func TestReconcile_FindFailureSkipsWrite(t *testing.T) {
	repo := newFakeRepo()
	repo.failOn = "find"
	e := New(repo)

	_, err := e.Reconcile(context.Background(), patch.Upsert(testContact("John", "Doe")))
	require.Error(t, err)
	assert.Zero(t, repo.count("insert"))
	assert.Zero(t, repo.count("update"))
}

func TestReconcile_RejectsIncompleteContact(t *testing.T) {
	repo := newFakeRepo()
	e := New(repo)
	c := testContact("John", "")

	_, err := e.Reconcile(context.Background(), patch.Upsert(c))
	require.Error(t, err)
	assert.ErrorIs(t, err, patch.ErrMissingRequiredField)
	assert.Zero(t, repo.count("find"))
}

func TestReconcile_UnknownChangeKind(t *testing.T) {
	e := New(newFakeRepo())

	_, err := e.Reconcile(context.Background(), patch.Change{ID: uuid.New()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownChange)
}

func TestReconcile_InsertRaceSurfacesDuplicate(t *testing.T) {
	repo := newFakeRepo()
	repo.hideRows = true // both callers see Absent
	e := New(repo)
	c := testContact("John", "Doe")

	_, err := e.Reconcile(context.Background(), patch.Upsert(c))
	require.NoError(t, err)

	_, err = e.Reconcile(context.Background(), patch.Upsert(c))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestReconcile_LockerSerializesSameID(t *testing.T) {
	ctx := context.Background()
	e, s := setupTestEngine(t, WithLocker(lock.NewLocal()))
	c := testContact("John", "Doe")

	const workers = 8
	results := make([]Result, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.Apply(ctx, patch.Encode(c))
		}(i)
	}
	wg.Wait()

	inserted := 0
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		if results[i].Action == ActionInserted {
			inserted++
		}
	}
	assert.Equal(t, 1, inserted)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestApplyDiff_AppliesEachContact(t *testing.T) {
	ctx := context.Background()
	e, s := setupTestEngine(t)
	a := testContact("Amy", "Adams")
	b := testContact("Bob", "Brown")

	var diff []patch.Patch
	diff = append(diff, patch.Encode(a)...)
	diff = append(diff, patch.Encode(b)...)
	diff = append(diff, patch.PutObject{Key: "bogus"})

	results, err := e.ApplyDiff(ctx, diff)
	require.Error(t, err)
	assert.Equal(t, patch.CodeInvalidIdentifier, patch.CodeOf(err))
	require.Len(t, results, 2)
	assert.Equal(t, ActionInserted, results[0].Action)
	assert.Equal(t, ActionInserted, results[1].Action)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestContacts_OrderedByName(t *testing.T) {
	ctx := context.Background()
	e, _ := setupTestEngine(t)

	for _, c := range []contact.Contact{
		testContact("Zed", "Adams"),
		testContact("Bob", "Brown"),
		testContact("Amy", "Adams"),
	} {
		_, err := e.Apply(ctx, patch.Encode(c))
		require.NoError(t, err)
	}

	got, err := e.Contacts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Amy Adams", got[0].FullName())
	assert.Equal(t, "Zed Adams", got[1].FullName())
	assert.Equal(t, "Bob Brown", got[2].FullName())
}

func TestEngine_LogsMutations(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e, _ := setupTestEngine(t, WithLogger(logger))
	c := testContact("John", "Doe")

	_, err := e.Apply(ctx, patch.Encode(c))
	require.NoError(t, err)
	_, err = e.Apply(ctx, patch.Encode(c))
	require.NoError(t, err)
	_, err = e.Apply(ctx, patch.EncodeRemoval(c.ID))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `msg="inserted contact"`)
	assert.Contains(t, out, `msg="updated contact"`)
	assert.Contains(t, out, `msg="deleted contact"`)
	assert.Contains(t, out, "first_name=John")
	assert.Contains(t, out, "id="+c.ID.String())
}
