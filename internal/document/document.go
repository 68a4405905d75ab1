package document

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/contactsync/internal/patch"
)

var (
	// ErrUnknownHeads is returned by Diff for heads this document never had,
	// or for an after that precedes before.
	ErrUnknownHeads = errors.New("unknown heads")

	// ErrUnknownObject is returned by Put for an object that was never created.
	ErrUnknownObject = errors.New("unknown object")
)

// Heads identifies a document state. Heads values are comparable.
type Heads struct {
	seq int
}

// Seq returns the number of changes applied in the captured state.
func (h Heads) Seq() int {
	return h.seq
}

// ObjID identifies a container. Each PutObject allocates a new one, so
// replacing a container at the same key yields a different ObjID.
type ObjID uint64

type opKind uint8

const (
	opPutObject opKind = iota + 1
	opPut
	opDelete
)

type op struct {
	kind  opKind
	key   string // root key for opPutObject/opDelete, field key for opPut
	obj   ObjID
	value patch.Scalar
}

// Doc is the change log plus its current state.
//
// Thread-safety: all methods are safe for concurrent use.
type Doc struct {
	mu      sync.Mutex
	ops     []op
	objKeys map[ObjID]string // container -> root key it was created under
	nextObj ObjID
}

// New creates an empty document.
func New() *Doc {
	return &Doc{objKeys: make(map[ObjID]string)}
}

// Heads captures the current state.
func (d *Doc) Heads() Heads {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Heads{seq: len(d.ops)}
}

// PutObject creates a new empty container at the root under key, replacing
// any container already there.
func (d *Doc) PutObject(key string) (ObjID, error) {
	if key == "" {
		return 0, fmt.Errorf("put object: empty key")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextObj++
	obj := d.nextObj
	d.objKeys[obj] = key
	d.ops = append(d.ops, op{kind: opPutObject, key: key, obj: obj})
	return obj, nil
}

// Put sets key to value inside obj.
func (d *Doc) Put(obj ObjID, key string, value patch.Scalar) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.objKeys[obj]; !ok {
		return fmt.Errorf("put %q: %w: %d", key, ErrUnknownObject, obj)
	}
	d.ops = append(d.ops, op{kind: opPut, key: key, obj: obj, value: value})
	return nil
}

// Delete removes the container at key from the root. Deleting a missing key
// is recorded but has no visible effect.
func (d *Doc) Delete(key string) error {
	if key == "" {
		return fmt.Errorf("delete: empty key")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.ops = append(d.ops, op{kind: opDelete, key: key})
	return nil
}

// Get returns a copy of the fields of the container currently at key.
func (d *Doc) Get(key string) (map[string]patch.Scalar, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.stateAt(len(d.ops))
	obj, ok := s.root[key]
	if !ok {
		return nil, false
	}
	out := make(map[string]patch.Scalar, len(s.objects[obj].fields))
	for k, v := range s.objects[obj].fields {
		out[k] = v
	}
	return out, true
}

// Keys returns the current root keys, sorted.
func (d *Doc) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.stateAt(len(d.ops))
	keys := make([]string, 0, len(s.root))
	for k := range s.root {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Diff describes how to get from the before state to the after state.
//
// Per root key, in the order the key was last touched:
//   - new or replaced container: PutObject then every field in first-set order
//   - same container: one PutField per changed or added field
//   - container gone: RemoveObject
//
// Keys whose visible state did not change produce nothing.
func (d *Doc) Diff(before, after Heads) ([]patch.Patch, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if before.seq < 0 || after.seq > len(d.ops) || before.seq > after.seq {
		return nil, fmt.Errorf("diff %d..%d: %w", before.seq, after.seq, ErrUnknownHeads)
	}

	b := d.stateAt(before.seq)
	a := d.stateAt(after.seq)

	keys := make([]string, 0)
	for key, seq := range a.touched {
		if seq > before.seq {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		si, sj := a.touched[keys[i]], a.touched[keys[j]]
		if si != sj {
			return si < sj
		}
		return keys[i] < keys[j]
	})

	var out []patch.Patch
	for _, key := range keys {
		out = append(out, diffKey(key, b, a)...)
	}
	return out, nil
}

func diffKey(key string, b, a *state) []patch.Patch {
	bobj, had := b.root[key]
	aobj, has := a.root[key]

	switch {
	case !has && !had:
		return nil

	case !has:
		return []patch.Patch{patch.RemoveObject{Key: key}}

	case !had || bobj != aobj:
		o := a.objects[aobj]
		out := make([]patch.Patch, 0, len(o.order)+1)
		out = append(out, patch.PutObject{Key: key})
		for _, f := range o.order {
			out = append(out, patch.PutField{Object: key, Key: f, Value: o.fields[f]})
		}
		return out

	default:
		prev := b.objects[bobj]
		o := a.objects[aobj]
		var out []patch.Patch
		for _, f := range o.order {
			old, ok := prev.fields[f]
			if ok && old == o.fields[f] {
				continue
			}
			out = append(out, patch.PutField{Object: key, Key: f, Value: o.fields[f]})
		}
		return out
	}
}

type object struct {
	fields map[string]patch.Scalar
	order  []string
}

type state struct {
	root    map[string]ObjID
	objects map[ObjID]*object
	touched map[string]int // root key -> seq of the last op affecting it
}

// stateAt replays the first n ops. Caller holds d.mu.
func (d *Doc) stateAt(n int) *state {
	s := &state{
		root:    make(map[string]ObjID),
		objects: make(map[ObjID]*object),
		touched: make(map[string]int),
	}

	for i, o := range d.ops[:n] {
		seq := i + 1
		switch o.kind {
		case opPutObject:
			s.root[o.key] = o.obj
			s.objects[o.obj] = &object{fields: make(map[string]patch.Scalar)}
			s.touched[o.key] = seq
		case opPut:
			obj, ok := s.objects[o.obj]
			if !ok {
				continue
			}
			if _, seen := obj.fields[o.key]; !seen {
				obj.order = append(obj.order, o.key)
			}
			obj.fields[o.key] = o.value
			if key := d.objKeys[o.obj]; s.root[key] == o.obj {
				s.touched[key] = seq
			}
		case opDelete:
			if _, ok := s.root[o.key]; ok {
				delete(s.root, o.key)
				s.touched[o.key] = seq
			}
		}
	}

	return s
}
