// Package batchfile reads and writes patch batches stored on disk.
//
// Two formats are accepted, chosen by file extension:
//
//	.yaml .yml .json   decoded with yaml.v3 (unknown keys rejected)
//	.cue               evaluated with CUE
//
// Either way the data is unified with the embedded #Batch schema and must be
// concrete before any patch is produced, so a file that loads is always a
// well-formed sequence of put_object, put_field and remove_object entries.
// Whether the sequence forms a valid contact batch is decided later by
// patch.Parse.
package batchfile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/contactsync/internal/patch"
)

//go:embed schema.cue
var schemaSource string

const (
	opPutObject    = "put_object"
	opPutField     = "put_field"
	opRemoveObject = "remove_object"
)

// ErrUnsupportedFormat is returned by Load for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported batch file format")

// ErrSchema is wrapped by every schema validation failure.
var ErrSchema = errors.New("batch file does not match schema")

// File is the on-disk shape of a batch.
type File struct {
	Patches []Entry `yaml:"patches" json:"patches"`
}

// Entry is one patch. Which fields are set depends on Op.
type Entry struct {
	Op     string `yaml:"op" json:"op"`
	Object string `yaml:"object,omitempty" json:"object,omitempty"`
	Key    string `yaml:"key" json:"key"`
	Value  any    `yaml:"value,omitempty" json:"value,omitempty"`
}

// Load reads and validates the batch file at path.
func Load(path string) ([]patch.Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}

	patches, err := Parse(filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return patches, nil
}

// Parse decodes data in the format implied by name's extension.
func Parse(name string, data []byte) ([]patch.Patch, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return ParseYAML(data)
	case ".cue":
		return ParseCUE(name, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// ParseYAML decodes a YAML (or JSON) batch file.
func ParseYAML(data []byte) ([]patch.Patch, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return FromFile(f)
}

// FromFile validates an already decoded batch and converts it to patches.
func FromFile(f File) ([]patch.Patch, error) {
	if f.Patches == nil {
		f.Patches = []Entry{}
	}

	ctx := cuecontext.New()
	return fromValue(ctx, ctx.Encode(f))
}

// ParseCUE evaluates a CUE batch file. The file's top level must have the
// shape of #Batch; it may use any CUE expression to produce it.
func ParseCUE(name string, data []byte) ([]patch.Patch, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile cue: %w", err)
	}
	return fromValue(ctx, v)
}

// fromValue validates v against #Batch and converts it to patches.
func fromValue(ctx *cue.Context, v cue.Value) ([]patch.Patch, error) {
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	batch := schema.LookupPath(cue.ParsePath("#Batch")).Unify(v)
	if err := batch.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	list, err := batch.LookupPath(cue.ParsePath("patches")).List()
	if err != nil {
		return nil, fmt.Errorf("%w: patches: %v", ErrSchema, err)
	}

	var patches []patch.Patch
	for i := 0; list.Next(); i++ {
		p, err := entryPatch(list.Value())
		if err != nil {
			return nil, fmt.Errorf("%w: patches[%d]: %v", ErrSchema, i, err)
		}
		patches = append(patches, p)
	}
	return patches, nil
}

func entryPatch(v cue.Value) (patch.Patch, error) {
	op, err := v.LookupPath(cue.ParsePath("op")).String()
	if err != nil {
		return nil, fmt.Errorf("op: %w", err)
	}
	key, err := v.LookupPath(cue.ParsePath("key")).String()
	if err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}

	switch op {
	case opPutObject:
		return patch.PutObject{Key: key}, nil
	case opRemoveObject:
		return patch.RemoveObject{Key: key}, nil
	case opPutField:
		object, err := v.LookupPath(cue.ParsePath("object")).String()
		if err != nil {
			return nil, fmt.Errorf("object: %w", err)
		}
		value, err := scalarValue(v.LookupPath(cue.ParsePath("value")))
		if err != nil {
			return nil, fmt.Errorf("value: %w", err)
		}
		return patch.PutField{Object: object, Key: key, Value: value}, nil
	default:
		return nil, fmt.Errorf("unknown op %q", op)
	}
}

func scalarValue(v cue.Value) (patch.Scalar, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		return patch.Str(s), err
	case cue.IntKind:
		n, err := v.Int64()
		return patch.Int(n), err
	default:
		return patch.Scalar{}, fmt.Errorf("expected string or int, got %s", v.Kind())
	}
}

// Write encodes patches as a YAML batch file.
// Null scalars cannot be represented and are rejected.
func Write(w io.Writer, patches []patch.Patch) error {
	f := File{Patches: make([]Entry, 0, len(patches))}
	for i, p := range patches {
		e, err := toEntry(p)
		if err != nil {
			return fmt.Errorf("patch %d: %w", i, err)
		}
		f.Patches = append(f.Patches, e)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func toEntry(p patch.Patch) (Entry, error) {
	switch p := p.(type) {
	case patch.PutObject:
		return Entry{Op: opPutObject, Key: p.Key}, nil
	case patch.RemoveObject:
		return Entry{Op: opRemoveObject, Key: p.Key}, nil
	case patch.PutField:
		e := Entry{Op: opPutField, Object: p.Object, Key: p.Key}
		switch p.Value.Kind() {
		case patch.KindString:
			e.Value, _ = p.Value.AsString()
		case patch.KindInt:
			e.Value, _ = p.Value.AsInt()
		default:
			return Entry{}, fmt.Errorf("field %q: cannot write %s value", p.Key, p.Value.Kind())
		}
		return e, nil
	default:
		return Entry{}, fmt.Errorf("unknown patch type %T", p)
	}
}
