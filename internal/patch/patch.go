package patch

import (
	"fmt"
	"strconv"
)

// Patch is one change between two document states.
type Patch interface {
	isPatch()
	String() string
}

// PutObject creates (or replaces) the container named Key at the root.
// For contacts Key is the contact ID.
type PutObject struct {
	Key string
}

// PutField sets Key to Value inside the container named Object.
type PutField struct {
	Object string
	Key    string
	Value  Scalar
}

// RemoveObject removes the container named Key from the root.
type RemoveObject struct {
	Key string
}

func (PutObject) isPatch()    {}
func (PutField) isPatch()     {}
func (RemoveObject) isPatch() {}

func (p PutObject) String() string {
	return fmt.Sprintf("put_object %s", p.Key)
}

func (p PutField) String() string {
	return fmt.Sprintf("put_field %s.%s = %s", p.Object, p.Key, p.Value)
}

func (p RemoveObject) String() string {
	return fmt.Sprintf("remove_object %s", p.Key)
}

// ScalarKind identifies the type held by a Scalar.
type ScalarKind uint8

const (
	KindNull ScalarKind = iota
	KindString
	KindInt
)

func (k ScalarKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	default:
		return fmt.Sprintf("ScalarKind(%d)", uint8(k))
	}
}

// Scalar is a leaf value in the document. The zero value is null.
type Scalar struct {
	kind ScalarKind
	str  string
	num  int64
}

// Str returns a string scalar.
func Str(s string) Scalar {
	return Scalar{kind: KindString, str: s}
}

// Int returns an integer scalar.
func Int(n int64) Scalar {
	return Scalar{kind: KindInt, num: n}
}

// Kind returns the scalar's type.
func (s Scalar) Kind() ScalarKind {
	return s.kind
}

// AsString returns the string value and whether s holds a string.
func (s Scalar) AsString() (string, bool) {
	return s.str, s.kind == KindString
}

// AsInt returns the integer value and whether s holds an integer.
func (s Scalar) AsInt() (int64, bool) {
	return s.num, s.kind == KindInt
}

// String renders the scalar for logs: strings quoted, ints bare.
func (s Scalar) String() string {
	switch s.kind {
	case KindString:
		return strconv.Quote(s.str)
	case KindInt:
		return strconv.FormatInt(s.num, 10)
	default:
		return "null"
	}
}
