package patch

import (
	"errors"
	"fmt"
)

// ParseError reports why a batch could not be turned into a Change.
// The batch is dropped as a whole; nothing is written.
type ParseError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Index is the position of the offending patch, -1 when the batch as a
	// whole is at fault.
	Index int

	// Key is the field or container key involved, if any.
	Key string

	// Err is the underlying cause (e.g. a strconv or uuid error).
	Err error
}

// ErrorCode categorizes parse errors.
type ErrorCode string

const (
	// CodeEmptyBatch indicates a batch with no patches.
	CodeEmptyBatch ErrorCode = "EMPTY_BATCH"

	// CodeMalformedBatch indicates a batch whose shape cannot describe a contact.
	CodeMalformedBatch ErrorCode = "MALFORMED_BATCH"

	// CodeInvalidIdentifier indicates a container key that is not a UUID.
	CodeInvalidIdentifier ErrorCode = "INVALID_IDENTIFIER"

	// CodeInvalidTimestamp indicates a timestamp that is not a base-10 int64.
	CodeInvalidTimestamp ErrorCode = "INVALID_TIMESTAMP"

	// CodeMissingRequiredField indicates first_name or last_name was never set.
	CodeMissingRequiredField ErrorCode = "MISSING_REQUIRED_FIELD"
)

// Sentinels for errors.Is. Matching is by Code only.
var (
	ErrEmptyBatch           = &ParseError{Code: CodeEmptyBatch, Index: -1}
	ErrMalformedBatch       = &ParseError{Code: CodeMalformedBatch, Index: -1}
	ErrInvalidIdentifier    = &ParseError{Code: CodeInvalidIdentifier, Index: -1}
	ErrInvalidTimestamp     = &ParseError{Code: CodeInvalidTimestamp, Index: -1}
	ErrMissingRequiredField = &ParseError{Code: CodeMissingRequiredField, Index: -1}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Message == "" {
		msg = string(e.Code)
	}
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s (patch %d)", msg, e.Index)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a ParseError with the same Code.
func (e *ParseError) Is(target error) bool {
	var t *ParseError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// IsParseError returns true if err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// CodeOf returns the ParseError code carried by err, or "" if none.
func CodeOf(err error) ErrorCode {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

func newParseError(code ErrorCode, index int, key string, err error, format string, args ...any) *ParseError {
	return &ParseError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Index:   index,
		Key:     key,
		Err:     err,
	}
}
