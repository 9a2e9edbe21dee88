package iso8583

import (
	"errors"
	"fmt"
)

// ErrUnknownProvider is returned by the table registry when no source has
// been registered under the requested provider name.
var ErrUnknownProvider = errors.New("unknown field table provider")

// ProtocolError reports damage to the message structure itself: a malformed
// frame, a body shorter than the bitmap promises, trailing bytes after the
// last field, or a set bitmap index with no field definition. A ProtocolError
// is fatal to the connection that produced the bytes; the caller is expected
// to close and re-establish it.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("iso8583: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("iso8583: %s", e.Op)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func protocolErrorf(format string, args ...any) *ProtocolError {
	return &ProtocolError{Op: fmt.Sprintf(format, args...)}
}

// FieldError reports a failure scoped to a single field: a value that does
// not satisfy its definition, a variable-length prefix exceeding the declared
// maximum, or a character outside the field's alphabet. A FieldError is fatal
// to the current message only; unrelated messages on the same connection are
// unaffected.
type FieldError struct {
	Field int
	Op    string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("iso8583: field %d: %s: %v", e.Field, e.Op, e.Err)
	}
	return fmt.Sprintf("iso8583: field %d: %s", e.Field, e.Op)
}

func (e *FieldError) Unwrap() error { return e.Err }

func fieldErrorf(field int, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Op: fmt.Sprintf(format, args...)}
}

// TableError reports a field-definition source that could not be parsed.
// Line is 1-based and refers to the source file; 0 means the position is
// unknown (for example a JSON document that failed to unmarshal).
type TableError struct {
	Provider string
	Line     int
	Err      error
}

func (e *TableError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("field table %q: line %d: %v", e.Provider, e.Line, e.Err)
	}
	return fmt.Sprintf("field table %q: %v", e.Provider, e.Err)
}

func (e *TableError) Unwrap() error { return e.Err }
