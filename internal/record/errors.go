package record

import (
	"errors"
	"fmt"
)

// ErrMissing reports an absent required field.
var ErrMissing = errors.New("required field missing")

// MalformedInputError reports a record that cannot be decoded. It aborts the
// whole file's load.
type MalformedInputError struct {
	Path  string
	Line  int // 0 when the location is the whole file
	Field string
	Err   error
}

func (e *MalformedInputError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if e.Field != "" {
		return fmt.Sprintf("malformed input %s: field %q: %v", loc, e.Field, e.Err)
	}
	return fmt.Sprintf("malformed input %s: %v", loc, e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }
