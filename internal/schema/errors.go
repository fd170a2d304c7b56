package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by lookups when no object matches.
	ErrNotFound = errors.New("object not found")

	// ErrInternal is returned when the global index and the tree disagree.
	ErrInternal = errors.New("internal schema inconsistency")

	// ErrInvalidStatus is returned when two status flags cannot be combined.
	ErrInvalidStatus = errors.New("invalid status combination")

	// ErrDuplicate is returned when a collection already holds the key.
	ErrDuplicate = errors.New("duplicate object")
)

// SchemaError is the user-facing error raised by acquisition and comparison.
// It carries the failing operation and the original cause.
type SchemaError struct {
	Op  string
	Err error
}

func (e *SchemaError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// WrapError wraps err in a SchemaError unless it already is one.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return err
	}
	return &SchemaError{Op: op, Err: err}
}

func notFound(kind, key string) error {
	return fmt.Errorf("%s %q: %w", kind, key, ErrNotFound)
}

func internal(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInternal)
}
