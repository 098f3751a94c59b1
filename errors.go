package repox

import (
	"errors"
	"fmt"
	"reflect"
)

// Standard sentinel errors for runtime operations.
var (
	// ErrNotFound is returned when a finder with a value result finds no entity.
	ErrNotFound = errors.New("repox: entity not found")

	// ErrNonUniqueResult is returned when a single-result query yields more
	// than one result.
	ErrNonUniqueResult = errors.New("repox: result not unique")

	// ErrResultType is returned when the session returns a value of an
	// unexpected type.
	ErrResultType = errors.New("repox: unexpected result type")
)

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	key   any
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.key != nil {
		return fmt.Sprintf("repox: %s not found (key=%v)", e.label, e.key)
	}
	return fmt.Sprintf("repox: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// Key returns the key that was searched for, if available.
func (e *NotFoundError) Key() any {
	return e.key
}

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithKey returns a new NotFoundError with the key that was searched for.
func NewNotFoundErrorWithKey(label string, key any) *NotFoundError {
	return &NotFoundError{label: label, key: key}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// NonUniqueResultError is returned by single-result reduction when a
// query produces more than one result.
type NonUniqueResultError struct {
	label string
}

// Error returns the error string.
func (e *NonUniqueResultError) Error() string {
	return fmt.Sprintf("repox: %s result not unique (got more than 1 result)", e.label)
}

// Is reports whether the target error matches NonUniqueResultError.
// This allows errors.Is(err, ErrNonUniqueResult) to return true.
func (e *NonUniqueResultError) Is(err error) bool {
	return err == ErrNonUniqueResult
}

// Label returns the element label.
func (e *NonUniqueResultError) Label() string {
	return e.label
}

// NewNonUniqueResultError returns a new NonUniqueResultError for the given element type.
func NewNonUniqueResultError(label string) *NonUniqueResultError {
	return &NonUniqueResultError{label: label}
}

// IsNonUniqueResult returns true if the error is a NonUniqueResultError.
func IsNonUniqueResult(err error) bool {
	if err == nil {
		return false
	}
	var e *NonUniqueResultError
	return errors.As(err, &e) || errors.Is(err, ErrNonUniqueResult)
}

// ResultTypeError represents a session result that cannot be converted
// to the type a repository method declares.
type ResultTypeError struct {
	Want reflect.Type
	Got  reflect.Type
}

// Error returns the error string.
func (e *ResultTypeError) Error() string {
	return fmt.Sprintf("repox: unexpected result type %v, want %v", e.Got, e.Want)
}

// Is reports whether the target error matches ResultTypeError.
func (e *ResultTypeError) Is(err error) bool {
	return err == ErrResultType
}

// NewResultTypeError returns a new ResultTypeError.
func NewResultTypeError(want reflect.Type, got any) *ResultTypeError {
	return &ResultTypeError{Want: want, Got: reflect.TypeOf(got)}
}

// IsResultTypeError returns true if the error is a ResultTypeError.
func IsResultTypeError(err error) bool {
	if err == nil {
		return false
	}
	var e *ResultTypeError
	return errors.As(err, &e)
}

// label returns a short name for T used in error messages.
func label[T any]() string {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
