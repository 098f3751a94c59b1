package repox

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"reflect"

	"github.com/google/uuid"
)

// Find loads the entity of type T by key.
// It returns nil, nil when the session has no entity for key.
func Find[T any](ctx context.Context, s Session, key any) (*T, error) {
	v, err := s.Find(ctx, reflect.TypeFor[T](), key)
	if err != nil || v == nil {
		return nil, err
	}
	switch e := v.(type) {
	case *T:
		return e, nil
	case T:
		return &e, nil
	}
	return nil, NewResultTypeError(reflect.TypeFor[T](), v)
}

// OfNullable wraps the result of Find into an optional value.
// A nil entity becomes an invalid sql.Null.
func OfNullable[T any](v *T, err error) (sql.Null[T], error) {
	if err != nil || v == nil {
		return sql.Null[T]{}, err
	}
	return sql.Null[T]{V: *v, Valid: true}, nil
}

// ValueOf dereferences the result of Find.
// A nil entity is reported as a *NotFoundError.
func ValueOf[T any](v *T, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, NewNotFoundError(label[T]())
	}
	return *v, nil
}

// Merge merges entity into the session and returns the managed instance.
func Merge[T any](ctx context.Context, s Session, entity T) (T, error) {
	v, err := s.Merge(ctx, entity)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](v)
}

// IsNew reports whether entity has no identity yet. An identity is absent
// when it is nil, a nil pointer, the nil UUID, an invalid nullable value or
// a number equal to zero.
func IsNew(s Session, entity any) (bool, error) {
	id, err := s.Identifier(entity)
	if err != nil {
		return false, err
	}
	return isAbsent(id), nil
}

// Save persists entity when it is new and merges it otherwise.
// The persist path returns entity itself, the merge path returns the
// instance returned by the session.
func Save[T any](ctx context.Context, s Session, entity T) (T, error) {
	isNew, err := IsNew(s, entity)
	if err != nil {
		var zero T
		return zero, err
	}
	if !isNew {
		return Merge(ctx, s, entity)
	}
	if err := s.Persist(ctx, entity); err != nil {
		var zero T
		return zero, err
	}
	return entity, nil
}

// Finally runs release and joins its error into *err. It is meant to be
// deferred, so release also runs when the surrounding function panics.
//
//	defer repox.Finally(&err, func() error { return s.Flush(ctx) })
func Finally(err *error, release func() error) {
	if rerr := release(); rerr != nil {
		*err = errors.Join(*err, rerr)
	}
}

func isAbsent(id any) bool {
	if id == nil {
		return true
	}
	rv := reflect.ValueOf(id)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return isAbsent(rv.Elem().Interface())
	}
	if u, ok := id.(uuid.UUID); ok {
		return u == uuid.Nil
	}
	if v, ok := id.(driver.Valuer); ok {
		dv, err := v.Value()
		return err == nil && isAbsent(dv)
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	}
	return false
}

func as[T any](v any) (T, error) {
	var zero T
	switch x := v.(type) {
	case nil:
		return zero, nil
	case T:
		return x, nil
	case *T:
		if x == nil {
			return zero, nil
		}
		return *x, nil
	}
	return zero, NewResultTypeError(reflect.TypeFor[T](), v)
}
