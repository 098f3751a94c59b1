package repox

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"iter"
	"reflect"
	"time"
)

// CreateNamedQuery returns an untyped handle for the named query.
func CreateNamedQuery(ctx context.Context, s Session, name string) (Query, error) {
	return s.CreateNamedQuery(ctx, name, nil)
}

// TypedQuery is a query whose results are of element type T.
type TypedQuery[T any] struct {
	Query
}

// CreateTypedQuery returns a handle for the named query with results of type T.
func CreateTypedQuery[T any](ctx context.Context, s Session, name string) (*TypedQuery[T], error) {
	q, err := s.CreateNamedQuery(ctx, name, reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return &TypedQuery[T]{Query: q}, nil
}

// ResultList executes the query and materializes its results.
func (q *TypedQuery[T]) ResultList(ctx context.Context) ([]T, error) {
	vs, err := q.Query.ResultList(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]T, 0, len(vs))
	for _, v := range vs {
		e, err := as[T](v)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, nil
}

// ResultStream executes the query and yields its results lazily.
func (q *TypedQuery[T]) ResultStream(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for v, err := range q.Query.ResultStream(ctx) {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			e, err := as[T](v)
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}

// ExecuteUpdate executes q and returns the affected row count as N.
func ExecuteUpdate[N ~int | ~int32 | ~int64](ctx context.Context, q Query) (N, error) {
	n, err := q.ExecuteUpdate(ctx)
	return N(n), err
}

// SingleResult reduces seq to at most one value. It stops pulling as soon
// as a second element is observed and reports a *NonUniqueResultError.
func SingleResult[T any](seq iter.Seq2[T, error]) (sql.Null[T], error) {
	var res sql.Null[T]
	for v, err := range seq {
		if err != nil {
			return sql.Null[T]{}, err
		}
		if res.Valid {
			return sql.Null[T]{}, NewNonUniqueResultError(label[T]())
		}
		res = sql.Null[T]{V: v, Valid: true}
	}
	return res, nil
}

// SingleResultInt16 is SingleResult for sql.NullInt16 results.
func SingleResultInt16(seq iter.Seq2[int16, error]) (sql.NullInt16, error) {
	v, err := SingleResult(seq)
	return sql.NullInt16{Int16: v.V, Valid: v.Valid}, err
}

// SingleResultInt32 is SingleResult for sql.NullInt32 results.
func SingleResultInt32(seq iter.Seq2[int32, error]) (sql.NullInt32, error) {
	v, err := SingleResult(seq)
	return sql.NullInt32{Int32: v.V, Valid: v.Valid}, err
}

// SingleResultInt64 is SingleResult for sql.NullInt64 results.
func SingleResultInt64(seq iter.Seq2[int64, error]) (sql.NullInt64, error) {
	v, err := SingleResult(seq)
	return sql.NullInt64{Int64: v.V, Valid: v.Valid}, err
}

// SingleResultFloat64 is SingleResult for sql.NullFloat64 results.
func SingleResultFloat64(seq iter.Seq2[float64, error]) (sql.NullFloat64, error) {
	v, err := SingleResult(seq)
	return sql.NullFloat64{Float64: v.V, Valid: v.Valid}, err
}

// SingleResultByte is SingleResult for sql.NullByte results.
func SingleResultByte(seq iter.Seq2[byte, error]) (sql.NullByte, error) {
	v, err := SingleResult(seq)
	return sql.NullByte{Byte: v.V, Valid: v.Valid}, err
}

// SingleResultBool is SingleResult for sql.NullBool results.
func SingleResultBool(seq iter.Seq2[bool, error]) (sql.NullBool, error) {
	v, err := SingleResult(seq)
	return sql.NullBool{Bool: v.V, Valid: v.Valid}, err
}

// SingleResultString is SingleResult for sql.NullString results.
func SingleResultString(seq iter.Seq2[string, error]) (sql.NullString, error) {
	v, err := SingleResult(seq)
	return sql.NullString{String: v.V, Valid: v.Valid}, err
}

// SingleResultTime is SingleResult for sql.NullTime results.
func SingleResultTime(seq iter.Seq2[time.Time, error]) (sql.NullTime, error) {
	v, err := SingleResult(seq)
	return sql.NullTime{Time: v.V, Valid: v.Valid}, err
}

// ValueOrNil unwraps an optional parameter for binding: the value when
// present, nil otherwise.
func ValueOrNil[T any](v sql.Null[T]) any {
	if !v.Valid {
		return nil
	}
	return v.V
}

// OrElseNull unwraps one of the database/sql nullable scalars for binding:
// the scalar when valid, nil otherwise.
func OrElseNull(v driver.Valuer) any {
	switch n := v.(type) {
	case sql.NullInt16:
		return nullable(n.Int16, n.Valid)
	case sql.NullInt32:
		return nullable(n.Int32, n.Valid)
	case sql.NullInt64:
		return nullable(n.Int64, n.Valid)
	case sql.NullFloat64:
		return nullable(n.Float64, n.Valid)
	case sql.NullByte:
		return nullable(n.Byte, n.Valid)
	case sql.NullBool:
		return nullable(n.Bool, n.Valid)
	case sql.NullString:
		return nullable(n.String, n.Valid)
	case sql.NullTime:
		return nullable(n.Time, n.Valid)
	case nil:
		return nil
	}
	dv, err := v.Value()
	if err != nil {
		return nil
	}
	return dv
}

func nullable[T any](v T, valid bool) any {
	if !valid {
		return nil
	}
	return v
}
