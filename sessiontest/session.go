// Package sessiontest provides a recording repox.Session for tests.
package sessiontest

import (
	"context"
	"fmt"
	"iter"
	"reflect"
	"sync"
	"time"

	"github.com/syssam/repox"
)

// Operation names recorded by Session.
const (
	OpFind        = "find"
	OpPersist     = "persist"
	OpMerge       = "merge"
	OpRemove      = "remove"
	OpFlush       = "flush"
	OpCreateQuery = "createNamedQuery"
)

// Call is one recorded session operation.
type Call struct {
	Op     string
	Type   reflect.Type // find and createNamedQuery
	Key    any          // find
	Entity any          // persist, merge, remove
	Query  string       // createNamedQuery
}

// Session is a repox.Session that records every call. Each operation can be
// overridden with the matching func field; the defaults succeed and find nothing.
type Session struct {
	FindFunc       func(ctx context.Context, entity reflect.Type, key any) (any, error)
	PersistFunc    func(ctx context.Context, entity any) error
	MergeFunc      func(ctx context.Context, entity any) (any, error)
	RemoveFunc     func(ctx context.Context, entity any) error
	FlushFunc      func(ctx context.Context) error
	IdentifierFunc func(entity any) (any, error)

	mu      sync.Mutex
	calls   []Call
	queries map[string]*Query
}

var _ repox.Session = (*Session)(nil)

// New returns an empty recording session.
func New() *Session {
	return &Session{queries: make(map[string]*Query)}
}

// AddQuery registers a named query and returns it for configuration.
func (s *Session) AddQuery(name string) *Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queries == nil {
		s.queries = make(map[string]*Query)
	}
	q := &Query{Name: name}
	s.queries[name] = q
	return q
}

// Calls returns a copy of the recorded calls in order.
func (s *Session) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Ops returns the names of the recorded operations in order.
func (s *Session) Ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := make([]string, len(s.calls))
	for i, c := range s.calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was called.
func (s *Session) Count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, c := range s.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (s *Session) record(c Call) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
}

// Find implements repox.Session.
func (s *Session) Find(ctx context.Context, entity reflect.Type, key any) (any, error) {
	s.record(Call{Op: OpFind, Type: entity, Key: key})
	if s.FindFunc != nil {
		return s.FindFunc(ctx, entity, key)
	}
	return nil, nil
}

// Persist implements repox.Session.
func (s *Session) Persist(ctx context.Context, entity any) error {
	s.record(Call{Op: OpPersist, Entity: entity})
	if s.PersistFunc != nil {
		return s.PersistFunc(ctx, entity)
	}
	return nil
}

// Merge implements repox.Session.
func (s *Session) Merge(ctx context.Context, entity any) (any, error) {
	s.record(Call{Op: OpMerge, Entity: entity})
	if s.MergeFunc != nil {
		return s.MergeFunc(ctx, entity)
	}
	return entity, nil
}

// Remove implements repox.Session.
func (s *Session) Remove(ctx context.Context, entity any) error {
	s.record(Call{Op: OpRemove, Entity: entity})
	if s.RemoveFunc != nil {
		return s.RemoveFunc(ctx, entity)
	}
	return nil
}

// Flush implements repox.Session.
func (s *Session) Flush(ctx context.Context) error {
	s.record(Call{Op: OpFlush})
	if s.FlushFunc != nil {
		return s.FlushFunc(ctx)
	}
	return nil
}

// Identifier implements repox.Session. Without IdentifierFunc every
// entity is reported as having no identity.
func (s *Session) Identifier(entity any) (any, error) {
	if s.IdentifierFunc != nil {
		return s.IdentifierFunc(entity)
	}
	return nil, nil
}

// CreateNamedQuery implements repox.Session. Unregistered names fail.
func (s *Session) CreateNamedQuery(_ context.Context, name string, result reflect.Type) (repox.Query, error) {
	s.record(Call{Op: OpCreateQuery, Query: name, Type: result})
	s.mu.Lock()
	q, ok := s.queries[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("sessiontest: no named query %q", name)
	}
	q.mu.Lock()
	q.Result = result
	q.mu.Unlock()
	return q, nil
}

// Query is a recording repox.Query.
type Query struct {
	Name string
	// Results are returned by ResultList and yielded by ResultStream.
	Results []any
	// Err fails every execution when set.
	Err error
	// Affected is returned by ExecuteUpdate.
	Affected int64

	mu       sync.Mutex
	Result   reflect.Type
	params   map[repox.Param]any
	units    map[repox.Param]repox.TemporalType
	keys     []repox.Param
	pulled   int
	executed int
}

var _ repox.Query = (*Query)(nil)

// Returning sets the results of q.
func (q *Query) Returning(results ...any) *Query {
	q.Results = results
	return q
}

// SetParameter implements repox.Query.
func (q *Query) SetParameter(key repox.Param, value any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.bind(key, value)
}

// SetTemporalParameter implements repox.Query.
func (q *Query) SetTemporalParameter(key repox.Param, value time.Time, unit repox.TemporalType) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.bind(key, unit.Truncate(value))
	if q.units == nil {
		q.units = make(map[repox.Param]repox.TemporalType)
	}
	q.units[key] = unit
}

func (q *Query) bind(key repox.Param, value any) {
	if q.params == nil {
		q.params = make(map[repox.Param]any)
	}
	if _, ok := q.params[key]; !ok {
		q.keys = append(q.keys, key)
	}
	q.params[key] = value
}

// Param returns the value bound to key.
func (q *Query) Param(key repox.Param) (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	v, ok := q.params[key]
	return v, ok
}

// Keys returns the bound parameter keys in binding order.
func (q *Query) Keys() []repox.Param {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]repox.Param(nil), q.keys...)
}

// Unit returns the temporal unit key was bound with.
func (q *Query) Unit(key repox.Param) (repox.TemporalType, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	u, ok := q.units[key]
	return u, ok
}

// Pulled returns how many results were consumed from ResultStream.
func (q *Query) Pulled() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pulled
}

// Executed returns how many times ExecuteUpdate ran.
func (q *Query) Executed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.executed
}

// ResultList implements repox.Query.
func (q *Query) ResultList(context.Context) ([]any, error) {
	if q.Err != nil {
		return nil, q.Err
	}
	return append([]any(nil), q.Results...), nil
}

// ResultStream implements repox.Query.
func (q *Query) ResultStream(context.Context) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		if q.Err != nil {
			yield(nil, q.Err)
			return
		}
		for _, v := range q.Results {
			q.mu.Lock()
			q.pulled++
			q.mu.Unlock()
			if !yield(v, nil) {
				return
			}
		}
	}
}

// ExecuteUpdate implements repox.Query.
func (q *Query) ExecuteUpdate(context.Context) (int64, error) {
	q.mu.Lock()
	q.executed++
	q.mu.Unlock()
	if q.Err != nil {
		return 0, q.Err
	}
	return q.Affected, nil
}
