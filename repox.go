// Package repox is the runtime used by generated repository implementations.
//
// A repository is a Go interface annotated with a //repox:repository directive.
// The repox generator produces a concrete type for it whose methods delegate
// to a Session: find-by-key, persist, merge, remove, flush and named queries.
// The helpers in this package are what those generated bodies call; they never
// open, close or scope sessions themselves.
package repox

import (
	"context"
	"fmt"
	"iter"
	"reflect"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Session is the persistence handle generated repositories delegate to.
// Implementations are single-threaded and owned by the caller.
type Session interface {
	// Find loads the entity of the given type by key.
	// It returns nil, nil when no entity exists for key.
	Find(ctx context.Context, entity reflect.Type, key any) (any, error)

	// Persist makes a new entity managed.
	Persist(ctx context.Context, entity any) error

	// Merge copies the state of entity onto its managed instance and
	// returns that instance, which may differ from entity.
	Merge(ctx context.Context, entity any) (any, error)

	// Remove deletes the entity.
	Remove(ctx context.Context, entity any) error

	// Flush synchronizes pending changes with the underlying store.
	Flush(ctx context.Context) error

	// Identifier returns the identity value of entity, or nil when
	// none has been assigned.
	Identifier(entity any) (any, error)

	// CreateNamedQuery returns a handle for the predefined query name.
	// A non-nil result type asks for results of that element type.
	CreateNamedQuery(ctx context.Context, name string, result reflect.Type) (Query, error)
}

// Query is a handle on a named query with its bound parameters.
type Query interface {
	// SetParameter binds value to the parameter identified by key.
	SetParameter(key Param, value any)

	// SetTemporalParameter binds a time value, truncated to unit.
	SetTemporalParameter(key Param, value time.Time, unit TemporalType)

	// ResultList executes the query and materializes its results.
	ResultList(ctx context.Context) ([]any, error)

	// ResultStream executes the query and yields its results lazily.
	// Stopping the iteration releases the underlying cursor.
	ResultStream(ctx context.Context) iter.Seq2[any, error]

	// ExecuteUpdate executes an update or delete statement and returns
	// the number of affected rows.
	ExecuteUpdate(ctx context.Context) (int64, error)
}

// Param identifies a query parameter, either by name or by 1-based position.
type Param struct {
	Name     string
	Position int
}

// Named returns a Param bound by name.
func Named(name string) Param {
	return Param{Name: name}
}

// Positional returns a Param bound by 1-based position.
func Positional(pos int) Param {
	return Param{Position: pos}
}

// IsNamed reports whether the parameter is bound by name.
func (p Param) IsNamed() bool {
	return p.Name != ""
}

// String returns the parameter as it appears in query text.
func (p Param) String() string {
	if p.IsNamed() {
		return ":" + p.Name
	}
	return "?" + strconv.Itoa(p.Position)
}

// TemporalType is the precision used when binding a time parameter.
type TemporalType uint8

// Temporal units.
const (
	TemporalDate TemporalType = iota + 1
	TemporalTime
	TemporalTimestamp
)

var temporalNames = map[TemporalType]string{
	TemporalDate:      "DATE",
	TemporalTime:      "TIME",
	TemporalTimestamp: "TIMESTAMP",
}

// String returns the unit keyword.
func (t TemporalType) String() string {
	if s, ok := temporalNames[t]; ok {
		return s
	}
	return "TemporalType(" + strconv.Itoa(int(t)) + ")"
}

// Ident returns the name of the exported constant for t.
func (t TemporalType) Ident() string {
	switch t {
	case TemporalDate:
		return "TemporalDate"
	case TemporalTime:
		return "TemporalTime"
	case TemporalTimestamp:
		return "TemporalTimestamp"
	}
	return ""
}

// ParseTemporalType parses a unit keyword, case-insensitively.
func ParseTemporalType(s string) (TemporalType, error) {
	upper := cases.Upper(language.Und).String(s)
	for t, name := range temporalNames {
		if name == upper {
			return t, nil
		}
	}
	return 0, fmt.Errorf("repox: unknown temporal type %q", s)
}

// Truncate reduces v to the precision of t.
func (t TemporalType) Truncate(v time.Time) time.Time {
	switch t {
	case TemporalDate:
		y, m, d := v.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, v.Location())
	case TemporalTime:
		return time.Date(1970, time.January, 1, v.Hour(), v.Minute(), v.Second(), 0, v.Location())
	}
	return v
}

// LifecycleMode is the lifetime of the session bound to a repository.
type LifecycleMode uint8

// Lifecycle modes.
const (
	TransactionScoped LifecycleMode = iota
	Extended
)

// String returns the directive keyword for m.
func (m LifecycleMode) String() string {
	if m == Extended {
		return "extended"
	}
	return "transaction"
}

// Ident returns the name of the exported constant for m.
func (m LifecycleMode) Ident() string {
	if m == Extended {
		return "Extended"
	}
	return "TransactionScoped"
}

// ParseLifecycleMode parses a directive keyword, case-insensitively.
// The empty string selects TransactionScoped.
func ParseLifecycleMode(s string) (LifecycleMode, error) {
	switch cases.Lower(language.Und).String(s) {
	case "", "transaction":
		return TransactionScoped, nil
	case "extended":
		return Extended, nil
	}
	return 0, fmt.Errorf("repox: unknown lifecycle mode %q", s)
}

// Binding describes the session a generated repository is wired to.
type Binding struct {
	// Name of the session binding, if any.
	Name string `json:"name,omitempty" msgpack:"name,omitempty"`
	// Unit is the persistence unit the session belongs to.
	Unit string `json:"unit,omitempty" msgpack:"unit,omitempty"`
	// Mode is the session lifetime.
	Mode LifecycleMode `json:"mode,omitempty" msgpack:"mode,omitempty"`
}

// SessionProvider resolves the session for a binding.
type SessionProvider interface {
	Session(Binding) Session
}

// SessionProviderFunc adapts a function to a SessionProvider.
type SessionProviderFunc func(Binding) Session

// Session calls f(b).
func (f SessionProviderFunc) Session(b Binding) Session {
	return f(b)
}

// StaticProvider returns a SessionProvider that always resolves to s.
func StaticProvider(s Session) SessionProvider {
	return SessionProviderFunc(func(Binding) Session { return s })
}
