package gen

import (
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/syssam/repox/compiler/load"
)

// OpKind is the kind of a body statement.
type OpKind uint8

// Statement kinds.
const (
	// OpAssign assigns Value to Vars, declaring them when Define is set.
	OpAssign OpKind = iota + 1
	// OpExec evaluates Value as a statement.
	OpExec
	// OpIfErr runs Body when the error local is non-nil.
	OpIfErr
	// OpEnsure runs Body, then Release; the release error is joined
	// into the method error even when Body fails or panics.
	OpEnsure
	// OpReturn returns Values.
	OpReturn
)

// Op is one statement of a generated body.
type Op struct {
	Kind    OpKind   `msgpack:"kind"`
	Vars    []string `msgpack:"vars,omitempty"`
	Define  bool     `msgpack:"define,omitempty"`
	Value   *Expr    `msgpack:"value,omitempty"`
	Values  []*Expr  `msgpack:"values,omitempty"`
	Release *Expr    `msgpack:"release,omitempty"`
	Body    []*Op    `msgpack:"body,omitempty"`
}

// ExprKind is the kind of a body expression.
type ExprKind uint8

// Expression kinds.
const (
	// ExprIdent is a parameter or local.
	ExprIdent ExprKind = iota + 1
	// ExprContext is the method context, or a background context when the
	// method declares none.
	ExprContext
	// ExprSession is the session field of the implementation.
	ExprSession
	// ExprNil is the nil literal.
	ExprNil
	// ExprString is a string literal.
	ExprString
	// ExprInt is an integer literal.
	ExprInt
	// ExprConst is the package-level identifier Pkg.Name.
	ExprConst
	// ExprCall calls Pkg.Name, or the method Name of Recv.
	ExprCall
)

// Expr is an expression of a generated body.
type Expr struct {
	Kind     ExprKind        `msgpack:"kind"`
	Name     string          `msgpack:"name,omitempty"`
	Pkg      string          `msgpack:"pkg,omitempty"`
	Int      int             `msgpack:"int,omitempty"`
	Recv     *Expr           `msgpack:"recv,omitempty"`
	TypeArgs []*load.TypeRef `msgpack:"type_args,omitempty"`
	Args     []*Expr         `msgpack:"args,omitempty"`
}

// Ident returns a reference to the named parameter or local.
func Ident(name string) *Expr { return &Expr{Kind: ExprIdent, Name: name} }

// Ctx returns the context expression.
func Ctx() *Expr { return &Expr{Kind: ExprContext} }

// Session returns the session expression.
func Session() *Expr { return &Expr{Kind: ExprSession} }

// Nil returns the nil literal.
func Nil() *Expr { return &Expr{Kind: ExprNil} }

// String returns a string literal.
func String(s string) *Expr { return &Expr{Kind: ExprString, Name: s} }

// Int returns an integer literal.
func Int(i int) *Expr { return &Expr{Kind: ExprInt, Int: i} }

// Const returns the qualified identifier pkg.name.
func Const(pkg, name string) *Expr { return &Expr{Kind: ExprConst, Pkg: pkg, Name: name} }

// Call returns a call of the package function pkg.name.
func Call(pkg, name string, targs []*load.TypeRef, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Pkg: pkg, Name: name, TypeArgs: targs, Args: args}
}

// MethodCall returns a call of the method name on recv.
func MethodCall(recv *Expr, name string, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Recv: recv, Name: name, Args: args}
}

// Assign returns the statement vars = value, or vars := value.
func Assign(define bool, value *Expr, vars ...string) *Op {
	return &Op{Kind: OpAssign, Vars: vars, Define: define, Value: value}
}

// Exec returns the expression statement e.
func Exec(e *Expr) *Op { return &Op{Kind: OpExec, Value: e} }

// IfErr returns a statement running body when the error local is set.
func IfErr(body ...*Op) *Op { return &Op{Kind: OpIfErr, Body: body} }

// Ensure wraps body so release always runs after it.
func Ensure(release *Expr, body ...*Op) *Op {
	return &Op{Kind: OpEnsure, Release: release, Body: body}
}

// Return returns the return statement of values.
func Return(values ...*Expr) *Op { return &Op{Kind: OpReturn, Values: values} }

// String returns a Go-like rendering of the expression, mostly for tests
// and logs.
func (e *Expr) String() string {
	switch e.Kind {
	case ExprIdent:
		return e.Name
	case ExprContext:
		return "ctx"
	case ExprSession:
		return "session"
	case ExprNil:
		return "nil"
	case ExprString:
		return strconv.Quote(e.Name)
	case ExprInt:
		return strconv.Itoa(e.Int)
	case ExprConst:
		return path.Base(e.Pkg) + "." + e.Name
	case ExprCall:
		s := e.Name
		switch {
		case e.Recv != nil:
			s = e.Recv.String() + "." + s
		case e.Pkg != "":
			s = path.Base(e.Pkg) + "." + s
		}
		if len(e.TypeArgs) > 0 {
			s += "[" + join(e.TypeArgs, func(t *load.TypeRef) string { return t.String() }) + "]"
		}
		return s + "(" + join(e.Args, (*Expr).String) + ")"
	}
	return fmt.Sprintf("expr(%d)", e.Kind)
}

// String returns a one-line rendering of the statement.
func (o *Op) String() string {
	switch o.Kind {
	case OpAssign:
		tok := " = "
		if o.Define {
			tok = " := "
		}
		return strings.Join(o.Vars, ", ") + tok + o.Value.String()
	case OpExec:
		return o.Value.String()
	case OpIfErr:
		return "if err { " + join(o.Body, (*Op).String) + " }"
	case OpEnsure:
		return "ensure " + o.Release.String() + " { " + join(o.Body, (*Op).String) + " }"
	case OpReturn:
		return "return " + join(o.Values, (*Expr).String)
	}
	return fmt.Sprintf("op(%d)", o.Kind)
}

// Walk calls fn for each statement of ops in order, descending into nested bodies.
func Walk(ops []*Op, fn func(*Op)) {
	for _, o := range ops {
		fn(o)
		Walk(o.Body, fn)
	}
}

// Calls returns the names of all calls made by ops, in evaluation order.
func Calls(ops []*Op) []string {
	var names []string
	var visit func(e *Expr)
	visit = func(e *Expr) {
		if e == nil {
			return
		}
		visit(e.Recv)
		for _, a := range e.Args {
			visit(a)
		}
		if e.Kind == ExprCall {
			names = append(names, e.Name)
		}
	}
	Walk(ops, func(o *Op) {
		visit(o.Value)
		for _, v := range o.Values {
			visit(v)
		}
		visit(o.Release)
	})
	return names
}

// Locals are the names of the variables a generated body declares.
// They never collide with the method parameters.
type Locals struct {
	Receiver string `msgpack:"receiver"`
	Query    string `msgpack:"query"`
	Result   string `msgpack:"result"`
	Err      string `msgpack:"err"`
}

// newLocals picks the locals of m in the implementation type impl.
func newLocals(impl string, m *Method) Locals {
	taken := make([]string, 0, len(m.Params)+5)
	if m.Context != "" {
		taken = append(taken, m.Context)
	}
	for _, p := range m.Params {
		taken = append(taken, p.Name)
	}
	fresh := func(name string) string {
		for i := 1; ; i++ {
			n := name
			if i > 1 {
				n += strconv.Itoa(i)
			}
			if !slices.Contains(taken, n) {
				taken = append(taken, n)
				return n
			}
		}
	}
	return Locals{
		Receiver: fresh(receiver(impl)),
		Query:    fresh("q"),
		Result:   fresh("res"),
		Err:      fresh("err"),
	}
}

func join[T any](vs []T, f func(T) string) string {
	return strings.Join(lo.Map(vs, func(v T, _ int) string { return f(v) }), ", ")
}
