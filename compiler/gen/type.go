package gen

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/syssam/repox"
	"github.com/syssam/repox/compiler/load"
)

// Import paths referenced by generated code.
const (
	RepoxPkg   = "github.com/syssam/repox"
	ContextPkg = "context"
	SQLPkg     = "database/sql"
	IterPkg    = "iter"
	TimePkg    = "time"
)

// repositoryArgs are the keys accepted by the repository directive.
var repositoryArgs = []string{"unit", "name", "mode", "base", "impl"}

type (
	// Repository describes a repository interface and the session binding
	// of its implementation.
	Repository struct {
		Name    string
		PkgPath string
		PkgName string
		Dir     string
		Pos     string
		// Impl is the name of the implementation type.
		Impl string
		// Binding configures the session field of the implementation.
		Binding repox.Binding
		// Base is embedded into the implementation and provides the
		// default methods.
		Base *load.TypeRef
		// Methods to generate, in declaration order.
		Methods []*Method
		// Skipped lists default methods provided by Base.
		Skipped []string
	}

	// Method is the immutable descriptor of an interface method.
	Method struct {
		Name string
		Pos  string
		// Context is the name of the leading context.Context parameter,
		// empty when the method has none.
		Context string
		// Params excludes the context parameter.
		Params   []*Param
		Variadic bool
		// Result is the value result, nil for void.
		Result *load.TypeRef
		Shape  Shape
		// ReturnsError reports whether the last result is error.
		ReturnsError bool
		// Query is set for methods carrying a query directive.
		Query *QueryAnnotation
		// Transactional is the opaque transactional policy, if any.
		Transactional *Policy
		Embedded      bool

		// err is a descriptor-level problem reported instead of a body.
		err *MethodError
	}

	// Param is a method parameter.
	Param struct {
		Name    string
		Type    *load.TypeRef
		Binding BindingMode
		// Unnamed reports a parameter declared without a name.
		Unnamed bool
	}

	// BindingMode is how a query parameter is bound: plain, or temporal
	// with a unit.
	BindingMode struct {
		Temporal bool
		Unit     repox.TemporalType
	}

	// QueryAnnotation is the named query bound to a method.
	QueryAnnotation struct {
		ID    string
		Named bool
	}

	// Policy is transactional metadata, carried verbatim to the generated method.
	Policy struct {
		Raw   string
		Attrs map[string]string
	}
)

// NewRepository builds the descriptor of a loaded interface. Problems shared
// by the whole interface are returned as an *InterfaceError; method problems
// are kept on the method and reported during generation.
func NewRepository(iface *load.Interface) (*Repository, error) {
	fail := func(format string, args ...any) error {
		return NewInterfaceError(iface.Name, iface.Pos, fmt.Sprintf(format, args...), nil)
	}
	d := load.Find(iface.Directives, load.DirectiveRepository)
	if d == nil {
		return nil, fail("missing %srepository directive", load.Prefix)
	}
	if len(iface.Errs) > 0 {
		return nil, fail("%s", strings.Join(iface.Errs, "; "))
	}
	if ps := d.Positional(); len(ps) > 0 {
		return nil, fail("unexpected positional argument %q", ps[0])
	}
	for _, a := range d.Args {
		if !slices.Contains(repositoryArgs, a.Key) {
			return nil, fail("unknown argument %q, expected one of %s", a.Key, strings.Join(repositoryArgs, ", "))
		}
	}
	r := &Repository{
		Name:    iface.Name,
		PkgPath: iface.PkgPath,
		PkgName: iface.PkgName,
		Dir:     iface.Dir,
		Pos:     iface.Pos,
		Impl:    camel(iface.Name) + "Impl",
		Base:    iface.Base,
	}
	r.Binding.Unit, _ = d.Lookup("unit")
	r.Binding.Name, _ = d.Lookup("name")
	mode, _ := d.Lookup("mode")
	m, err := repox.ParseLifecycleMode(mode)
	if err != nil {
		return nil, NewInterfaceError(iface.Name, iface.Pos, "invalid session binding", err)
	}
	r.Binding.Mode = m
	if impl, ok := d.Lookup("impl"); ok {
		if !isIdent(impl) {
			return nil, fail("invalid implementation name %q", impl)
		}
		r.Impl = impl
	}
	if base, ok := d.Lookup("base"); ok && r.Base == nil {
		return nil, fail("unknown base type %q", base)
	}
	for _, lm := range iface.Methods {
		if lm.Default {
			r.Skipped = append(r.Skipped, lm.Name)
			continue
		}
		r.Methods = append(r.Methods, newMethod(lm))
	}
	return r, nil
}

func newMethod(lm *load.Method) *Method {
	m := &Method{
		Name:     lm.Name,
		Pos:      lm.Pos,
		Variadic: lm.Variadic,
		Embedded: lm.Embedded,
	}
	params := lm.Params
	if len(params) > 0 && params[0].Type.Is(ContextPkg, "Context") {
		m.Context = params[0].Name
		params = params[1:]
	}
	m.Params = lo.Map(params, func(p *load.Param, _ int) *Param {
		return &Param{Name: p.Name, Type: p.Type, Unnamed: p.Unnamed}
	})
	results := lm.Results
	if n := len(results); n > 0 && results[n-1].IsError() {
		m.ReturnsError = true
		results = results[:n-1]
	}
	switch len(results) {
	case 0:
	case 1:
		m.Result = results[0]
	default:
		m.err = NewMethodError(UnsupportedReturnType, m, "methods may return at most one value besides error")
	}
	m.Shape = ShapeOf(m.Result)
	if m.err == nil {
		m.err = m.applyDirectives(lm)
	}
	return m
}

func (m *Method) applyDirectives(lm *load.Method) *MethodError {
	if lm.Err != "" {
		return NewMethodError(InvalidDirective, m, "%s", lm.Err)
	}
	for _, d := range lm.Directives {
		switch d.Name {
		case load.DirectiveQuery:
			if m.Query != nil {
				return NewMethodError(InvalidDirective, m, "duplicate %squery directive", load.Prefix)
			}
			q := &QueryAnnotation{}
			if ps := d.Positional(); len(ps) > 0 {
				q.ID = ps[0]
			}
			if v, ok := d.Lookup("named"); ok {
				named, err := cast.ToBoolE(lo.Ternary(v == "", "true", v))
				if err != nil {
					return NewMethodError(InvalidDirective, m, "invalid named flag %q", v)
				}
				q.Named = named
			}
			m.Query = q
		case load.DirectiveTemporal:
			if len(d.Positional()) > 0 {
				return NewMethodError(InvalidDirective, m, "temporal binding expects param=UNIT arguments")
			}
			for _, a := range d.Args {
				p, ok := lo.Find(m.Params, func(p *Param) bool { return p.Name == a.Key })
				if !ok {
					return NewMethodError(InvalidDirective, m, "temporal binding for unknown parameter %q", a.Key)
				}
				unit, err := repox.ParseTemporalType(a.Value.Text())
				if err != nil {
					return NewMethodError(InvalidDirective, m, "parameter %q: %v", a.Key, err)
				}
				if !p.Type.Is(TimePkg, "Time") {
					return NewMethodError(UnsupportedTemporalTarget, m, "temporal parameter %s has type %s, want time.Time", p.Name, p.Type)
				}
				p.Binding = BindingMode{Temporal: true, Unit: unit}
			}
		case load.DirectiveTransactional:
			pol := &Policy{Raw: d.Raw}
			for _, a := range d.Args {
				if a.Positional != nil {
					continue
				}
				if pol.Attrs == nil {
					pol.Attrs = make(map[string]string)
				}
				pol.Attrs[a.Key] = a.Value.Text()
			}
			m.Transactional = pol
		default:
			return NewMethodError(InvalidDirective, m, "unknown directive %s%s", load.Prefix, d.Name)
		}
	}
	temporal := slices.ContainsFunc(m.Params, func(p *Param) bool { return p.Binding.Temporal })
	if temporal && m.Query == nil {
		return NewMethodError(InvalidDirective, m, "temporal bindings apply to %squery methods only", load.Prefix)
	}
	if m.Query != nil && m.Query.Named {
		if p, ok := lo.Find(m.Params, func(p *Param) bool { return p.Unnamed }); ok {
			return NewMethodError(InvalidDirective, m, "named query binds unnamed parameter %s", p.Name)
		}
	}
	return nil
}

// Err returns the descriptor-level problem of the method, if any.
func (m *Method) Err() *MethodError {
	return m.err
}

// Param returns the parameter with the given name.
func (m *Method) Param(name string) (*Param, bool) {
	return lo.Find(m.Params, func(p *Param) bool { return p.Name == name })
}
