package gen

import (
	"context"
	"fmt"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/repox"
	"github.com/syssam/repox/compiler/load"
)

// GeneratedMethod is the generated body of one method.
type GeneratedMethod struct {
	Method   *Method  `msgpack:"method"`
	Category Category `msgpack:"category"`
	// Flush reports a body wrapped by the flush guarantee.
	Flush  bool    `msgpack:"flush,omitempty"`
	Locals Locals  `msgpack:"locals"`
	Body   []*Op   `msgpack:"body"`
	Policy *Policy `msgpack:"policy,omitempty"`

	imports []string
}

// Imports returns the import paths the body needs beyond those implied
// by the method signature.
func (g *GeneratedMethod) Imports() []string {
	return g.imports
}

func (g *GeneratedMethod) addImport(path string) {
	if !slices.Contains(g.imports, path) {
		g.imports = append(g.imports, path)
	}
}

// errReturn returns the statement propagating the error local.
func (g *GeneratedMethod) errReturn() *Op {
	if g.Method.Result == nil {
		return Return(Ident(g.Locals.Err))
	}
	return Return(Ident(g.Locals.Result), Ident(g.Locals.Err))
}

// Implementation is the generated implementation of a repository.
type Implementation struct {
	Name        string             `msgpack:"name"`
	Interface   string             `msgpack:"interface"`
	Constructor string             `msgpack:"constructor"`
	PkgPath     string             `msgpack:"pkg_path"`
	PkgName     string             `msgpack:"pkg_name"`
	Dir         string             `msgpack:"dir"`
	Binding     repox.Binding      `msgpack:"binding"`
	Base        *load.TypeRef      `msgpack:"base,omitempty"`
	Methods     []*GeneratedMethod `msgpack:"methods"`
	Skipped     []string           `msgpack:"skipped,omitempty"`
	Imports     []string           `msgpack:"imports,omitempty"`
}

// descriptor has the fields of Implementation without its methods, so
// msgpack does not call back into MarshalBinary.
type descriptor Implementation

// MarshalBinary encodes the implementation descriptor with msgpack.
func (impl *Implementation) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal((*descriptor)(impl))
}

// UnmarshalBinary decodes a descriptor encoded by MarshalBinary.
func (impl *Implementation) UnmarshalBinary(data []byte) error {
	return msgpack.Unmarshal(data, (*descriptor)(impl))
}

// Result is the outcome of generating one interface.
type Result struct {
	Interface string
	Pos       string
	// Impl holds the methods that were generated; it is nil when Err is set.
	Impl *Implementation
	// Diagnostics lists the methods that could not be generated.
	Diagnostics Diagnostics
	// Err is set when the whole interface was abandoned.
	Err error
}

// OK reports whether every method of the interface was generated.
func (r *Result) OK() bool {
	return r.Err == nil && len(r.Diagnostics) == 0
}

// Generate builds and generates every interface. Interfaces are
// independent: a failing interface never affects the others. The only
// error returned is the cancellation of ctx.
func Generate(ctx context.Context, cfg *Config, ifaces []*load.Interface) ([]*Result, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := cfg.logger()
	results := make([]*Result, len(ifaces))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.workers())
	for i, iface := range ifaces {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := &Result{Interface: iface.Name, Pos: iface.Pos}
			repo, err := NewRepository(iface)
			if err != nil {
				log.Warn("interface abandoned", zap.String("interface", iface.Name), zap.Error(err))
				res.Err = err
				results[i] = res
				return nil
			}
			res.Impl, res.Diagnostics = GenerateRepository(repo)
			for _, d := range res.Diagnostics {
				log.Warn("method not generated",
					zap.String("interface", iface.Name),
					zap.String("method", d.Method),
					zap.Stringer("kind", d.Kind),
					zap.String("message", d.Message),
				)
			}
			log.Debug("interface generated",
				zap.String("interface", iface.Name),
				zap.Int("methods", len(res.Impl.Methods)),
				zap.Int("diagnostics", len(res.Diagnostics)),
				zap.Strings("skipped", res.Impl.Skipped),
			)
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// GenerateRepository generates the methods of repo. Every method yields
// either a generated body or a diagnostic, never both.
func GenerateRepository(repo *Repository) (*Implementation, Diagnostics) {
	impl := &Implementation{
		Name:        repo.Impl,
		Interface:   repo.Name,
		Constructor: "New" + pascal(repo.Name),
		PkgPath:     repo.PkgPath,
		PkgName:     repo.PkgName,
		Dir:         repo.Dir,
		Binding:     repo.Binding,
		Base:        repo.Base,
		Skipped:     repo.Skipped,
		Imports:     []string{RepoxPkg},
	}
	var diags Diagnostics
	for _, m := range repo.Methods {
		g, err := GenerateMethod(repo.Impl, m)
		if err != nil {
			err.Interface = repo.Name
			diags.Add(err)
			continue
		}
		for _, p := range g.imports {
			if !slices.Contains(impl.Imports, p) {
				impl.Imports = append(impl.Imports, p)
			}
		}
		impl.Methods = append(impl.Methods, g)
	}
	return impl, diags
}

// GenerateMethod classifies m and generates its body for the
// implementation type impl.
func GenerateMethod(impl string, m *Method) (*GeneratedMethod, *MethodError) {
	c, err := Classify(m)
	if err != nil {
		return nil, err
	}
	if c.Category != Passthrough && !m.ReturnsError {
		return nil, NewMethodError(MissingErrorResult, m, "%s must return error as its last result", m.Name)
	}
	g := &GeneratedMethod{
		Method:   m,
		Category: c.Category,
		Flush:    c.Flush,
		Locals:   newLocals(impl, m),
		Policy:   m.Transactional,
	}
	body, err := c.rule.generate(g)
	if err != nil {
		return nil, err
	}
	if g.Flush {
		body = []*Op{Ensure(MethodCall(Session(), "Flush", Ctx()), body...)}
	}
	g.Body = body
	return g, nil
}

// String returns a readable summary of the generated method.
func (g *GeneratedMethod) String() string {
	s := fmt.Sprintf("%s (%s", g.Method.Name, g.Category)
	if g.Flush {
		s += ", flush"
	}
	return s + ")"
}
