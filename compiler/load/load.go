// Package load reads repository interfaces from Go packages.
//
// An interface is a repository when its doc comment carries a
// //repox:repository directive. Its methods, including those of embedded
// interfaces, are converted into serializable descriptors that the
// generator consumes without access to go/types.
package load

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"
)

// Interface is a repository interface loaded from a Go package.
type Interface struct {
	Name    string `json:"name" msgpack:"name"`
	PkgPath string `json:"pkg_path" msgpack:"pkg_path"`
	PkgName string `json:"pkg_name" msgpack:"pkg_name"`
	// Dir is the directory of the package.
	Dir string `json:"dir,omitempty" msgpack:"dir,omitempty"`
	Pos string `json:"pos,omitempty" msgpack:"pos,omitempty"`
	// Directives attached to the interface declaration.
	Directives []*Directive `json:"directives,omitempty" msgpack:"directives,omitempty"`
	// Base is the type named by the base= argument, when it resolves.
	Base *TypeRef `json:"base,omitempty" msgpack:"base,omitempty"`
	// Methods in declaration order, own methods before embedded ones.
	Methods []*Method `json:"methods,omitempty" msgpack:"methods,omitempty"`
	// Errs holds directive errors that do not prevent loading.
	Errs []string `json:"errs,omitempty" msgpack:"errs,omitempty"`
}

// Method is a method of a repository interface.
type Method struct {
	Name       string       `json:"name" msgpack:"name"`
	Pos        string       `json:"pos,omitempty" msgpack:"pos,omitempty"`
	Params     []*Param     `json:"params,omitempty" msgpack:"params,omitempty"`
	Results    []*TypeRef   `json:"results,omitempty" msgpack:"results,omitempty"`
	Variadic   bool         `json:"variadic,omitempty" msgpack:"variadic,omitempty"`
	Directives []*Directive `json:"directives,omitempty" msgpack:"directives,omitempty"`
	// Embedded reports whether the method comes from an embedded interface.
	Embedded bool `json:"embedded,omitempty" msgpack:"embedded,omitempty"`
	// Default reports whether the base type already provides the method.
	Default bool `json:"default,omitempty" msgpack:"default,omitempty"`
	// Err is set when the method's directives could not be parsed.
	Err string `json:"err,omitempty" msgpack:"err,omitempty"`
}

// Param is a method parameter. Unnamed parameters are named argN.
type Param struct {
	Name string   `json:"name" msgpack:"name"`
	Type *TypeRef `json:"type" msgpack:"type"`
	// Unnamed reports a parameter declared without a name, or as _.
	Unnamed bool `json:"unnamed,omitempty" msgpack:"unnamed,omitempty"`
}

// Config configures the loading of repository interfaces.
type Config struct {
	// Dir is the working directory for package resolution.
	Dir string
	// BuildFlags are passed to the build system.
	BuildFlags []string
	// Logger receives type-checking problems that do not stop loading.
	Logger *zap.Logger
}

// Load loads the packages matching patterns and returns their
// repository interfaces.
func (c *Config) Load(ctx context.Context, patterns ...string) ([]*Interface, error) {
	if len(patterns) == 0 {
		return nil, errors.New("load: no package patterns")
	}
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	pkgs, err := packages.Load(&packages.Config{
		Context:    ctx,
		Dir:        c.Dir,
		BuildFlags: c.BuildFlags,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo,
	}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	var errs []error
	for _, pkg := range pkgs {
		if pkg.Types == nil || pkg.TypesInfo == nil || len(pkg.Syntax) == 0 {
			for _, e := range pkg.Errors {
				errs = append(errs, e)
			}
			if len(pkg.Errors) == 0 {
				errs = append(errs, fmt.Errorf("package %s: no Go files", pkg.PkgPath))
			}
			continue
		}
		// Type errors are expected while generated files are stale.
		for _, e := range pkg.Errors {
			log.Debug("package error", zap.String("package", pkg.PkgPath), zap.String("error", e.Error()))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	var (
		l      = &loader{docs: make(map[token.Pos]*ast.CommentGroup)}
		ifaces []*Interface
	)
	for _, pkg := range pkgs {
		l.index(pkg)
	}
	for _, pkg := range pkgs {
		found, err := l.interfaces(pkg)
		if err != nil {
			return nil, err
		}
		ifaces = append(ifaces, found...)
	}
	return ifaces, nil
}

type loader struct {
	fset *token.FileSet
	// docs maps interface method positions to their doc comments.
	docs map[token.Pos]*ast.CommentGroup
}

func (l *loader) index(pkg *packages.Package) {
	l.fset = pkg.Fset
	for _, f := range pkg.Syntax {
		ast.Inspect(f, func(n ast.Node) bool {
			it, ok := n.(*ast.InterfaceType)
			if !ok {
				return true
			}
			for _, m := range it.Methods.List {
				if len(m.Names) > 0 && m.Doc != nil {
					l.docs[m.Names[0].Pos()] = m.Doc
				}
			}
			return true
		})
	}
}

func (l *loader) interfaces(pkg *packages.Package) ([]*Interface, error) {
	var ifaces []*Interface
	for _, f := range pkg.Syntax {
		for _, decl := range f.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts := spec.(*ast.TypeSpec)
				if _, ok := ts.Type.(*ast.InterfaceType); !ok {
					continue
				}
				doc := ts.Doc
				if doc == nil && len(gd.Specs) == 1 {
					doc = gd.Doc
				}
				dirs, derr := Directives(pkg.Fset, doc)
				if Find(dirs, DirectiveRepository) == nil {
					if derr != nil {
						return nil, fmt.Errorf("%s: %w", pkg.Fset.Position(ts.Pos()), derr)
					}
					continue
				}
				iface, err := l.newInterface(pkg, ts, dirs)
				if err != nil {
					return nil, err
				}
				if derr != nil {
					iface.Errs = append(iface.Errs, derr.Error())
				}
				ifaces = append(ifaces, iface)
			}
		}
	}
	return ifaces, nil
}

func (l *loader) newInterface(pkg *packages.Package, ts *ast.TypeSpec, dirs []*Directive) (*Interface, error) {
	obj, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("%s: missing type information for %s", pkg.Fset.Position(ts.Pos()), ts.Name.Name)
	}
	it, ok := obj.Type().Underlying().(*types.Interface)
	if !ok {
		return nil, fmt.Errorf("%s: %s is not an interface", pkg.Fset.Position(ts.Pos()), ts.Name.Name)
	}
	iface := &Interface{
		Name:       obj.Name(),
		PkgPath:    pkg.PkgPath,
		PkgName:    pkg.Name,
		Pos:        pkg.Fset.Position(ts.Pos()).String(),
		Directives: dirs,
	}
	if len(pkg.GoFiles) > 0 {
		iface.Dir = filepath.Dir(pkg.GoFiles[0])
	}
	var base *types.MethodSet
	if name, ok := Find(dirs, DirectiveRepository).Lookup("base"); ok && name != "" {
		if bo, ok := pkg.Types.Scope().Lookup(name).(*types.TypeName); ok {
			iface.Base = NewTypeRef(bo.Type())
			base = types.NewMethodSet(types.NewPointer(bo.Type()))
		}
	}
	explicit := make(map[*types.Func]bool, it.NumExplicitMethods())
	for i := range it.NumExplicitMethods() {
		explicit[it.ExplicitMethod(i)] = true
	}
	fns := make([]*types.Func, 0, it.NumMethods())
	for i := range it.NumMethods() {
		fns = append(fns, it.Method(i))
	}
	slices.SortStableFunc(fns, func(a, b *types.Func) int {
		if ea, eb := explicit[a], explicit[b]; ea != eb {
			return lo.Ternary(ea, -1, 1)
		}
		pa, pb := l.fset.Position(a.Pos()), l.fset.Position(b.Pos())
		return cmp.Or(cmp.Compare(pa.Filename, pb.Filename), cmp.Compare(pa.Offset, pb.Offset))
	})
	for _, fn := range fns {
		m := l.newMethod(fn)
		m.Embedded = !explicit[fn]
		if base != nil && base.Lookup(fn.Pkg(), fn.Name()) != nil {
			m.Default = true
		}
		iface.Methods = append(iface.Methods, m)
	}
	return iface, nil
}

func (l *loader) newMethod(fn *types.Func) *Method {
	sig := fn.Type().(*types.Signature)
	m := &Method{
		Name:     fn.Name(),
		Pos:      l.fset.Position(fn.Pos()).String(),
		Variadic: sig.Variadic(),
	}
	for i := range sig.Params().Len() {
		p := sig.Params().At(i)
		param := &Param{Name: p.Name(), Type: NewTypeRef(p.Type())}
		if param.Name == "" || param.Name == "_" {
			param.Name = fmt.Sprintf("arg%d", i)
			param.Unnamed = true
		}
		m.Params = append(m.Params, param)
	}
	for v := range sig.Results().Variables() {
		m.Results = append(m.Results, NewTypeRef(v.Type()))
	}
	dirs, err := Directives(l.fset, l.docs[fn.Pos()])
	m.Directives = dirs
	if err != nil {
		m.Err = err.Error()
	}
	return m
}
