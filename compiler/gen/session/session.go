// Package session renders generated repository implementations as Go
// source using Jennifer.
//
// For an interface UserRepository it produces:
//
//	// userRepositoryImpl implements UserRepository.
//	type userRepositoryImpl struct {
//	    userBase
//	    session repox.Session `repox:"unit=main,mode=extended"`
//	}
//
//	var _ UserRepository = (*userRepositoryImpl)(nil)
//
//	// NewUserRepository returns a UserRepository bound to the session resolved by p.
//	func NewUserRepository(p repox.SessionProvider) UserRepository {
//	    return &userRepositoryImpl{session: p.Session(repox.Binding{...})}
//	}
//
// followed by one method per generated body.
package session

import (
	"fmt"
	"go/types"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/repox/compiler/gen"
	"github.com/syssam/repox/compiler/load"
)

// Emitter implements gen.Emitter.
type Emitter struct {
	header string
}

var _ gen.Emitter = (*Emitter)(nil)

// New creates an emitter writing the header of cfg at the top of each file.
func New(cfg *gen.Config) *Emitter {
	e := &Emitter{}
	if cfg != nil {
		e.header = cfg.Header
	}
	return e
}

// Emit renders impl into a file of its package.
func (e *Emitter) Emit(impl *gen.Implementation) (*jen.File, error) {
	if impl == nil || impl.Name == "" || impl.Interface == "" {
		return nil, gen.NewGenerationError("", "", fmt.Errorf("incomplete implementation descriptor"))
	}
	if impl.Constructor == "" {
		c := *impl
		c.Constructor = "New" + impl.Interface
		impl = &c
	}
	f := jen.NewFilePathName(impl.PkgPath, impl.PkgName)
	if e.header != "" {
		f.HeaderComment(e.header)
	}
	f.ImportName(gen.RepoxPkg, "repox")

	genStruct(f, impl)
	genConstructor(f, impl)
	for _, m := range impl.Methods {
		r := &renderer{impl: impl, m: m}
		if err := r.method(f); err != nil {
			return nil, gen.NewGenerationError(impl.Interface, "", fmt.Errorf("%s: %w", m.Method.Name, err))
		}
	}
	return f, nil
}

// genStruct generates the implementation type and its interface assertion.
func genStruct(f *jen.File, impl *gen.Implementation) {
	f.Commentf("%s implements %s.", impl.Name, impl.Interface)
	f.Type().Id(impl.Name).StructFunc(func(g *jen.Group) {
		if impl.Base != nil {
			g.Add(typeCode(impl.Base))
		}
		g.Id("session").Qual(gen.RepoxPkg, "Session").Tag(map[string]string{"repox": bindingTag(impl)})
	})
	f.Line()
	f.Var().Id("_").Id(impl.Interface).Op("=").Parens(jen.Op("*").Id(impl.Name)).Parens(jen.Nil())
}

// genConstructor generates New<Interface>, resolving the session of the
// binding through a provider.
func genConstructor(f *jen.File, impl *gen.Implementation) {
	b := impl.Binding
	binding := jen.Dict{}
	if b.Unit != "" {
		binding[jen.Id("Unit")] = jen.Lit(b.Unit)
	}
	if b.Name != "" {
		binding[jen.Id("Name")] = jen.Lit(b.Name)
	}
	binding[jen.Id("Mode")] = jen.Qual(gen.RepoxPkg, b.Mode.Ident())

	f.Line()
	f.Commentf("%s returns a %s bound to the session resolved by p.", impl.Constructor, impl.Interface)
	f.Func().Id(impl.Constructor).Params(jen.Id("p").Qual(gen.RepoxPkg, "SessionProvider")).Id(impl.Interface).Block(
		jen.Return(jen.Op("&").Id(impl.Name).Values(jen.Dict{
			jen.Id("session"): jen.Id("p").Dot("Session").Call(jen.Qual(gen.RepoxPkg, "Binding").Values(binding)),
		})),
	)
}

// bindingTag renders the binding as a struct tag value.
func bindingTag(impl *gen.Implementation) string {
	var parts []string
	if u := impl.Binding.Unit; u != "" {
		parts = append(parts, "unit="+u)
	}
	if n := impl.Binding.Name; n != "" {
		parts = append(parts, "name="+n)
	}
	parts = append(parts, "mode="+impl.Binding.Mode.String())
	return strings.Join(parts, ",")
}

// typeCode returns the Jennifer code of a type reference.
func typeCode(t *load.TypeRef) jen.Code {
	switch t.Kind {
	case load.KindNamed:
		var s *jen.Statement
		if t.PkgPath == "" {
			s = jen.Id(t.Name)
		} else {
			s = jen.Qual(t.PkgPath, t.Name)
		}
		if len(t.Args) > 0 {
			s = s.Types(typeCodes(t.Args)...)
		}
		return s
	case load.KindPointer:
		return jen.Op("*").Add(typeCode(t.Elem))
	case load.KindSlice:
		return jen.Index().Add(typeCode(t.Elem))
	case load.KindArray:
		return jen.Index(jen.Lit(int(t.Len))).Add(typeCode(t.Elem))
	case load.KindMap:
		return jen.Map(typeCode(t.Key)).Add(typeCode(t.Elem))
	case load.KindChan:
		return chanCode(t)
	case load.KindFunc:
		params := typeCodes(t.Args)
		if t.Variadic && len(params) > 0 {
			params[len(params)-1] = jen.Op("...").Add(typeCode(t.Args[len(t.Args)-1].Elem))
		}
		return jen.Func().Params(params...).Params(typeCodes(t.Results)...)
	}
	return jen.Id(t.Name)
}

func typeCodes(ts []*load.TypeRef) []jen.Code {
	codes := make([]jen.Code, len(ts))
	for i, t := range ts {
		codes[i] = typeCode(t)
	}
	return codes
}

func chanCode(t *load.TypeRef) jen.Code {
	switch t.Dir {
	case types.SendOnly:
		return jen.Chan().Op("<-").Add(typeCode(t.Elem))
	case types.RecvOnly:
		return jen.Op("<-").Chan().Add(typeCode(t.Elem))
	}
	return jen.Chan().Add(typeCode(t.Elem))
}
