package session

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/repox/compiler/gen"
	"github.com/syssam/repox/compiler/load"
)

// renderer renders one generated method.
type renderer struct {
	impl *gen.Implementation
	m    *gen.GeneratedMethod
}

func (r *renderer) method(f *jen.File) error {
	m := r.m.Method
	body, err := r.ops(r.m.Body)
	if err != nil {
		return err
	}
	f.Line()
	if p := r.m.Policy; p != nil {
		f.Comment("//repox:transactional " + p.Raw)
	}
	f.Func().
		Params(jen.Id(r.m.Locals.Receiver).Op("*").Id(r.impl.Name)).
		Id(m.Name).
		Params(r.params()...).
		Params(r.results()...).
		Block(body...)
	return nil
}

func (r *renderer) params() []jen.Code {
	m := r.m.Method
	var params []jen.Code
	if m.Context != "" {
		params = append(params, jen.Id(m.Context).Qual(gen.ContextPkg, "Context"))
	}
	for i, p := range m.Params {
		if m.Variadic && i == len(m.Params)-1 && p.Type.Kind == load.KindSlice {
			params = append(params, jen.Id(p.Name).Op("...").Add(typeCode(p.Type.Elem)))
			continue
		}
		params = append(params, jen.Id(p.Name).Add(typeCode(p.Type)))
	}
	return params
}

// results names the results of methods returning an error, so the flush
// guarantee can join its error into them.
func (r *renderer) results() []jen.Code {
	m, l := r.m.Method, r.m.Locals
	switch {
	case !m.ReturnsError && m.Result == nil:
		return nil
	case !m.ReturnsError:
		return []jen.Code{typeCode(m.Result)}
	case m.Result == nil:
		return []jen.Code{jen.Id(l.Err).Error()}
	}
	return []jen.Code{jen.Id(l.Result).Add(typeCode(m.Result)), jen.Id(l.Err).Error()}
}

func (r *renderer) ops(ops []*gen.Op) ([]jen.Code, error) {
	var codes []jen.Code
	for _, o := range ops {
		c, err := r.op(o)
		if err != nil {
			return nil, err
		}
		codes = append(codes, c...)
	}
	return codes, nil
}

func (r *renderer) op(o *gen.Op) ([]jen.Code, error) {
	switch o.Kind {
	case gen.OpAssign:
		vars := make([]jen.Code, len(o.Vars))
		for i, v := range o.Vars {
			vars[i] = jen.Id(v)
		}
		tok := "="
		if o.Define {
			tok = ":="
		}
		v, err := r.expr(o.Value)
		if err != nil {
			return nil, err
		}
		return []jen.Code{jen.List(vars...).Op(tok).Add(v)}, nil
	case gen.OpExec:
		v, err := r.expr(o.Value)
		if err != nil {
			return nil, err
		}
		return []jen.Code{v}, nil
	case gen.OpIfErr:
		body, err := r.ops(o.Body)
		if err != nil {
			return nil, err
		}
		return []jen.Code{jen.If(jen.Id(r.m.Locals.Err).Op("!=").Nil()).Block(body...)}, nil
	case gen.OpEnsure:
		release, err := r.expr(o.Release)
		if err != nil {
			return nil, err
		}
		body, err := r.ops(o.Body)
		if err != nil {
			return nil, err
		}
		deferred := jen.Defer().Qual(gen.RepoxPkg, "Finally").Call(
			jen.Op("&").Id(r.m.Locals.Err),
			jen.Func().Params().Error().Block(jen.Return(release)),
		)
		return append([]jen.Code{deferred}, body...), nil
	case gen.OpReturn:
		values, err := r.exprs(o.Values)
		if err != nil {
			return nil, err
		}
		return []jen.Code{jen.Return(values...)}, nil
	}
	return nil, fmt.Errorf("unknown statement kind %d", o.Kind)
}

func (r *renderer) exprs(es []*gen.Expr) ([]jen.Code, error) {
	codes := make([]jen.Code, len(es))
	for i, e := range es {
		c, err := r.expr(e)
		if err != nil {
			return nil, err
		}
		codes[i] = c
	}
	return codes, nil
}

func (r *renderer) expr(e *gen.Expr) (*jen.Statement, error) {
	if e == nil {
		return nil, fmt.Errorf("missing expression")
	}
	switch e.Kind {
	case gen.ExprIdent:
		return jen.Id(e.Name), nil
	case gen.ExprContext:
		if c := r.m.Method.Context; c != "" {
			return jen.Id(c), nil
		}
		return jen.Qual(gen.ContextPkg, "Background").Call(), nil
	case gen.ExprSession:
		return jen.Id(r.m.Locals.Receiver).Dot("session"), nil
	case gen.ExprNil:
		return jen.Nil(), nil
	case gen.ExprString:
		return jen.Lit(e.Name), nil
	case gen.ExprInt:
		return jen.Lit(e.Int), nil
	case gen.ExprConst:
		return jen.Qual(e.Pkg, e.Name), nil
	case gen.ExprCall:
		args, err := r.exprs(e.Args)
		if err != nil {
			return nil, err
		}
		var fn *jen.Statement
		if e.Recv != nil {
			recv, err := r.expr(e.Recv)
			if err != nil {
				return nil, err
			}
			fn = recv.Dot(e.Name)
		} else {
			fn = jen.Qual(e.Pkg, e.Name)
		}
		if len(e.TypeArgs) > 0 {
			fn = fn.Types(typeCodes(e.TypeArgs)...)
		}
		return fn.Call(args...), nil
	}
	return nil, fmt.Errorf("unknown expression kind %d", e.Kind)
}
