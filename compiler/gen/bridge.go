package gen

import "github.com/syssam/repox/compiler/load"

func genPassthrough(g *GeneratedMethod) ([]*Op, *MethodError) {
	if g.Method.ReturnsError {
		return []*Op{Return(Session(), Nil())}, nil
	}
	return []*Op{Return(Session())}, nil
}

// singleParam returns the only parameter of a bridge method.
func singleParam(g *GeneratedMethod) (*Param, *MethodError) {
	m := g.Method
	if len(m.Params) != 1 {
		return nil, NewMethodError(ParamCountMismatch, m, "%s takes %d parameters, want 1", g.Category, len(m.Params))
	}
	return m.Params[0], nil
}

func genFind(g *GeneratedMethod) ([]*Op, *MethodError) {
	m := g.Method
	key, err := singleParam(g)
	if err != nil {
		return nil, err
	}
	find := func(t *load.TypeRef) *Expr {
		return Call(RepoxPkg, "Find", []*load.TypeRef{t}, Ctx(), Session(), Ident(key.Name))
	}
	switch {
	case m.Shape.Kind == Optional && !m.Shape.IsSpecialized():
		return []*Op{Return(Call(RepoxPkg, "OfNullable", nil, find(m.Shape.Elem)))}, nil
	case m.Shape.Kind == Scalar && m.Result.Kind == load.KindPointer:
		return []*Op{Return(find(m.Result.Elem))}, nil
	case m.Shape.Kind == Scalar:
		return []*Op{Return(Call(RepoxPkg, "ValueOf", nil, find(m.Result)))}, nil
	}
	return nil, NewMethodError(UnsupportedReturnType, m, "finder cannot return %s", resultString(m))
}

func genPersist(g *GeneratedMethod) ([]*Op, *MethodError) {
	m := g.Method
	e, err := singleParam(g)
	if err != nil {
		return nil, err
	}
	call := MethodCall(Session(), "Persist", Ctx(), Ident(e.Name))
	if m.Result == nil {
		return []*Op{Return(call)}, nil
	}
	if !m.Result.Identical(e.Type) {
		return nil, NewMethodError(VoidReturnRequired, m, "persist returns %s, want no value or %s", m.Result, e.Type)
	}
	return []*Op{
		Assign(false, call, g.Locals.Err),
		IfErr(g.errReturn()),
		Return(Ident(e.Name), Nil()),
	}, nil
}

func genMerge(g *GeneratedMethod) ([]*Op, *MethodError) {
	return genMergeLike(g, "Merge", func(e *Param) *Expr {
		return Call(RepoxPkg, "Merge", nil, Ctx(), Session(), Ident(e.Name))
	})
}

func genSave(g *GeneratedMethod) ([]*Op, *MethodError) {
	return genMergeLike(g, "Save", func(e *Param) *Expr {
		return Call(RepoxPkg, "Save", nil, Ctx(), Session(), Ident(e.Name))
	})
}

// genMergeLike generates operations returning the managed entity, which
// is dropped when the method is void.
func genMergeLike(g *GeneratedMethod, op string, call func(*Param) *Expr) ([]*Op, *MethodError) {
	m := g.Method
	e, err := singleParam(g)
	if err != nil {
		return nil, err
	}
	if m.Result == nil {
		return []*Op{
			Assign(false, call(e), "_", g.Locals.Err),
			Return(Ident(g.Locals.Err)),
		}, nil
	}
	if !m.Result.Identical(e.Type) {
		return nil, NewMethodError(UnsupportedReturnType, m, "%s returns %s, want no value or %s", lowerFirst(op), m.Result, e.Type)
	}
	return []*Op{Return(call(e))}, nil
}

func genRemove(g *GeneratedMethod) ([]*Op, *MethodError) {
	m := g.Method
	e, err := singleParam(g)
	if err != nil {
		return nil, err
	}
	if m.Result != nil {
		return nil, NewMethodError(VoidReturnRequired, m, "remove returns %s, want no value", m.Result)
	}
	return []*Op{Return(MethodCall(Session(), "Remove", Ctx(), Ident(e.Name)))}, nil
}

func genFlush(g *GeneratedMethod) ([]*Op, *MethodError) {
	m := g.Method
	if len(m.Params) != 0 {
		return nil, NewMethodError(ParamCountMismatch, m, "flush takes %d parameters, want none", len(m.Params))
	}
	if m.Result != nil {
		return nil, NewMethodError(VoidReturnRequired, m, "flush returns %s, want no value", m.Result)
	}
	return []*Op{Return(MethodCall(Session(), "Flush", Ctx()))}, nil
}

func resultString(m *Method) string {
	if m.Result == nil {
		return "no value"
	}
	return m.Result.String()
}
