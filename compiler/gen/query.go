package gen

import "github.com/syssam/repox/compiler/load"

// genQuery generates a named query: acquire, bind every parameter in
// declaration order, then reduce the results to the declared shape.
func genQuery(g *GeneratedMethod) ([]*Op, *MethodError) {
	m := g.Method
	q := Ident(g.Locals.Query)

	var (
		typed  bool
		reduce *Op
	)
	switch s := m.Shape; s.Kind {
	case LazySequence:
		typed = true
		reduce = Return(MethodCall(q, "ResultStream", Ctx()), Nil())
	case EagerList:
		typed = true
		reduce = Return(MethodCall(q, "ResultList", Ctx()))
	case Optional:
		typed = true
		stream := MethodCall(q, "ResultStream", Ctx())
		if s.IsSpecialized() {
			reduce = Return(Call(RepoxPkg, "SingleResult"+s.Specialized, nil, stream))
		} else {
			reduce = Return(Call(RepoxPkg, "SingleResult", nil, stream))
		}
	case NumericCount:
		reduce = Return(Call(RepoxPkg, "ExecuteUpdate", []*load.TypeRef{m.Result}, Ctx(), q))
	case Void:
	default:
		return nil, NewMethodError(UnsupportedReturnType, m, "query cannot return %s", resultString(m))
	}

	var acquire *Expr
	if typed {
		acquire = Call(RepoxPkg, "CreateTypedQuery", []*load.TypeRef{m.Shape.Elem}, Ctx(), Session(), String(m.Query.ID))
	} else {
		acquire = Call(RepoxPkg, "CreateNamedQuery", nil, Ctx(), Session(), String(m.Query.ID))
	}
	body := []*Op{
		Assign(true, acquire, g.Locals.Query, g.Locals.Err),
		IfErr(g.errReturn()),
	}
	for i, p := range m.Params {
		op, err := g.bind(q, i, p)
		if err != nil {
			return nil, err
		}
		body = append(body, op)
	}
	if reduce == nil {
		return append(body,
			Assign(false, MethodCall(q, "ExecuteUpdate", Ctx()), "_", g.Locals.Err),
			Return(Ident(g.Locals.Err)),
		), nil
	}
	return append(body, reduce), nil
}

// bind returns the statement binding parameter p at index i of the
// method to query q.
func (g *GeneratedMethod) bind(q *Expr, i int, p *Param) (*Op, *MethodError) {
	key := Call(RepoxPkg, "Positional", nil, Int(i+1))
	if g.Method.Query.Named {
		key = Call(RepoxPkg, "Named", nil, String(p.Name))
	}
	if p.Binding.Temporal {
		if !p.Type.Is(TimePkg, "Time") {
			return nil, NewMethodError(UnsupportedTemporalTarget, g.Method, "temporal parameter %s has type %s, want time.Time", p.Name, p.Type)
		}
		g.addImport(RepoxPkg)
		return Exec(MethodCall(q, "SetTemporalParameter", key, Ident(p.Name), Const(RepoxPkg, p.Binding.Unit.Ident()))), nil
	}
	value := Ident(p.Name)
	switch s := ShapeOf(p.Type); {
	case s.IsSpecialized():
		value = Call(RepoxPkg, "OrElseNull", nil, value)
	case s.Kind == Optional:
		value = Call(RepoxPkg, "ValueOrNil", nil, value)
	}
	return Exec(MethodCall(q, "SetParameter", key, value)), nil
}
