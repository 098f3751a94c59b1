package gen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/repox/compiler/load"
)

const modelPkg = "example.com/app/model"

var (
	user    = load.Named(modelPkg, "User")
	userPtr = load.PointerTo(user)
	ctxType = load.Named("context", "Context")
	timeT   = load.Named("time", "Time")
	errT    = load.Error()
)

func param(name string, t *load.TypeRef) *load.Param {
	return &load.Param{Name: name, Type: t}
}

func ctxParam() *load.Param {
	return param("ctx", ctxType)
}

func directives(t *testing.T, texts ...string) []*load.Directive {
	t.Helper()
	ds := make([]*load.Directive, len(texts))
	for i, text := range texts {
		d, err := load.ParseDirective(text)
		require.NoError(t, err)
		require.NotNil(t, d, text)
		ds[i] = d
	}
	return ds
}

// newTestMethod builds the descriptor of a method declared with the given
// parameters, results and directives.
func newTestMethod(t *testing.T, name string, params []*load.Param, results []*load.TypeRef, dirs ...string) *Method {
	t.Helper()
	return newMethod(&load.Method{
		Name:       name,
		Pos:        "repo.go:1:1",
		Params:     params,
		Results:    results,
		Directives: directives(t, dirs...),
	})
}

func newTestInterface(t *testing.T, directive string, methods ...*load.Method) *load.Interface {
	t.Helper()
	return &load.Interface{
		Name:       "UserRepository",
		PkgPath:    modelPkg,
		PkgName:    "model",
		Pos:        "repo.go:10:6",
		Directives: directives(t, directive),
		Methods:    methods,
	}
}

func generate(t *testing.T, m *Method) *GeneratedMethod {
	t.Helper()
	g, err := GenerateMethod("userRepositoryImpl", m)
	require.Nil(t, err, "unexpected diagnostic: %v", err)
	return g
}

func body(g *GeneratedMethod) []string {
	lines := make([]string, 0, len(g.Body))
	for _, o := range g.Body {
		lines = append(lines, o.String())
	}
	return lines
}
