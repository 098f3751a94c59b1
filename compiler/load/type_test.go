package load

import (
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeRefString(t *testing.T) {
	user := Named("example.com/app/model", "User")
	tests := []struct {
		ref  *TypeRef
		want string
	}{
		{Basic("int64"), "int64"},
		{user, "model.User"},
		{PointerTo(user), "*model.User"},
		{SliceOf(PointerTo(user)), "[]*model.User"},
		{Named("database/sql", "Null", user), "sql.Null[model.User]"},
		{Named("iter", "Seq2", user, Error()), "iter.Seq2[model.User, error]"},
		{&TypeRef{Kind: KindMap, Key: Basic("string"), Elem: Basic("int")}, "map[string]int"},
		{&TypeRef{Kind: KindArray, Len: 4, Elem: Basic("byte")}, "[4]byte"},
		{&TypeRef{Kind: KindChan, Dir: types.RecvOnly, Elem: Basic("int")}, "<-chan int"},
		{&TypeRef{Kind: KindFunc, Args: []*TypeRef{Basic("int"), SliceOf(Basic("string"))}, Variadic: true, Results: []*TypeRef{Error()}}, "func(int, ...string) error"},
		{&TypeRef{Kind: KindInterface, Name: "any"}, "any"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ref.String())
		})
	}
}

func TestTypeRefIdentical(t *testing.T) {
	a := PointerTo(Named("example.com/app/model", "User"))
	b := PointerTo(Named("example.com/app/model", "User"))
	c := PointerTo(Named("example.com/other/model", "User"))
	assert.True(t, a.Identical(b))
	assert.False(t, a.Identical(c))
	assert.False(t, a.Identical(a.Elem))
	assert.False(t, a.Identical(nil))
	assert.True(t, (*TypeRef)(nil).Identical(nil))
	assert.True(t, Named("iter", "Seq2", a, Error()).Identical(Named("iter", "Seq2", b, Error())))
}

func TestNewTypeRef(t *testing.T) {
	pkg := types.NewPackage("example.com/app/model", "model")
	named := types.NewNamed(types.NewTypeName(0, pkg, "User", nil), types.NewStruct(nil, nil), nil)

	ref := NewTypeRef(types.NewSlice(types.NewPointer(named)))
	assert.Equal(t, KindSlice, ref.Kind)
	assert.True(t, ref.Elem.Elem.Is("example.com/app/model", "User"))

	assert.True(t, NewTypeRef(types.Typ[types.Int32]).IsBasic("int32"))
	assert.True(t, NewTypeRef(types.Universe.Lookup("error").Type()).IsError())
	assert.Equal(t, "any", NewTypeRef(types.NewInterfaceType(nil, nil)).String())
	assert.Equal(t, KindOther, NewTypeRef(types.NewStruct(nil, nil)).Kind)
}
