package load

import (
	"go/types"
	"path"
	"strconv"
	"strings"
)

// TypeKind is the structural kind of a TypeRef.
type TypeKind uint8

// Type kinds.
const (
	KindInvalid TypeKind = iota
	KindBasic
	KindNamed
	KindPointer
	KindSlice
	KindArray
	KindMap
	KindChan
	KindFunc
	KindInterface
	KindOther
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindBasic:     "basic",
	KindNamed:     "named",
	KindPointer:   "pointer",
	KindSlice:     "slice",
	KindArray:     "array",
	KindMap:       "map",
	KindChan:      "chan",
	KindFunc:      "func",
	KindInterface: "interface",
	KindOther:     "other",
}

// String returns the kind name.
func (k TypeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// TypeRef is a serializable reference to a Go type as it appears in a
// method signature.
type TypeRef struct {
	Kind TypeKind `json:"kind" msgpack:"kind"`
	// PkgPath is the import path of a named type, empty for predeclared types.
	PkgPath string `json:"pkg_path,omitempty" msgpack:"pkg_path,omitempty"`
	// Name is the name of a basic or named type. For KindOther it holds the
	// type expression as written.
	Name string `json:"name,omitempty" msgpack:"name,omitempty"`
	// Elem is the element type of pointers, slices, arrays, maps and chans.
	Elem *TypeRef `json:"elem,omitempty" msgpack:"elem,omitempty"`
	// Key is the key type of a map.
	Key *TypeRef `json:"key,omitempty" msgpack:"key,omitempty"`
	// Args are the type arguments of an instantiated named type, or the
	// parameter types of a func.
	Args []*TypeRef `json:"args,omitempty" msgpack:"args,omitempty"`
	// Results are the result types of a func.
	Results []*TypeRef `json:"results,omitempty" msgpack:"results,omitempty"`
	// Variadic reports whether a func's last parameter is variadic.
	Variadic bool `json:"variadic,omitempty" msgpack:"variadic,omitempty"`
	// Len is the length of an array.
	Len int64 `json:"len,omitempty" msgpack:"len,omitempty"`
	// Dir is the direction of a chan.
	Dir types.ChanDir `json:"dir,omitempty" msgpack:"dir,omitempty"`
}

// Basic returns a reference to a predeclared type.
func Basic(name string) *TypeRef {
	return &TypeRef{Kind: KindBasic, Name: name}
}

// Named returns a reference to a named type, optionally instantiated.
func Named(pkgPath, name string, args ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: KindNamed, PkgPath: pkgPath, Name: name, Args: args}
}

// PointerTo returns a reference to *elem.
func PointerTo(elem *TypeRef) *TypeRef {
	return &TypeRef{Kind: KindPointer, Elem: elem}
}

// SliceOf returns a reference to []elem.
func SliceOf(elem *TypeRef) *TypeRef {
	return &TypeRef{Kind: KindSlice, Elem: elem}
}

// Error is the predeclared error type.
func Error() *TypeRef {
	return Named("", "error")
}

// NewTypeRef converts a go/types type.
func NewTypeRef(t types.Type) *TypeRef {
	switch t := t.(type) {
	case *types.Alias:
		return NewTypeRef(types.Unalias(t))
	case *types.Basic:
		return Basic(t.Name())
	case *types.Named:
		obj := t.Obj()
		ref := &TypeRef{Kind: KindNamed, Name: obj.Name()}
		if obj.Pkg() != nil {
			ref.PkgPath = obj.Pkg().Path()
		}
		if targs := t.TypeArgs(); targs != nil {
			for i := range targs.Len() {
				ref.Args = append(ref.Args, NewTypeRef(targs.At(i)))
			}
		}
		return ref
	case *types.Pointer:
		return PointerTo(NewTypeRef(t.Elem()))
	case *types.Slice:
		return SliceOf(NewTypeRef(t.Elem()))
	case *types.Array:
		return &TypeRef{Kind: KindArray, Len: t.Len(), Elem: NewTypeRef(t.Elem())}
	case *types.Map:
		return &TypeRef{Kind: KindMap, Key: NewTypeRef(t.Key()), Elem: NewTypeRef(t.Elem())}
	case *types.Chan:
		return &TypeRef{Kind: KindChan, Dir: t.Dir(), Elem: NewTypeRef(t.Elem())}
	case *types.Signature:
		ref := &TypeRef{Kind: KindFunc, Variadic: t.Variadic()}
		for v := range t.Params().Variables() {
			ref.Args = append(ref.Args, NewTypeRef(v.Type()))
		}
		for v := range t.Results().Variables() {
			ref.Results = append(ref.Results, NewTypeRef(v.Type()))
		}
		return ref
	case *types.Interface:
		if t.Empty() {
			return &TypeRef{Kind: KindInterface, Name: "any"}
		}
	}
	return &TypeRef{Kind: KindOther, Name: types.TypeString(t, nil)}
}

// Is reports whether t is the named type pkgPath.name.
func (t *TypeRef) Is(pkgPath, name string) bool {
	return t != nil && t.Kind == KindNamed && t.PkgPath == pkgPath && t.Name == name
}

// IsBasic reports whether t is one of the given predeclared types.
func (t *TypeRef) IsBasic(names ...string) bool {
	if t == nil || t.Kind != KindBasic {
		return false
	}
	for _, n := range names {
		if t.Name == n {
			return true
		}
	}
	return false
}

// IsError reports whether t is the predeclared error type.
func (t *TypeRef) IsError() bool {
	return t.Is("", "error")
}

// Identical reports whether t and u refer to the same type.
func (t *TypeRef) Identical(u *TypeRef) bool {
	if t == nil || u == nil {
		return t == u
	}
	if t.Kind != u.Kind || t.PkgPath != u.PkgPath || t.Name != u.Name ||
		t.Len != u.Len || t.Dir != u.Dir || t.Variadic != u.Variadic ||
		len(t.Args) != len(u.Args) || len(t.Results) != len(u.Results) {
		return false
	}
	if !t.Elem.Identical(u.Elem) || !t.Key.Identical(u.Key) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Identical(u.Args[i]) {
			return false
		}
	}
	for i := range t.Results {
		if !t.Results[i].Identical(u.Results[i]) {
			return false
		}
	}
	return true
}

// String returns t as Go source, qualifying named types by package name.
func (t *TypeRef) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *TypeRef) write(b *strings.Builder) {
	if t == nil {
		return
	}
	switch t.Kind {
	case KindBasic, KindInterface, KindOther:
		b.WriteString(t.Name)
	case KindNamed:
		if t.PkgPath != "" {
			b.WriteString(path.Base(t.PkgPath))
			b.WriteByte('.')
		}
		b.WriteString(t.Name)
		if len(t.Args) > 0 {
			b.WriteByte('[')
			writeList(b, t.Args, false)
			b.WriteByte(']')
		}
	case KindPointer:
		b.WriteByte('*')
		t.Elem.write(b)
	case KindSlice:
		b.WriteString("[]")
		t.Elem.write(b)
	case KindArray:
		b.WriteByte('[')
		b.WriteString(strconv.FormatInt(t.Len, 10))
		b.WriteByte(']')
		t.Elem.write(b)
	case KindMap:
		b.WriteString("map[")
		t.Key.write(b)
		b.WriteByte(']')
		t.Elem.write(b)
	case KindChan:
		switch t.Dir {
		case types.SendOnly:
			b.WriteString("chan<- ")
		case types.RecvOnly:
			b.WriteString("<-chan ")
		default:
			b.WriteString("chan ")
		}
		t.Elem.write(b)
	case KindFunc:
		b.WriteString("func(")
		writeList(b, t.Args, t.Variadic)
		b.WriteByte(')')
		switch len(t.Results) {
		case 0:
		case 1:
			b.WriteByte(' ')
			t.Results[0].write(b)
		default:
			b.WriteString(" (")
			writeList(b, t.Results, false)
			b.WriteByte(')')
		}
	default:
		b.WriteString("invalid type")
	}
}

func writeList(b *strings.Builder, ts []*TypeRef, variadic bool) {
	for i, a := range ts {
		if i > 0 {
			b.WriteString(", ")
		}
		if variadic && i == len(ts)-1 && a.Kind == KindSlice {
			b.WriteString("...")
			a.Elem.write(b)
			continue
		}
		a.write(b)
	}
}
