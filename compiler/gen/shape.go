package gen

import (
	"fmt"

	"github.com/syssam/repox/compiler/load"
)

// ShapeKind is the kind of value a method returns.
type ShapeKind uint8

// Shape kinds.
const (
	Void ShapeKind = iota
	Scalar
	Optional
	LazySequence
	EagerList
	NumericCount
	SessionHandle
)

var shapeNames = [...]string{
	Void:          "void",
	Scalar:        "scalar",
	Optional:      "optional",
	LazySequence:  "lazy sequence",
	EagerList:     "eager list",
	NumericCount:  "numeric count",
	SessionHandle: "session handle",
}

// String returns the shape kind name.
func (k ShapeKind) String() string {
	if int(k) < len(shapeNames) {
		return shapeNames[k]
	}
	return fmt.Sprintf("ShapeKind(%d)", k)
}

// Shape is the classified result type of a method.
type Shape struct {
	Kind ShapeKind
	// Elem is the element type of optionals, sequences and lists.
	Elem *load.TypeRef
	// Specialized names the primitive optional ("Int64", "Bool"...) when
	// the result is one of the database/sql NullX types.
	Specialized string
}

// specialized maps the database/sql NullX types to their primitive
// element and reducer suffix.
var specialized = map[string]struct {
	suffix string
	elem   *load.TypeRef
}{
	"NullInt16":   {"Int16", load.Basic("int16")},
	"NullInt32":   {"Int32", load.Basic("int32")},
	"NullInt64":   {"Int64", load.Basic("int64")},
	"NullFloat64": {"Float64", load.Basic("float64")},
	"NullByte":    {"Byte", load.Basic("byte")},
	"NullBool":    {"Bool", load.Basic("bool")},
	"NullString":  {"String", load.Basic("string")},
	"NullTime":    {"Time", load.Named("time", "Time")},
}

// ShapeOf classifies the given result type. A nil type is void.
func ShapeOf(t *load.TypeRef) Shape {
	switch {
	case t == nil:
		return Shape{Kind: Void}
	case t.Is(RepoxPkg, "Session"):
		return Shape{Kind: SessionHandle}
	case t.Is(SQLPkg, "Null") && len(t.Args) == 1:
		return Shape{Kind: Optional, Elem: t.Args[0]}
	case t.Kind == load.KindNamed && t.PkgPath == SQLPkg:
		if s, ok := specialized[t.Name]; ok {
			return Shape{Kind: Optional, Elem: s.elem, Specialized: s.suffix}
		}
	case t.Is(IterPkg, "Seq2") && len(t.Args) == 2 && t.Args[1].IsError():
		return Shape{Kind: LazySequence, Elem: t.Args[0]}
	case t.Kind == load.KindSlice && !t.Elem.IsBasic("byte", "uint8"):
		return Shape{Kind: EagerList, Elem: t.Elem}
	case t.IsBasic("int", "int32", "int64"):
		return Shape{Kind: NumericCount}
	}
	return Shape{Kind: Scalar}
}

// IsSpecialized reports whether the shape is a primitive optional.
func (s Shape) IsSpecialized() bool {
	return s.Kind == Optional && s.Specialized != ""
}

// String returns a readable form of the shape.
func (s Shape) String() string {
	switch {
	case s.IsSpecialized():
		return "optional " + s.Specialized
	case s.Elem != nil:
		return s.Kind.String() + " of " + s.Elem.String()
	}
	return s.Kind.String()
}
