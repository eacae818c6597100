package types

import (
	"fmt"
	"strings"
)

// Kind discriminates the closed set of type variants.
type Kind int

const (
	DynamicTensorKind Kind = iota + 1
	CompleteTensorKind
	UndefinedTensorKind
	NumberKind
	IntKind
	FloatKind
	BoolKind
	NoneKind
	StringKind
	GeneratorKind
	TupleKind
	ListKind
	OptionalKind
	FutureKind
	VarKind
)

// Type is the interface implemented by every variant.
//
// Contained returns the directly contained element types (empty for leaf
// kinds). WithContained rebuilds the same variant around new element types and
// is used by Substitute to rewrite containers bottom-up.
type Type interface {
	Kind() Kind
	String() string
	Contained() []Type
	WithContained([]Type) Type

	// HasFreeVariables reports whether a Var occurs anywhere inside.
	HasFreeVariables() bool

	// Equal is structural equality.
	Equal(Type) bool
}

// leafType backs every variant without payload.
type leafType struct {
	kind Kind
	name string
}

func (t *leafType) Kind() Kind                 { return t.kind }
func (t *leafType) String() string             { return t.name }
func (t *leafType) Contained() []Type          { return nil }
func (t *leafType) WithContained(c []Type) Type { return t }
func (t *leafType) HasFreeVariables() bool     { return false }
func (t *leafType) Equal(u Type) bool          { return t.kind == u.Kind() }

// Singletons for the payload-free kinds.
var (
	Dynamic   Type = &leafType{DynamicTensorKind, "Dynamic"}
	Undefined Type = &leafType{UndefinedTensorKind, "Undefined"}
	Number    Type = &leafType{NumberKind, "Number"}
	Int       Type = &leafType{IntKind, "int"}
	Float     Type = &leafType{FloatKind, "float"}
	Bool      Type = &leafType{BoolKind, "bool"}
	None      Type = &leafType{NoneKind, "None"}
	String    Type = &leafType{StringKind, "string"}
	Generator Type = &leafType{GeneratorKind, "Generator"}
)

// CompleteTensorType is a tensor with known scalar kind, sizes and strides.
type CompleteTensorType struct {
	Scalar  string // scalar kind, e.g. "Float", "Double", "Long"
	Sizes   []int64
	Strides []int64
}

// CompleteTensor builds a contiguous complete tensor type for the given sizes.
func CompleteTensor(scalar string, sizes ...int64) *CompleteTensorType {
	strides := make([]int64, len(sizes))
	stride := int64(1)
	for i := len(sizes) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= sizes[i]
	}
	return &CompleteTensorType{Scalar: scalar, Sizes: sizes, Strides: strides}
}

func (t *CompleteTensorType) Kind() Kind                  { return CompleteTensorKind }
func (t *CompleteTensorType) Contained() []Type           { return nil }
func (t *CompleteTensorType) WithContained(c []Type) Type { return t }
func (t *CompleteTensorType) HasFreeVariables() bool      { return false }

func (t *CompleteTensorType) String() string {
	var b strings.Builder
	b.WriteString(t.Scalar)
	b.WriteByte('(')
	for i, s := range t.Sizes {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d", s)
		// mark non-contiguous dimensions
		expected := int64(1)
		if i+1 < len(t.Sizes) {
			expected = t.Sizes[i+1] * t.Strides[i+1]
		}
		if t.Strides[i] != expected {
			b.WriteByte('!')
		}
	}
	b.WriteByte(')')
	return b.String()
}

func (t *CompleteTensorType) Equal(u Type) bool {
	o, ok := u.(*CompleteTensorType)
	if !ok || t.Scalar != o.Scalar || len(t.Sizes) != len(o.Sizes) {
		return false
	}
	for i := range t.Sizes {
		if t.Sizes[i] != o.Sizes[i] || t.Strides[i] != o.Strides[i] {
			return false
		}
	}
	return true
}

// ListType is a homogeneous list.
type ListType struct{ Elem Type }

// List builds a list type over elem.
func List(elem Type) *ListType { return &ListType{Elem: elem} }

func (t *ListType) Kind() Kind                  { return ListKind }
func (t *ListType) String() string              { return t.Elem.String() + "[]" }
func (t *ListType) Contained() []Type           { return []Type{t.Elem} }
func (t *ListType) WithContained(c []Type) Type { return List(c[0]) }
func (t *ListType) HasFreeVariables() bool      { return t.Elem.HasFreeVariables() }

func (t *ListType) Equal(u Type) bool {
	o, ok := u.(*ListType)
	return ok && t.Elem.Equal(o.Elem)
}

// TupleType is a fixed-arity heterogeneous product.
type TupleType struct{ Elems []Type }

// Tuple builds a tuple type over elems.
func Tuple(elems ...Type) *TupleType { return &TupleType{Elems: elems} }

func (t *TupleType) Kind() Kind                  { return TupleKind }
func (t *TupleType) Contained() []Type           { return t.Elems }
func (t *TupleType) WithContained(c []Type) Type { return Tuple(c...) }

func (t *TupleType) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (t *TupleType) HasFreeVariables() bool {
	for _, e := range t.Elems {
		if e.HasFreeVariables() {
			return true
		}
	}
	return false
}

func (t *TupleType) Equal(u Type) bool {
	o, ok := u.(*TupleType)
	if !ok || len(t.Elems) != len(o.Elems) {
		return false
	}
	for i := range t.Elems {
		if !t.Elems[i].Equal(o.Elems[i]) {
			return false
		}
	}
	return true
}

// OptionalType is a value that may be None.
type OptionalType struct{ Elem Type }

// Optional builds an optional over elem. Optional(Optional(T)) collapses.
func Optional(elem Type) *OptionalType {
	if o, ok := elem.(*OptionalType); ok {
		return o
	}
	return &OptionalType{Elem: elem}
}

func (t *OptionalType) Kind() Kind                  { return OptionalKind }
func (t *OptionalType) String() string              { return t.Elem.String() + "?" }
func (t *OptionalType) Contained() []Type           { return []Type{t.Elem} }
func (t *OptionalType) WithContained(c []Type) Type { return Optional(c[0]) }
func (t *OptionalType) HasFreeVariables() bool      { return t.Elem.HasFreeVariables() }

func (t *OptionalType) Equal(u Type) bool {
	o, ok := u.(*OptionalType)
	return ok && t.Elem.Equal(o.Elem)
}

// FutureType is a value produced by asynchronous work.
type FutureType struct{ Elem Type }

// Future builds a future over elem.
func Future(elem Type) *FutureType { return &FutureType{Elem: elem} }

func (t *FutureType) Kind() Kind                  { return FutureKind }
func (t *FutureType) String() string              { return "Future[" + t.Elem.String() + "]" }
func (t *FutureType) Contained() []Type           { return []Type{t.Elem} }
func (t *FutureType) WithContained(c []Type) Type { return Future(c[0]) }
func (t *FutureType) HasFreeVariables() bool      { return t.Elem.HasFreeVariables() }

func (t *FutureType) Equal(u Type) bool {
	o, ok := u.(*FutureType)
	return ok && t.Elem.Equal(o.Elem)
}

// VarType is a named placeholder bound during schema matching.
type VarType struct{ Name string }

// Var builds a type variable with the given name.
func Var(name string) *VarType { return &VarType{Name: name} }

func (t *VarType) Kind() Kind                  { return VarKind }
func (t *VarType) String() string              { return t.Name }
func (t *VarType) Contained() []Type           { return nil }
func (t *VarType) WithContained(c []Type) Type { return t }
func (t *VarType) HasFreeVariables() bool      { return true }

func (t *VarType) Equal(u Type) bool {
	o, ok := u.(*VarType)
	return ok && t.Name == o.Name
}

// IsTensor reports whether t is some tensor type (dynamic, complete or
// undefined). Complete and undefined tensors are subtypes of Dynamic.
func IsTensor(t Type) bool {
	switch t.Kind() {
	case DynamicTensorKind, CompleteTensorKind, UndefinedTensorKind:
		return true
	}
	return false
}

// Subtype reports whether t is a subtype of u.
//
// The hierarchy is shallow: every type is a subtype of itself (structurally),
// Int and Float are subtypes of Number, and the tensor refinements are
// subtypes of Dynamic.
func Subtype(t, u Type) bool {
	if t.Equal(u) {
		return true
	}
	switch u.Kind() {
	case DynamicTensorKind:
		return IsTensor(t)
	case NumberKind:
		return t.Kind() == IntKind || t.Kind() == FloatKind
	}
	return false
}
