package schema

import (
	"strings"

	"github.com/roach88/tensorjit/internal/types"
)

// WildcardSymbol is the reserved alias symbol denoting the universal set.
const WildcardSymbol = "*"

// Alias is one argument's or return's alias annotation.
type Alias struct {
	// Symbol names the formal alias set, e.g. "a". For wildcard annotations
	// it is WildcardSymbol.
	Symbol string

	// IsWrite marks the annotation as a write ("a!").
	IsWrite bool

	// IsWildcard marks the universal annotation ("*").
	IsWildcard bool
}

// Argument is a formal argument or return slot.
type Argument struct {
	Name  string
	Type  types.Type
	Alias *Alias // nil when unannotated
}

// Schema is the declared signature of an operator kind.
type Schema struct {
	// Name is the operator name as written in the signature, without any
	// namespace qualifier ("add_", not "aten::add_").
	Name string

	Arguments []Argument
	Returns   []Argument

	// IsVararg / IsVarret mark signatures ending in "...".
	IsVararg bool
	IsVarret bool
}

// String reconstructs the signature in declaration syntax. The output parses
// back to an equal schema and is used in diagnostics.
func (s *Schema) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte('(')
	for i, a := range s.Arguments {
		if i > 0 {
			b.WriteString(", ")
		}
		writeArgument(&b, a, true)
	}
	if s.IsVararg {
		if len(s.Arguments) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	b.WriteString(") -> (")
	for i, r := range s.Returns {
		if i > 0 {
			b.WriteString(", ")
		}
		writeArgument(&b, r, false)
	}
	if s.IsVarret {
		if len(s.Returns) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	b.WriteByte(')')
	return b.String()
}

func writeArgument(b *strings.Builder, a Argument, named bool) {
	b.WriteString(typeKeyword(a.Type))
	if a.Alias != nil {
		b.WriteByte('(')
		if a.Alias.IsWildcard {
			b.WriteByte('*')
		} else {
			b.WriteString(a.Alias.Symbol)
			if a.Alias.IsWrite {
				b.WriteByte('!')
			}
		}
		b.WriteByte(')')
	}
	if named && a.Name != "" {
		b.WriteByte(' ')
		b.WriteString(a.Name)
	}
}

// typeKeyword renders a type in signature syntax, which differs from
// types.Type.String for the tensor and number keywords.
func typeKeyword(t types.Type) string {
	switch t.Kind() {
	case types.DynamicTensorKind:
		return "Tensor"
	case types.NumberKind:
		return "Scalar"
	case types.ListKind:
		return typeKeyword(t.(*types.ListType).Elem) + "[]"
	case types.OptionalKind:
		return typeKeyword(t.(*types.OptionalType).Elem) + "?"
	case types.FutureKind:
		return "Future[" + typeKeyword(t.(*types.FutureType).Elem) + "]"
	case types.TupleKind:
		elems := t.(*types.TupleType).Elems
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = typeKeyword(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return t.String()
	}
}
