package ir

import "strings"

// Kind is a namespaced node symbol, e.g. "prim::Loop" or "aten::add".
type Kind string

// Built-in node kinds. Everything in the prim namespace is structural and is
// given special treatment by the alias analysis; operator kinds live in their
// own namespaces and resolve through the schema registry.
const (
	KindParam  Kind = "prim::Param"
	KindReturn Kind = "prim::Return"

	KindIf   Kind = "prim::If"
	KindLoop Kind = "prim::Loop"

	KindFusionGroup         Kind = "prim::FusionGroup"
	KindDifferentiableGraph Kind = "prim::DifferentiableGraph"

	KindConstant       Kind = "prim::Constant"
	KindListConstruct  Kind = "prim::ListConstruct"
	KindTupleConstruct Kind = "prim::TupleConstruct"
	KindUndefined      Kind = "prim::Undefined"
	KindFusedConcat    Kind = "prim::FusedConcat"

	KindTupleUnpack Kind = "prim::TupleUnpack"
	KindTupleIndex  Kind = "prim::TupleIndex"
	KindTupleSlice  Kind = "prim::TupleSlice"
	KindListUnpack  Kind = "prim::ListUnpack"

	// KindExternalOp is an opaque call into the embedding layer. The core
	// knows nothing about its behavior; analyses treat it conservatively.
	KindExternalOp Kind = "prim::ExternalOp"

	KindConstantChunk Kind = "prim::ConstantChunk"
)

// Unqualified strips the namespace qualifier.
func (k Kind) Unqualified() string {
	if i := strings.LastIndex(string(k), "::"); i >= 0 {
		return string(k)[i+2:]
	}
	return string(k)
}
