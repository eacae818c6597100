// Package types defines the closed type variant consumed by the IR.
//
// The variant is deliberately small: tensors (dynamic, complete, undefined),
// scalars (Number with Int/Float refinements, bool, string, None), Generator,
// and the container types List, Tuple, Optional and Future. Var is a named
// placeholder used only while matching operator schemas against actual
// argument types.
//
// All Type values are immutable after construction and safe to share between
// goroutines. Singletons exist for every kind that carries no payload.
//
// types imports nothing internal. schema and ir build on top of it.
package types
