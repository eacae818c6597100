// Package alias implements the flow-sensitive alias analysis over an IR
// graph.
//
// Analyze walks the graph bottom-up once (iterating loop bodies to a
// fixpoint) and assigns every annotatable value an alias-set membership: a
// set of symbols naming storage equivalence classes, or the wildcard that
// conservatively overlaps everything. A global map records, per alias set,
// the nodes that may write to it.
//
// Annotatable means the type could contain mutable state: tensors, lists,
// tuples, and optionals of annotatable types. Scalar values carry no alias
// information.
//
// For schematized operators the analysis binds each formal alias annotation
// to the actual argument's membership and propagates it onto the returns;
// write annotations insert the node into the writer map. Structural kinds
// (If, Loop, fusion groups, constructors, extractors, chunk) have dedicated
// analyzers, and unschematized aten::add/sub/mul/div outputs get fresh sets.
// Any other unschematized node with annotatable outputs is an
// UNKNOWN_OPERATOR error.
//
// The resulting DB is a pure function of the graph snapshot: analyzing the
// same graph twice yields identical state. The caller may query a DB
// concurrently for reads only. DB implements ir.ConflictChecker, which is
// how TryMove consults mutation ordering.
package alias
