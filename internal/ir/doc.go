// Package ir implements the graph intermediate representation: a typed,
// blocked, topologically ordered graph of nodes and values supporting
// in-place mutation with invariant preservation.
//
// A Graph owns three populations - all Nodes, all Values, all Blocks - and
// has exactly one root Block. A Block is a doubly linked ring of Nodes
// bracketed by two sentinels: a param node holding the block's input values
// and a return node holding its outputs. Values are created as node outputs
// (or block parameters) and carry an explicit use list.
//
// Every placed node has a signed 64-bit topological position. Appending
// advances by a fixed stride, insertion between neighbors takes the midpoint,
// and when the midpoint collapses the whole block is re-indexed. IsBefore and
// IsAfter are O(1) within a block and walk owning blocks to a common ancestor
// across blocks.
//
// THREADING: a Graph and everything reachable from it is owned by one
// goroutine at a time. No operation blocks. Lint may run from any goroutine
// provided no mutator is concurrently active.
//
// Lint checks the representation invariants and returns a *GraphError with
// code INVARIANT_VIOLATION on the first violation found. Run it after any
// nontrivial pass.
package ir
