package ir

import (
	"math"

	"github.com/roach88/tensorjit/internal/schema"
)

// Topological index constants.
//
// The param and return sentinels are pinned at the bounds and never
// participate in reindex arithmetic. Appends advance by appendInterval above
// the previous node, so after k appends into a fresh block the last node sits
// at lowerBound + k*appendInterval. appendInterval is 2^n where n bounds the
// number of repeated mid insertions without a reindex and 2^(64-n) bounds the
// appends.
const (
	topoLowerBound int64 = math.MinInt64
	topoUpperBound int64 = math.MaxInt64
	appendInterval int64 = 1 << 40
)

// Node is one operation in a block's topological order.
//
// A node is created unplaced; InsertBefore/InsertAfter splice it into a
// block's ring and assign its topological position. Destroy returns its
// storage to the graph.
type Node struct {
	kind  Kind
	graph *Graph
	block *Block // nil while unplaced

	inputs  []*Value
	outputs []*Value
	blocks  []*Block

	attrs  []attr
	schema *schema.Schema // cached; invalidated by any input/attr mutation

	scope  string
	source string // source location, for diagnostics

	topoPos    int64
	next, prev *Node
}

func newNode(g *Graph, kind Kind) *Node {
	n := &Node{kind: kind, graph: g, scope: g.scope}
	g.allNodes[n] = struct{}{}
	return n
}

// Kind returns the node's symbolic kind.
func (n *Node) Kind() Kind { return n.kind }

// OwningGraph returns the graph that owns n.
func (n *Node) OwningGraph() *Graph { return n.graph }

// OwningBlock returns the block n is placed in, or nil while unplaced.
func (n *Node) OwningBlock() *Block { return n.block }

// Scope returns the scope recorded at creation.
func (n *Node) Scope() string { return n.scope }

// SetScope overrides the recorded scope.
func (n *Node) SetScope(scope string) { n.scope = scope }

// SourceLocation returns the node's source location, or "".
func (n *Node) SourceLocation() string { return n.source }

// SetSourceLocation records a source location for diagnostics.
func (n *Node) SetSourceLocation(loc string) { n.source = loc }

// TopoPosition returns the node's topological position within its block.
func (n *Node) TopoPosition() int64 { return n.topoPos }

// Inputs returns the ordered input values. Callers must not mutate.
func (n *Node) Inputs() []*Value { return n.inputs }

// Input returns the i-th input.
func (n *Node) Input(i int) *Value { return n.inputs[i] }

// Outputs returns the owned output values. Callers must not mutate.
func (n *Node) Outputs() []*Value { return n.outputs }

// Output returns the i-th output.
func (n *Node) Output(i int) *Value { return n.outputs[i] }

// Blocks returns the child blocks. Callers must not mutate.
func (n *Node) Blocks() []*Block { return n.blocks }

// Next returns the successor in the block ring (the return sentinel after the
// last real node).
func (n *Node) Next() *Node { return n.next }

// Prev returns the predecessor in the block ring.
func (n *Node) Prev() *Node { return n.prev }

// InBlockList reports whether the node is placed.
func (n *Node) InBlockList() bool { return n.block != nil }

// MaybeSchema resolves and caches the node's schema through the graph's
// registry, or returns nil.
func (n *Node) MaybeSchema() *schema.Schema {
	if n.schema == nil && n.graph.registry != nil {
		n.schema = n.graph.registry.Lookup(string(n.kind), len(n.inputs))
	}
	return n.schema
}

// --- placement ----------------------------------------------------------

// InsertAfter splices the unplaced n into the ring directly after at, which
// must be placed. Inserting after the param sentinel prepends.
func (n *Node) InsertAfter(at *Node) *Node {
	if n.InBlockList() {
		panic("inserting a node that is already placed")
	}
	if at.block == nil {
		panic("insertion point is not placed")
	}
	n.block = at.block
	next := at.next
	at.next = n
	n.prev = at
	n.next = next
	next.prev = n
	n.assignTopoPosition()
	return n
}

// InsertBefore splices the unplaced n directly before at.
func (n *Node) InsertBefore(at *Node) *Node {
	return n.InsertAfter(at.prev)
}

// RemoveFromList unsplices a placed node, leaving it alive but unplaced.
func (n *Node) RemoveFromList() {
	if !n.InBlockList() {
		panic("removing a node that is not placed")
	}
	n.block = nil
	n.prev.next = n.next
	n.next.prev = n.prev
	n.next = nil
	n.prev = nil
}

// MoveAfter relocates n directly after at, unconditionally.
func (n *Node) MoveAfter(at *Node) {
	n.RemoveFromList()
	n.InsertAfter(at)
}

// MoveBefore relocates n directly before at, unconditionally.
func (n *Node) MoveBefore(at *Node) {
	n.RemoveFromList()
	n.InsertBefore(at)
}

// assignTopoPosition gives n a position consistent with its neighbors. Must
// run right after splicing.
//
// Appending advances a fixed interval past prev. Inserting between two nodes
// takes the midpoint. When the interval runs off the range or the midpoint
// collapses, the whole block is re-indexed at interval spacing.
func (n *Node) assignTopoPosition() {
	prevPos := n.prev.topoPos
	nextPos := n.next.topoPos

	if n.next == n.block.ret {
		// appending; prev may be the param sentinel at the lower bound
		if prevPos >= topoUpperBound-appendInterval {
			n.block.reindex()
			return
		}
		n.topoPos = prevPos + appendInterval
		return
	}

	between := prevPos + (nextPos-prevPos)/2
	if between == prevPos {
		// no room between the neighbors
		n.block.reindex()
		return
	}
	n.topoPos = between
}

// --- ordering -----------------------------------------------------------

// IsBefore reports whether n executes strictly before other.
func (n *Node) IsBefore(other *Node) bool {
	if n == other {
		return false
	}
	return !n.IsAfter(other)
}

// IsAfter reports whether n executes strictly after other. For nodes in
// different blocks the owning-block chains are walked to the first common
// ancestor block; two placed nodes always share one (the graph root).
func (n *Node) IsAfter(other *Node) bool {
	if n.graph != other.graph {
		panic("comparing nodes from different graphs")
	}
	if n.block == other.block {
		return n.topoPos > other.topoPos
	}

	for lhs := n; lhs != nil; lhs = lhs.block.owner {
		for rhs := other; rhs != nil; rhs = rhs.block.owner {
			if lhs.block == rhs.block {
				return lhs.IsAfter(rhs)
			}
		}
	}
	panic("nodes in the same graph share no ancestor block")
}

// --- input mutation -----------------------------------------------------

// AddInput appends value to the inputs and records the use.
func (n *Node) AddInput(value *Value) *Value {
	if value.node.graph != n.graph {
		panic("adding an input from a different graph")
	}
	n.schema = nil
	value.uses = append(value.uses, Use{User: n, Offset: len(n.inputs)})
	n.inputs = append(n.inputs, value)
	return value
}

// InsertInput places value at input offset i, shifting later use offsets up.
func (n *Node) InsertInput(i int, value *Value) *Value {
	if value.node.graph != n.graph {
		panic("adding an input from a different graph")
	}
	n.schema = nil
	for j := i; j < len(n.inputs); j++ {
		use := n.findUseForInput(j)
		use.Offset++
	}
	n.inputs = append(n.inputs, nil)
	copy(n.inputs[i+1:], n.inputs[i:])
	n.inputs[i] = value
	value.uses = append(value.uses, Use{User: n, Offset: i})
	return value
}

// RemoveInput drops input i, shifting later use offsets down.
func (n *Node) RemoveInput(i int) {
	n.schema = nil
	n.dropInput(i)
	for j := i + 1; j < len(n.inputs); j++ {
		use := n.findUseForInput(j)
		use.Offset--
	}
	n.inputs = append(n.inputs[:i], n.inputs[i+1:]...)
}

// RemoveAllInputs drops every input.
func (n *Node) RemoveAllInputs() {
	n.schema = nil
	for i := range n.inputs {
		n.dropInput(i)
	}
	n.inputs = n.inputs[:0]
}

// ReplaceInput swaps input i for newValue and returns the old value.
func (n *Node) ReplaceInput(i int, newValue *Value) *Value {
	if newValue.node.graph != n.graph {
		panic("replacing an input with a value from a different graph")
	}
	n.schema = nil
	old := n.dropInput(i)
	n.inputs[i] = newValue
	newValue.uses = append(newValue.uses, Use{User: n, Offset: i})
	return old
}

// ReplaceInputWith replaces every occurrence of from in the inputs with to.
func (n *Node) ReplaceInputWith(from, to *Value) {
	for i := 0; i < len(n.inputs); i++ {
		if n.inputs[i] == from {
			n.ReplaceInput(i, to)
		}
	}
}

// findUseForInput locates the use record on input i's list that points back
// at this node and offset. O(uses), which beats pointer chasing for the use
// counts seen in practice.
func (n *Node) findUseForInput(i int) *Use {
	uses := n.inputs[i].uses
	for k := range uses {
		if uses[k].User == n && uses[k].Offset == i {
			return &uses[k]
		}
	}
	panic("use list out of sync with inputs")
}

// dropInput removes the use record for input i and returns the value. The
// inputs slice itself is left to the caller.
func (n *Node) dropInput(i int) *Value {
	input := n.inputs[i]
	uses := input.uses
	for k := range uses {
		if uses[k].User == n && uses[k].Offset == i {
			input.uses = append(uses[:k], uses[k+1:]...)
			n.inputs[i] = nil
			return input
		}
	}
	panic("use list out of sync with inputs")
}

// --- output mutation ----------------------------------------------------

// AddOutput appends a fresh output value.
func (n *Node) AddOutput() *Value {
	n.schema = nil
	v := newValue(n, len(n.outputs))
	n.outputs = append(n.outputs, v)
	return v
}

// InsertOutput creates a fresh output value at offset i, shifting later
// outputs up.
func (n *Node) InsertOutput(i int) *Value {
	n.schema = nil
	v := newValue(n, i)
	n.outputs = append(n.outputs, nil)
	copy(n.outputs[i+1:], n.outputs[i:])
	n.outputs[i] = v
	for j := i + 1; j < len(n.outputs); j++ {
		n.outputs[j].offset++
	}
	return v
}

// EraseOutput destroys output i. Fails while the output has uses.
func (n *Node) EraseOutput(i int) error {
	if n.outputs[i].HasUses() {
		return n.invariantf("erasing output %d which still has %d uses", i, len(n.outputs[i].uses))
	}
	n.schema = nil
	v := n.outputs[i]
	n.outputs = append(n.outputs[:i], n.outputs[i+1:]...)
	n.graph.freeValue(v)
	for j := i; j < len(n.outputs); j++ {
		n.outputs[j].offset--
	}
	return nil
}

// ReplaceAllUsesWith redirects every use of every output to the
// corresponding output of other. The arities must match.
func (n *Node) ReplaceAllUsesWith(other *Node) {
	if len(n.outputs) != len(other.outputs) {
		panic("replacing uses between nodes of different arity")
	}
	for i, out := range n.outputs {
		out.ReplaceAllUsesWith(other.outputs[i])
	}
}

// --- blocks -------------------------------------------------------------

// AddBlock appends a fresh child block.
func (n *Node) AddBlock() *Block {
	n.schema = nil
	b := newBlock(n.graph, n)
	n.blocks = append(n.blocks, b)
	return b
}

// EraseBlock destroys child block i.
func (n *Node) EraseBlock(i int) error {
	n.schema = nil
	b := n.blocks[i]
	n.blocks = append(n.blocks[:i], n.blocks[i+1:]...)
	return b.destroy()
}

// --- lifecycle ----------------------------------------------------------

// Destroy erases all outputs (which must be unused), destroys child blocks,
// drops inputs, unsplices the node and returns its storage to the graph.
func (n *Node) Destroy() error {
	for _, out := range n.outputs {
		if out.HasUses() {
			return n.invariantf("destroying a node whose output %%%s still has uses", out.DisplayName())
		}
	}
	for len(n.outputs) > 0 {
		if err := n.EraseOutput(len(n.outputs) - 1); err != nil {
			return err
		}
	}
	for len(n.blocks) > 0 {
		if err := n.EraseBlock(len(n.blocks) - 1); err != nil {
			return err
		}
	}
	n.RemoveAllInputs()
	if n.InBlockList() {
		n.RemoveFromList()
	}
	n.graph.freeNode(n)
	return nil
}

// CloneFrom copies attributes, source location and scope from src. Inputs
// are not copied.
func (n *Node) CloneFrom(src *Node) {
	n.source = src.source
	if src.scope != "" {
		n.scope = src.scope
	}
	n.copyAttributes(src)
}
