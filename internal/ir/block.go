package ir

// Block is a linear sequence of nodes bracketed by a param sentinel (holding
// the block's input values) and a return sentinel (holding its outputs). The
// sentinels close the ring: param.prev == ret and ret.next == param.
type Block struct {
	graph *Graph
	owner *Node // nil for the graph's root block
	param *Node
	ret   *Node
}

func newBlock(g *Graph, owner *Node) *Block {
	b := &Block{graph: g, owner: owner}
	b.param = newNode(g, KindParam)
	b.ret = newNode(g, KindReturn)
	b.param.block = b
	b.ret.block = b
	b.param.topoPos = topoLowerBound
	b.ret.topoPos = topoUpperBound
	b.param.next = b.ret
	b.param.prev = b.ret
	b.ret.next = b.param
	b.ret.prev = b.param
	g.allBlocks[b] = struct{}{}
	return b
}

// OwningGraph returns the graph that owns b.
func (b *Block) OwningGraph() *Graph { return b.graph }

// OwningNode returns the control-flow node b belongs to, or nil for the
// graph's root block.
func (b *Block) OwningNode() *Node { return b.owner }

// ParamNode returns the input sentinel.
func (b *Block) ParamNode() *Node { return b.param }

// ReturnNode returns the output sentinel.
func (b *Block) ReturnNode() *Node { return b.ret }

// Inputs returns the block's parameter values.
func (b *Block) Inputs() []*Value { return b.param.Outputs() }

// Outputs returns the block's output values.
func (b *Block) Outputs() []*Value { return b.ret.Inputs() }

// Nodes returns the real nodes between the sentinels, in topological order.
func (b *Block) Nodes() []*Node {
	var nodes []*Node
	for n := b.param.next; n != b.ret; n = n.next {
		nodes = append(nodes, n)
	}
	return nodes
}

// First returns the first real node, or nil for an empty block.
func (b *Block) First() *Node {
	if b.param.next == b.ret {
		return nil
	}
	return b.param.next
}

// AddInput appends a fresh block parameter.
func (b *Block) AddInput() *Value { return b.param.AddOutput() }

// EraseInput destroys block parameter i; it must be unused.
func (b *Block) EraseInput(i int) error { return b.param.EraseOutput(i) }

// RegisterOutput appends v to the block outputs and returns its offset.
func (b *Block) RegisterOutput(v *Value) int {
	b.ret.AddInput(v)
	return len(b.ret.inputs) - 1
}

// EraseOutput drops block output i.
func (b *Block) EraseOutput(i int) { b.ret.RemoveInput(i) }

// Append places the unplaced n at the end of the block.
func (b *Block) Append(n *Node) *Node { return n.InsertBefore(b.ret) }

// Prepend places the unplaced n at the front of the block.
func (b *Block) Prepend(n *Node) *Node { return n.InsertAfter(b.param) }

// reindex walks the block and re-spaces every node at appendInterval above
// the lower bound. The sentinels keep their pinned positions.
func (b *Block) reindex() {
	pos := topoLowerBound
	for n := b.param.next; n != b.ret; n = n.next {
		if pos > topoUpperBound-appendInterval {
			panic("topological index exhausted during reindex")
		}
		pos += appendInterval
		n.topoPos = pos
	}
}

// CloneFrom appends clones of src's nodes to b, translating inputs through
// valueMap for values defined outside src. Block parameters and outputs are
// cloned as well, so b is normally fresh.
func (b *Block) CloneFrom(src *Block, valueMap func(*Value) *Value) {
	local := make(map[*Value]*Value)
	env := func(v *Value) *Value {
		if mapped, ok := local[v]; ok {
			return mapped
		}
		return valueMap(v)
	}

	for _, input := range src.Inputs() {
		local[input] = b.AddInput().CopyMetadata(input)
	}
	for _, node := range src.Nodes() {
		// CreateClone copies output metadata
		clone := b.Append(b.graph.CreateClone(node, env, true))
		for i, out := range node.Outputs() {
			local[out] = clone.Output(i)
		}
	}
	for _, output := range src.Outputs() {
		b.RegisterOutput(env(output))
	}
}

// destroy tears the block down in reverse order. The return sentinel must
// stay valid until the loop finishes since it terminates iteration.
func (b *Block) destroy() error {
	b.ret.RemoveAllInputs()
	nodes := b.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		if err := nodes[i].Destroy(); err != nil {
			return err
		}
	}
	if err := b.ret.Destroy(); err != nil {
		return err
	}
	if err := b.param.Destroy(); err != nil {
		return err
	}
	b.graph.freeBlock(b)
	return nil
}
