package ir

import (
	"github.com/google/uuid"

	"github.com/roach88/tensorjit/internal/schema"
	"github.com/roach88/tensorjit/internal/types"
)

// Graph owns every Node, Value and Block reachable from it. Ownership is
// exclusive: entities never migrate between graphs.
type Graph struct {
	id       string
	registry *schema.Registry

	// populations; lint checks that everything reachable is a member
	allNodes  map[*Node]struct{}
	allValues map[*Value]struct{}
	allBlocks map[*Block]struct{}

	block *Block // root block

	// nextUnique assigns each Value a fresh integer identity.
	nextUnique int

	// uniqueNames maps every non-empty unique name to its owner.
	uniqueNames map[string]*Value

	scope string
}

// New creates an empty graph. The registry resolves operator schemas and may
// be nil, in which case no node has a schema.
func New(registry *schema.Registry) *Graph {
	g := &Graph{
		id:          uuid.Must(uuid.NewV7()).String(),
		registry:    registry,
		allNodes:    make(map[*Node]struct{}),
		allValues:   make(map[*Value]struct{}),
		allBlocks:   make(map[*Block]struct{}),
		uniqueNames: make(map[string]*Value),
	}
	g.block = newBlock(g, nil)
	return g
}

// ID returns the graph's debug identity (a UUIDv7). It appears in error
// context and logs; it has no semantic meaning.
func (g *Graph) ID() string { return g.id }

// Registry returns the schema registry the graph resolves operators against,
// or nil.
func (g *Graph) Registry() *schema.Registry { return g.registry }

// Block returns the root block.
func (g *Graph) Block() *Block { return g.block }

// Inputs returns the root block's parameter values.
func (g *Graph) Inputs() []*Value { return g.block.Inputs() }

// Outputs returns the root block's output values.
func (g *Graph) Outputs() []*Value { return g.block.Outputs() }

// AddInput appends a fresh graph input.
func (g *Graph) AddInput() *Value { return g.block.AddInput() }

// RegisterOutput appends v to the graph outputs and returns its offset.
func (g *Graph) RegisterOutput(v *Value) int { return g.block.RegisterOutput(v) }

// Nodes iterates the root block's real nodes in topological order.
func (g *Graph) Nodes() []*Node { return g.block.Nodes() }

// SetScope sets the scope recorded on subsequently created nodes.
func (g *Graph) SetScope(scope string) { g.scope = scope }

// Scope returns the current scope.
func (g *Graph) Scope() string { return g.scope }

// Create allocates a fresh unplaced node with numOutputs fresh output values.
func (g *Graph) Create(kind Kind, numOutputs int) *Node {
	n := newNode(g, kind)
	for i := 0; i < numOutputs; i++ {
		n.AddOutput()
	}
	return n
}

// CreateWithInputs is Create followed by AddInput for each input.
func (g *Graph) CreateWithInputs(kind Kind, inputs []*Value, numOutputs int) *Node {
	n := g.Create(kind, numOutputs)
	for _, in := range inputs {
		n.AddInput(in)
	}
	return n
}

// CreateUndefined creates an undefined-tensor producer.
func (g *Graph) CreateUndefined() *Node {
	n := g.Create(KindUndefined, 1)
	n.Output(0).SetType(types.Undefined)
	return n
}

// CreateTuple packs values into a tuple; the output type is the tuple of the
// element types.
func (g *Graph) CreateTuple(values ...*Value) *Node {
	elems := make([]types.Type, len(values))
	for i, v := range values {
		elems[i] = v.Type()
	}
	n := g.CreateWithInputs(KindTupleConstruct, values, 1)
	n.Output(0).SetType(types.Tuple(elems...))
	return n
}

// CreateTupleUnpack unpacks a tuple-typed value into one output per element.
func (g *Graph) CreateTupleUnpack(v *Value) *Node {
	tt := v.Type().(*types.TupleType)
	n := g.CreateWithInputs(KindTupleUnpack, []*Value{v}, 0)
	for _, elem := range tt.Elems {
		n.AddOutput().SetType(elem)
	}
	return n
}

// CreateTupleIndex extracts element i of a tuple-typed value.
func (g *Graph) CreateTupleIndex(v *Value, i int64) *Node {
	tt := v.Type().(*types.TupleType)
	n := g.CreateWithInputs(KindTupleIndex, []*Value{v}, 1)
	n.SetInt("index", i)
	n.Output(0).SetType(tt.Elems[i])
	return n
}

// CreateTupleSlice extracts elements [beg, end) of a tuple-typed value.
func (g *Graph) CreateTupleSlice(v *Value, beg, end int64) *Node {
	tt := v.Type().(*types.TupleType)
	n := g.CreateWithInputs(KindTupleSlice, []*Value{v}, 1)
	n.SetInt("beg", beg)
	n.SetInt("end", end)
	n.Output(0).SetType(types.Tuple(tt.Elems[beg:end]...))
	return n
}

// CreateList packs values into a homogeneous list of elem.
func (g *Graph) CreateList(elem types.Type, values ...*Value) *Node {
	n := g.CreateWithInputs(KindListConstruct, values, 1)
	n.Output(0).SetType(types.List(elem))
	return n
}

// CreateListUnpack unpacks a list-typed value into size outputs.
func (g *Graph) CreateListUnpack(v *Value, size int) *Node {
	lt := v.Type().(*types.ListType)
	n := g.CreateWithInputs(KindListUnpack, []*Value{v}, 0)
	for i := 0; i < size; i++ {
		n.AddOutput().SetType(lt.Elem)
	}
	return n
}

// CreateChunk splits a tensor into chunks views along dim. Every output may
// alias the input.
func (g *Graph) CreateChunk(v *Value, chunks, dim int64) *Node {
	n := g.CreateWithInputs(KindConstantChunk, []*Value{v}, int(chunks))
	n.SetInt("chunks", chunks)
	n.SetInt("dim", dim)
	for _, out := range n.Outputs() {
		out.SetType(types.Dynamic)
	}
	return n
}

// CreateIf creates a conditional with empty then and else blocks.
func (g *Graph) CreateIf(cond *Value, numOutputs int) *Node {
	n := g.CreateWithInputs(KindIf, []*Value{cond}, numOutputs)
	n.AddBlock()
	n.AddBlock()
	return n
}

// CreateLoop creates a loop node. Inputs are (maxTripCount, initialCond,
// carried...); the body receives (iteration, carried...) and yields
// (cond, carried...).
func (g *Graph) CreateLoop(maxTrip, cond *Value, carried ...*Value) *Node {
	inputs := append([]*Value{maxTrip, cond}, carried...)
	n := g.CreateWithInputs(KindLoop, inputs, len(carried))
	body := n.AddBlock()
	body.AddInput().SetType(types.Int) // iteration counter
	for _, c := range carried {
		body.AddInput().SetType(c.Type())
	}
	return n
}

// CreateFusionGroup creates a subgraph-bearing node whose body lives in a
// Subgraph attribute.
func (g *Graph) CreateFusionGroup() *Node {
	n := g.Create(KindFusionGroup, 0)
	sub := New(g.registry)
	sub.scope = g.scope
	n.SetGraph(AttrSubgraph, sub)
	return n
}

// CreateClone produces a structurally identical unplaced copy of src, which
// may live in a different graph. Inputs are translated through valueMap;
// child blocks are recursively cloned when copyBlocks is set. Subgraph
// attributes are cloned into this graph as well.
func (g *Graph) CreateClone(src *Node, valueMap func(*Value) *Value, copyBlocks bool) *Node {
	n := newNode(g, src.kind)
	for _, out := range src.Outputs() {
		n.AddOutput().CopyMetadata(out)
	}
	n.CloneFrom(src)
	for _, in := range src.Inputs() {
		n.AddInput(valueMap(in))
	}
	if copyBlocks {
		for _, b := range src.Blocks() {
			n.AddBlock().CloneFrom(b, valueMap)
		}
		if sub := src.MaybeSubgraph(AttrSubgraph); sub != nil {
			n.SetGraph(AttrSubgraph, sub.Copy())
		}
	}
	return n
}

// Copy deep-clones the graph. Values used out of scope fail the value map,
// so run Lint first.
func (g *Graph) Copy() *Graph {
	fresh := New(g.registry)
	fresh.block.CloneFrom(g.block, func(v *Value) *Value {
		panic("graph copy encountered a use of a value not in scope; run Lint")
	})
	return fresh
}

func (g *Graph) freeNode(n *Node) {
	if _, ok := g.allNodes[n]; !ok {
		panic("freeing a node that is not in the graph")
	}
	delete(g.allNodes, n)
}

func (g *Graph) freeValue(v *Value) {
	v.setUniqueNameUnchecked("")
	if _, ok := g.allValues[v]; !ok {
		panic("freeing a value that is not in the graph")
	}
	delete(g.allValues, v)
}

func (g *Graph) freeBlock(b *Block) {
	if _, ok := g.allBlocks[b]; !ok {
		panic("freeing a block that is not in the graph")
	}
	delete(g.allBlocks, b)
}
