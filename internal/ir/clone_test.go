package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tensorjit/internal/types"
)

func buildControlFlowGraph(t *testing.T) *Graph {
	t.Helper()
	g := New(nil)
	cond, err := g.AddInput().SetType(types.Bool).SetUniqueName("cond")
	require.NoError(t, err)
	x, err := g.AddInput().SetType(types.Dynamic).SetUniqueName("x")
	require.NoError(t, err)

	ifn := g.CreateIf(cond, 1)
	g.Block().Append(ifn)
	ifn.Output(0).SetType(types.Dynamic)

	neg := g.CreateWithInputs("aten::neg", []*Value{x}, 1)
	neg.Output(0).SetType(types.Dynamic)
	ifn.Blocks()[0].Append(neg)
	ifn.Blocks()[0].RegisterOutput(neg.Output(0))
	ifn.Blocks()[1].RegisterOutput(x)

	g.RegisterOutput(ifn.Output(0))
	require.NoError(t, g.Lint())
	return g
}

func TestGraphCopyLints(t *testing.T) {
	g := buildControlFlowGraph(t)
	cp := g.Copy()
	require.NoError(t, cp.Lint())
	assert.Equal(t, g.String(), cp.String())
}

func TestCreateCloneTranslatesInputs(t *testing.T) {
	g := New(nil)
	a := appendOp(g)
	b := appendOp(g, a.Output(0))

	c := appendOp(g)
	clone := g.CreateClone(b, func(v *Value) *Value {
		require.Same(t, a.Output(0), v)
		return c.Output(0)
	}, true)
	g.Block().Append(clone)

	assert.Equal(t, b.Kind(), clone.Kind())
	assert.Same(t, c.Output(0), clone.Input(0))
	assert.Len(t, clone.Outputs(), 1)
	require.NoError(t, g.Lint())
}

func TestCloneFromCopiesMetadataNotInputs(t *testing.T) {
	g := New(nil)
	src := g.Create("aten::dropout", 1)
	src.SetFloat("p", 0.5)
	src.SetScope("layer1")
	src.SetSourceLocation("model.py:10")
	a := appendOp(g)
	src.AddInput(a.Output(0))

	dst := g.Create("aten::dropout", 1)
	dst.CloneFrom(src)
	assert.Equal(t, 0.5, dst.Float("p"))
	assert.Equal(t, "layer1", dst.Scope())
	assert.Equal(t, "model.py:10", dst.SourceLocation())
	assert.Empty(t, dst.Inputs())
}

func TestCopyFusionGroupIsDeep(t *testing.T) {
	g := New(nil)
	x, err := g.AddInput().SetType(types.Dynamic).SetUniqueName("x")
	require.NoError(t, err)

	fg := g.CreateFusionGroup()
	g.Block().Append(fg)
	fg.AddInput(x)
	fg.AddOutput().SetType(types.Dynamic)

	sub := fg.Subgraph(AttrSubgraph)
	a, err := sub.AddInput().SetType(types.Dynamic).SetUniqueName("a")
	require.NoError(t, err)
	relu := sub.CreateWithInputs("aten::relu", []*Value{a}, 1)
	relu.Output(0).SetType(types.Dynamic)
	sub.Block().Append(relu)
	sub.RegisterOutput(relu.Output(0))

	g.RegisterOutput(fg.Output(0))
	require.NoError(t, g.Lint())

	cp := g.Copy()
	require.NoError(t, cp.Lint())
	cpFg := cp.Nodes()[0]
	assert.NotSame(t, sub, cpFg.Subgraph(AttrSubgraph))
	assert.Equal(t, sub.String(), cpFg.Subgraph(AttrSubgraph).String())
}
