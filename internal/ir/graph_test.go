package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tensorjit/internal/types"
)

const testOp Kind = "test::op"

func appendOp(g *Graph, inputs ...*Value) *Node {
	n := g.CreateWithInputs(testOp, inputs, 1)
	n.Output(0).SetType(types.Dynamic)
	return g.Block().Append(n)
}

func TestAppendAssignsStridePositions(t *testing.T) {
	g := New(nil)
	var nodes []*Node
	for i := 0; i < 10; i++ {
		nodes = append(nodes, appendOp(g))
	}
	for k, n := range nodes {
		want := math.MinInt64 + appendInterval*int64(k+1)
		assert.Equal(t, want, n.TopoPosition(), "node %d", k)
	}
	require.NoError(t, g.Lint())
}

func TestInsertBetweenTakesMidpoint(t *testing.T) {
	g := New(nil)
	a := appendOp(g)
	b := appendOp(g)

	mid := g.Create(testOp, 1)
	mid.InsertAfter(a)
	want := a.TopoPosition() + (b.TopoPosition()-a.TopoPosition())/2
	assert.Equal(t, want, mid.TopoPosition())
	assert.Equal(t, []*Node{a, mid, b}, g.Nodes())
}

func TestForcedReindex(t *testing.T) {
	g := New(nil)
	appendOp(g)

	// Each insertion directly after the param sentinel halves the gap to the
	// current first node. The 41st insertion finds no midpoint left and
	// forces a reindex of the whole block.
	for i := 0; i < 41; i++ {
		n := g.Create(testOp, 1)
		g.Block().Prepend(n)
	}

	nodes := g.Nodes()
	require.Len(t, nodes, 42)
	for k, n := range nodes {
		want := math.MinInt64 + appendInterval*int64(k+1)
		assert.Equal(t, want, n.TopoPosition(), "node %d", k)
	}
	require.NoError(t, g.Lint())
}

func TestUseListMaintenance(t *testing.T) {
	g := New(nil)
	a := appendOp(g)
	c := appendOp(g)
	d := appendOp(g)
	b := appendOp(g, a.Output(0))

	require.Len(t, a.Output(0).Uses(), 1)
	assert.Equal(t, Use{User: b, Offset: 0}, a.Output(0).Uses()[0])

	b.AddInput(c.Output(0))
	assert.Equal(t, Use{User: b, Offset: 1}, c.Output(0).Uses()[0])

	// insert shifts later offsets up
	b.InsertInput(0, d.Output(0))
	assert.Equal(t, []*Value{d.Output(0), a.Output(0), c.Output(0)}, b.Inputs())
	assert.Equal(t, Use{User: b, Offset: 1}, a.Output(0).Uses()[0])
	assert.Equal(t, Use{User: b, Offset: 2}, c.Output(0).Uses()[0])

	// remove shifts them back down
	b.RemoveInput(0)
	assert.Empty(t, d.Output(0).Uses())
	assert.Equal(t, Use{User: b, Offset: 0}, a.Output(0).Uses()[0])
	assert.Equal(t, Use{User: b, Offset: 1}, c.Output(0).Uses()[0])

	old := b.ReplaceInput(0, d.Output(0))
	assert.Same(t, a.Output(0), old)
	assert.Empty(t, a.Output(0).Uses())
	assert.Len(t, d.Output(0).Uses(), 1)

	require.NoError(t, g.Lint())
}

func TestReplaceInputWith(t *testing.T) {
	g := New(nil)
	a := appendOp(g)
	b := appendOp(g)
	user := appendOp(g, a.Output(0), a.Output(0))

	user.ReplaceInputWith(a.Output(0), b.Output(0))
	assert.Equal(t, []*Value{b.Output(0), b.Output(0)}, user.Inputs())
	assert.Empty(t, a.Output(0).Uses())
	assert.Len(t, b.Output(0).Uses(), 2)
	require.NoError(t, g.Lint())
}

func TestEraseOutputRequiresNoUses(t *testing.T) {
	g := New(nil)
	a := appendOp(g)
	appendOp(g, a.Output(0))

	err := a.EraseOutput(0)
	require.Error(t, err)
	assert.True(t, IsInvariantViolation(err))

	multi := g.Block().Append(g.Create(testOp, 3))
	second := multi.Output(1)
	third := multi.Output(2)
	require.NoError(t, multi.EraseOutput(0))
	assert.Equal(t, []*Value{second, third}, multi.Outputs())
	assert.Equal(t, 0, second.Offset())
	assert.Equal(t, 1, third.Offset())
}

func TestReplaceAllUsesWith(t *testing.T) {
	g := New(nil)
	a := appendOp(g)
	b := appendOp(g)
	u1 := appendOp(g, a.Output(0))
	u2 := appendOp(g, a.Output(0))

	a.ReplaceAllUsesWith(b)
	assert.Empty(t, a.Output(0).Uses())
	assert.Len(t, b.Output(0).Uses(), 2)
	assert.Same(t, b.Output(0), u1.Input(0))
	assert.Same(t, b.Output(0), u2.Input(0))
	require.NoError(t, g.Lint())
}

func TestDestroy(t *testing.T) {
	g := New(nil)
	a := appendOp(g)
	user := appendOp(g, a.Output(0))

	err := a.Destroy()
	require.Error(t, err, "output still used")

	require.NoError(t, user.Destroy())
	assert.Empty(t, a.Output(0).Uses())
	require.NoError(t, a.Destroy())
	assert.Empty(t, g.Nodes())
	require.NoError(t, g.Lint())
}

func TestNodeStateTransitions(t *testing.T) {
	g := New(nil)
	n := g.Create(testOp, 1)
	assert.False(t, n.InBlockList())

	g.Block().Append(n)
	assert.True(t, n.InBlockList())

	n.RemoveFromList()
	assert.False(t, n.InBlockList())

	g.Block().Append(n)
	require.NoError(t, n.Destroy())
	_, alive := g.allNodes[n]
	assert.False(t, alive)
}

func TestUniqueNames(t *testing.T) {
	g := New(nil)
	a := appendOp(g)
	b := appendOp(g)

	_, err := a.Output(0).SetUniqueName("123")
	require.Error(t, err)

	_, err = a.Output(0).SetUniqueName("x")
	require.NoError(t, err)
	assert.Equal(t, "x", a.Output(0).DisplayName())

	// taking a held name renames the previous owner
	_, err = b.Output(0).SetUniqueName("x")
	require.NoError(t, err)
	assert.Equal(t, "x", b.Output(0).UniqueName())
	assert.Equal(t, "x.1", a.Output(0).UniqueName())

	// clearing restores the numeric display name
	_, err = b.Output(0).SetUniqueName("")
	require.NoError(t, err)
	assert.False(t, b.Output(0).HasUniqueName())
	require.NoError(t, g.Lint())
}

func TestIsBeforeAcrossBlocks(t *testing.T) {
	g := New(nil)
	cond := g.AddInput().SetType(types.Bool)
	before := appendOp(g)
	ifn := g.CreateIf(cond, 0)
	g.Block().Append(ifn)
	after := appendOp(g)

	inner := g.Create(testOp, 1)
	ifn.Blocks()[0].Append(inner)

	assert.True(t, before.IsBefore(inner))
	assert.True(t, inner.IsAfter(before))
	assert.True(t, inner.IsBefore(after))
	assert.False(t, inner.IsAfter(after))
	assert.False(t, inner.IsBefore(inner))
}

func TestMaybeSchemaWithoutRegistry(t *testing.T) {
	g := New(nil)
	n := appendOp(g)
	assert.Nil(t, n.MaybeSchema(), "no registry")
}
