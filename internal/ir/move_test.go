package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tensorjit/internal/types"
)

// pairConflicts reports a conflict for exactly the registered node pairs,
// in either order.
type pairConflicts struct {
	pairs [][2]*Node
}

func (c *pairConflicts) MayConflict(a, b *Node) bool {
	for _, p := range c.pairs {
		if (p[0] == a && p[1] == b) || (p[0] == b && p[1] == a) {
			return true
		}
	}
	return false
}

func TestTryMoveSkipsIndependentNodes(t *testing.T) {
	g := New(nil)
	a := appendOp(g)
	b := appendOp(g)
	c := appendOp(g)

	assert.True(t, c.TryMove(a, MoveAfter, nil))
	assert.Equal(t, []*Node{a, c, b}, g.Nodes())
	require.NoError(t, g.Lint())
}

func TestTryMoveCarriesDependencies(t *testing.T) {
	g := New(nil)
	p := appendOp(g)
	q := appendOp(g, p.Output(0))
	r := appendOp(g)

	// q consumes p, so moving p past r drags q along
	assert.True(t, p.TryMove(r, MoveAfter, nil))
	assert.Equal(t, []*Node{r, p, q}, g.Nodes())
	require.NoError(t, g.Lint())
}

func TestTryMoveBlockedByValueDependency(t *testing.T) {
	g := New(nil)
	p := appendOp(g)
	q := appendOp(g, p.Output(0))

	assert.False(t, q.TryMove(p, MoveBefore, nil))
	assert.Equal(t, []*Node{p, q}, g.Nodes(), "failed move leaves the graph unchanged")
	require.NoError(t, g.Lint())
}

func TestTryMoveSideDistinction(t *testing.T) {
	// With dependencies this -> n and an unrelated o, moving after n is
	// impossible but moving before o splits this from its dependency.
	g := New(nil)
	this := appendOp(g)
	n := appendOp(g, this.Output(0))
	o := appendOp(g)

	assert.False(t, this.TryMove(n, MoveAfter, nil))

	assert.True(t, this.TryMove(o, MoveBefore, nil))
	assert.Equal(t, []*Node{this, o, n}, g.Nodes())
	require.NoError(t, g.Lint())
}

func TestTryMoveBlockedByAliasWrite(t *testing.T) {
	// %a = const(); %b = op1(%a); %c = write_op(%a); %d = op2(%b)
	g := New(nil)
	a := appendOp(g)
	b := appendOp(g, a.Output(0))
	c := appendOp(g, a.Output(0))
	d := appendOp(g, b.Output(0))

	conflicts := &pairConflicts{pairs: [][2]*Node{{b, c}}}

	// d only needs b; passing over the writer c is fine
	assert.True(t, d.TryMove(b, MoveAfter, conflicts))
	assert.Equal(t, []*Node{a, b, d, c}, g.Nodes())

	// b reads %a which c writes; moving b past c would change the value read
	assert.False(t, b.TryMove(c, MoveAfter, conflicts))
	assert.Equal(t, []*Node{a, b, d, c}, g.Nodes())
	require.NoError(t, g.Lint())
}

func TestTryMoveAndUndo(t *testing.T) {
	g := New(nil)
	a := appendOp(g)
	b := appendOp(g)
	c := appendOp(g)

	require.True(t, c.TryMove(a, MoveAfter, nil))
	require.Equal(t, []*Node{a, c, b}, g.Nodes())

	require.True(t, c.TryMove(b, MoveAfter, nil))
	assert.Equal(t, []*Node{a, b, c}, g.Nodes())
}

func TestTryMoveAttributesSubBlockUses(t *testing.T) {
	// A use inside an if sub-block pins the enclosing if node to p.
	g := New(nil)
	cond := g.AddInput().SetType(types.Bool)
	p := appendOp(g)
	ifn := g.CreateIf(cond, 0)
	g.Block().Append(ifn)
	q := appendOp(g)

	inner := g.Create(testOp, 1)
	inner.AddInput(p.Output(0))
	ifn.Blocks()[0].Append(inner)

	assert.True(t, p.TryMove(q, MoveAfter, nil))
	assert.Equal(t, []*Node{q, p, ifn}, g.Nodes(), "the if node travels with p")
	require.NoError(t, g.Lint())
}

func TestTryMoveSamePoint(t *testing.T) {
	g := New(nil)
	a := appendOp(g)
	assert.True(t, a.TryMove(a, MoveAfter, nil))
	assert.Equal(t, []*Node{a}, g.Nodes())
}
