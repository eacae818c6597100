package ir

// MoveSide selects which side of the move point a node lands on.
type MoveSide int

const (
	MoveBefore MoveSide = iota
	MoveAfter
)

// ConflictChecker reports mutation-ordering constraints between two nodes.
// The alias analysis implements it: two nodes conflict when one may write to
// an alias set the other reads or writes, so reordering them can change the
// value observed. A nil checker constrains by value dependencies only.
type ConflictChecker interface {
	MayConflict(a, b *Node) bool
}

// workingSet is the group of nodes that must travel together during TryMove
// because they are transitively depended on in the scan direction.
type workingSet struct {
	conflicts ConflictChecker
	nodes     []*Node
	// users counts, per consumer node, how many working-set nodes it uses
	users map[*Node]int
}

func newWorkingSet(mover *Node, conflicts ConflictChecker) *workingSet {
	ws := &workingSet{conflicts: conflicts, users: make(map[*Node]int)}
	ws.add(mover)
	return ws
}

// add grows the set with n and indexes n's users.
func (ws *workingSet) add(n *Node) {
	ws.nodes = append(ws.nodes, n)
	for user := range usersInSameBlock(n) {
		ws.users[user]++
	}
}

// eraseMover removes the original mover (always the first element) from the
// set, dropping consumers that only used the mover.
func (ws *workingSet) eraseMover() {
	mover := ws.nodes[0]
	for user := range usersInSameBlock(mover) {
		if ws.users[user] == 1 {
			delete(ws.users, user)
		} else {
			ws.users[user]--
		}
	}
	ws.nodes = ws.nodes[1:]
}

// dependsOn reports whether the set cannot be reordered past n: either a
// value dependency exists in the relevant direction, or the alias analysis
// reports a write conflict between n and some member.
func (ws *workingSet) dependsOn(n *Node) bool {
	if len(ws.nodes) == 0 {
		return false
	}

	if n.IsAfter(ws.nodes[0]) {
		if ws.producesFor(n) {
			return true
		}
	} else if ws.consumesFrom(n) {
		return true
	}

	if ws.conflicts != nil {
		for _, member := range ws.nodes {
			if ws.conflicts.MayConflict(member, n) {
				return true
			}
		}
	}
	return false
}

// producesFor reports whether any member's output is consumed by n.
func (ws *workingSet) producesFor(n *Node) bool {
	return ws.users[n] != 0
}

// consumesFrom reports whether any member consumes an output of n.
func (ws *workingSet) consumesFrom(n *Node) bool {
	users := usersInSameBlock(n)
	for _, member := range ws.nodes {
		if _, ok := users[member]; ok {
			return true
		}
	}
	return false
}

// usersInSameBlock collects the users of n's outputs, attributing a use
// inside a sub-block to the enclosing node in n's block, so outer-block
// scheduling stays conservative.
func usersInSameBlock(n *Node) map[*Node]struct{} {
	users := make(map[*Node]struct{})
	for _, out := range n.Outputs() {
		for _, use := range out.Uses() {
			user := use.User
			for user.OwningBlock() != n.OwningBlock() {
				user = user.OwningBlock().OwningNode()
				if user == nil {
					panic("use does not resolve into the defining block")
				}
			}
			users[user] = struct{}{}
		}
	}
	return users
}

// TryMove attempts to relocate n so it ends up immediately before or after
// movePoint while preserving all producer-consumer dependencies and all
// mutation orderings reported by conflicts. Both nodes must be placed in the
// same block. Returns false iff no such move exists; the graph is unchanged
// in that case.
//
// The approach: scan one node at a time from n toward movePoint, keeping a
// working set of everything that must travel along. A scanned node the set
// depends on joins the set; anything else is passed over. When n moves away
// from its dependencies the set must be split: n alone lands on the target
// side of movePoint and the rest on the opposite side.
func (n *Node) TryMove(movePoint *Node, side MoveSide, conflicts ConflictChecker) bool {
	if !n.InBlockList() || !movePoint.InBlockList() {
		panic("TryMove requires placed nodes")
	}
	if n.OwningBlock() != movePoint.OwningBlock() {
		panic("TryMove requires nodes in the same block")
	}
	if n == movePoint {
		return true
	}

	ws := newWorkingSet(n, conflicts)

	moveUp := n.IsAfter(movePoint)
	step := func(cur *Node) *Node {
		if moveUp {
			return cur.prev
		}
		return cur.next
	}

	for cur := step(n); cur != movePoint; cur = step(cur) {
		if ws.dependsOn(cur) {
			ws.add(cur)
		}
	}

	// Moving before a later movePoint (or after an earlier one) pulls n away
	// from its dependencies, which then must land on the far side.
	split := (side == MoveBefore && n.IsBefore(movePoint)) ||
		(side == MoveAfter && n.IsAfter(movePoint))
	if split {
		ws.eraseMover()
	}

	if ws.dependsOn(movePoint) {
		return false
	}

	if split {
		n.moveToSide(movePoint, side)
		opposite := MoveBefore
		if side == MoveBefore {
			opposite = MoveAfter
		}
		at := movePoint
		for _, member := range ws.nodes {
			member.moveToSide(at, opposite)
			at = member
		}
	} else {
		at := movePoint
		for _, member := range ws.nodes {
			member.moveToSide(at, side)
			at = member
		}
	}
	return true
}

func (n *Node) moveToSide(at *Node, side MoveSide) {
	if side == MoveBefore {
		n.MoveBefore(at)
	} else {
		n.MoveAfter(at)
	}
}
