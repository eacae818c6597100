package ir

// Lint checks the graph's representation invariants and returns the first
// violation as a *GraphError with code INVARIANT_VIOLATION.
//
// These checks deliberately reach into the internal members so that any
// change to the data representation forces a fresh look at the invariants.
func (g *Graph) Lint() error {
	l := &linter{
		g:               g,
		scope:           &lintScope{},
		seenUniques:     make(map[int]struct{}),
		anticipatedUses: make(map[*Node]int),
		sumNodes:        make(map[*Node]struct{}),
	}
	return l.checkGraph()
}

// lintScope tracks lexical visibility during the recursive walk.
type lintScope struct {
	parent *lintScope
	values map[*Value]struct{}
	nodes  map[*Node]struct{}
}

func (s *lintScope) hasValue(v *Value) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.values[v]; ok {
			return true
		}
	}
	return false
}

func (s *lintScope) hasNode(n *Node) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.nodes[n]; ok {
			return true
		}
	}
	return false
}

func (s *lintScope) insertValue(v *Value) {
	if s.values == nil {
		s.values = make(map[*Value]struct{})
	}
	s.values[v] = struct{}{}
}

func (s *lintScope) insertNode(n *Node) {
	if s.nodes == nil {
		s.nodes = make(map[*Node]struct{})
	}
	s.nodes[n] = struct{}{}
}

type linter struct {
	g           *Graph
	scope       *lintScope
	seenUniques map[int]struct{}

	// anticipatedUses counts, per user node, the uses registered by values
	// checked so far; when the user itself is checked the count must equal
	// its input arity. -1 marks an already-checked user.
	anticipatedUses map[*Node]int

	sumNodes map[*Node]struct{}
}

func (l *linter) checkValue(v *Value) error {
	if l.scope.hasValue(v) {
		return l.g.invariantf("value %%%s appears in scope twice", v.DisplayName())
	}
	l.scope.insertValue(v)

	if _, ok := l.g.allValues[v]; !ok {
		return l.g.invariantf("value %%%s is not in the graph's value population", v.DisplayName())
	}
	if _, seen := l.seenUniques[v.unique]; seen {
		return l.g.invariantf("unique %d assigned to two values", v.unique)
	}
	l.seenUniques[v.unique] = struct{}{}
	if v.unique >= l.g.nextUnique {
		return l.g.invariantf("unique %d is not below the graph counter %d", v.unique, l.g.nextUnique)
	}
	if v.name != "" && l.g.uniqueNames[v.name] != v {
		return l.g.invariantf("unique name %q is not registered to its value", v.name)
	}

	for _, use := range v.uses {
		if l.scope.hasNode(use.User) {
			return l.g.invariantf("use of %%%s occurs before its definition", v.DisplayName())
		}
		if _, ok := l.g.allNodes[use.User]; !ok {
			return l.g.invariantf("user of %%%s is not in the graph's node population", v.DisplayName())
		}
		if use.Offset < 0 || use.Offset >= len(use.User.inputs) || use.User.inputs[use.Offset] != v {
			return l.g.invariantf("use list of %%%s is inconsistent with its user's inputs", v.DisplayName())
		}
		l.anticipatedUses[use.User]++
	}
	return nil
}

func (l *linter) checkNode(n *Node) error {
	for i, input := range n.inputs {
		if !l.scope.hasValue(input) {
			return n.invariantf("input %d (%%%s) is not in scope", i, input.DisplayName())
		}
		// the reverse direction of use/def symmetry
		found := 0
		for _, use := range input.uses {
			if use.User == n && use.Offset == i {
				found++
			}
		}
		if found != 1 {
			return n.invariantf("input %d is recorded %d times on its value's use list", i, found)
		}
	}

	if l.anticipatedUses[n] != len(n.inputs) {
		return n.invariantf("anticipated %d uses but node has %d inputs", l.anticipatedUses[n], len(n.inputs))
	}
	l.anticipatedUses[n] = -1
	l.scope.insertNode(n)
	l.sumNodes[n] = struct{}{}

	for _, block := range n.blocks {
		l.scope = &lintScope{parent: l.scope}
		if err := l.checkBlock(block); err != nil {
			return err
		}
		l.scope = l.scope.parent
	}
	if sub := n.MaybeSubgraph(AttrSubgraph); sub != nil {
		if err := sub.Lint(); err != nil {
			return err
		}
	}

	for j, out := range n.outputs {
		if out.node != n {
			return n.invariantf("output %d does not point back at its node", j)
		}
		if out.offset != j {
			return n.invariantf("output %d records offset %d", j, out.offset)
		}
		if err := l.checkValue(out); err != nil {
			return err
		}
	}

	switch n.kind {
	case KindReturn:
		if len(n.outputs) != 0 {
			return n.invariantf("return sentinel has outputs")
		}
	case KindParam:
		if len(n.inputs) != 0 {
			return n.invariantf("param sentinel has inputs")
		}
	}
	return nil
}

func (l *linter) checkBlock(b *Block) error {
	if _, ok := l.g.allBlocks[b]; !ok {
		return l.g.invariantf("block is not in the graph's block population")
	}
	if b.param.topoPos != topoLowerBound || b.ret.topoPos != topoUpperBound {
		return l.g.invariantf("block sentinels are not pinned at the index bounds")
	}

	// strictly increasing topological positions along the ring
	for cur := b.param; cur != b.ret; cur = cur.next {
		if cur.next.topoPos <= cur.topoPos {
			return l.g.invariantf("topological positions are not strictly increasing")
		}
		if cur.next.block != b {
			return l.g.invariantf("node in block ring does not point back at the block")
		}
	}

	for _, input := range b.Inputs() {
		if input.node.kind != KindParam {
			return l.g.invariantf("block input %%%s is not defined by the param sentinel", input.DisplayName())
		}
		if err := l.checkValue(input); err != nil {
			return err
		}
	}
	l.sumNodes[b.param] = struct{}{}

	for _, n := range b.Nodes() {
		if n.kind == KindParam || n.kind == KindReturn {
			return n.invariantf("sentinel kind occurs in the node list")
		}
		if _, ok := l.g.allNodes[n]; !ok {
			return n.invariantf("node is not in the graph's node population")
		}
		if err := l.checkNode(n); err != nil {
			return err
		}
	}

	if b.ret.kind != KindReturn {
		return l.g.invariantf("block output sentinel has kind %s", b.ret.kind)
	}
	return l.checkNode(b.ret)
}

func (l *linter) checkGraph() error {
	if err := l.checkBlock(l.g.block); err != nil {
		return err
	}
	for n, count := range l.anticipatedUses {
		if count != -1 {
			return n.invariantf("node with registered uses was never reached in the walk")
		}
	}
	// every node in the population is reachable
	for n := range l.g.allNodes {
		if _, ok := l.sumNodes[n]; !ok && n.kind != KindParam && n.kind != KindReturn {
			if n.InBlockList() {
				return n.invariantf("placed node in the population was not visited")
			}
			// unplaced nodes are tolerated mid-mutation
		}
	}
	return nil
}
