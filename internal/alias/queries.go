package alias

import (
	"github.com/roach88/tensorjit/internal/ir"
)

// AliasSets returns the sets v may belong to, sorted. Unannotated values
// return nil.
func (db *DB) AliasSets(v *ir.Value) []Symbol {
	info, ok := db.valueToAlias[v]
	if !ok {
		return nil
	}
	return info.Sets()
}

// IsWildcard reports whether v carries the universal set.
func (db *DB) IsWildcard(v *ir.Value) bool {
	info, ok := db.valueToAlias[v]
	return ok && info.IsWildcard()
}

// Writers returns the nodes that may write to sym.
func (db *DB) Writers(sym Symbol) map[*ir.Node]bool {
	out := make(map[*ir.Node]bool)
	for n := range db.aliasToWrites[sym] {
		out[n] = true
	}
	return out
}

// HasWildcard reports whether any input or output of n is wildcard.
func (db *DB) HasWildcard(n *ir.Node) bool {
	for _, in := range n.Inputs() {
		if db.IsWildcard(in) {
			return true
		}
	}
	for _, out := range n.Outputs() {
		if db.IsWildcard(out) {
			return true
		}
	}
	return false
}

// HasWrites reports whether n's schema marks any argument as written.
func (db *DB) HasWrites(n *ir.Node) bool {
	s := n.MaybeSchema()
	if s == nil {
		return false
	}
	for _, arg := range s.Arguments {
		if arg.Alias != nil && arg.Alias.IsWrite {
			return true
		}
	}
	return false
}

// WritersOf returns the union of writer sets for every alias set touched by
// n's inputs or outputs.
func (db *DB) WritersOf(n *ir.Node) map[*ir.Node]bool {
	touched := make(map[Symbol]struct{})
	collect := func(v *ir.Value) {
		if info, ok := db.valueToAlias[v]; ok {
			for sym := range info.sets {
				touched[sym] = struct{}{}
			}
		}
	}
	for _, in := range n.Inputs() {
		collect(in)
	}
	for _, out := range n.Outputs() {
		collect(out)
	}

	writers := make(map[*ir.Node]bool)
	for sym := range touched {
		for w := range db.aliasToWrites[sym] {
			writers[w] = true
		}
	}
	return writers
}

// HasWriters reports whether any node writes to an alias set n touches.
func (db *DB) HasWriters(n *ir.Node) bool {
	return len(db.WritersOf(n)) > 0
}

// writesAnything reports whether n appears in any writer set.
func (db *DB) writesAnything(n *ir.Node) bool {
	for _, writers := range db.aliasToWrites {
		if _, ok := writers[n]; ok {
			return true
		}
	}
	return false
}

// MayConflict reports whether reordering a and b could change an observed
// value: one of them may write to an alias set the other touches. Wildcard
// membership conflicts with any writer. MayConflict implements
// ir.ConflictChecker for TryMove.
func (db *DB) MayConflict(a, b *ir.Node) bool {
	if db.HasWildcard(a) && db.writesAnything(b) {
		return true
	}
	if db.HasWildcard(b) && db.writesAnything(a) {
		return true
	}
	return db.WritersOf(a)[b] || db.WritersOf(b)[a]
}
