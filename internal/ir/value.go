package ir

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tensorjit/internal/types"
)

// Use records one consumption of a value: the using node and the input offset
// within it.
type Use struct {
	User   *Node
	Offset int
}

// Value is an SSA value: defined by exactly one node (or a block parameter)
// and consumed through an explicit use list.
type Value struct {
	node   *Node
	offset int
	typ    types.Type
	unique int
	name   string // unique name; empty means unnamed
	uses   []Use
}

func newValue(n *Node, offset int) *Value {
	g := n.graph
	v := &Value{
		node:   n,
		offset: offset,
		typ:    types.Dynamic,
		unique: g.nextUnique,
	}
	g.nextUnique++
	g.allValues[v] = struct{}{}
	return v
}

// Node returns the defining node.
func (v *Value) Node() *Node { return v.node }

// Offset returns the position of v among its node's outputs.
func (v *Value) Offset() int { return v.offset }

// Type returns the value's type.
func (v *Value) Type() types.Type { return v.typ }

// SetType sets the value's type and returns v.
func (v *Value) SetType(t types.Type) *Value {
	v.typ = t
	return v
}

// Unique returns the value's integer identity, fresh within its graph.
func (v *Value) Unique() int { return v.unique }

// Uses returns the value's use list. Callers must not mutate it.
func (v *Value) Uses() []Use { return v.uses }

// HasUses reports whether any node consumes v.
func (v *Value) HasUses() bool { return len(v.uses) > 0 }

// HasUniqueName reports whether a human-readable name was assigned.
func (v *Value) HasUniqueName() bool { return v.name != "" }

// UniqueName returns the assigned name, or "" when unnamed.
func (v *Value) UniqueName() string { return v.name }

// DisplayName is the printer identity: the unique name when assigned,
// otherwise the decimal unique.
func (v *Value) DisplayName() string {
	if v.name != "" {
		return v.name
	}
	return strconv.Itoa(v.unique)
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// SetUniqueName assigns name to v. Names are NFC-normalized before entering
// the name map so visually identical spellings collide deterministically.
// Pure-digit names are rejected: they would shadow the numeric display names.
// Passing "" clears the name. If another value holds the name it is renamed
// to the first free "base.N" suffix.
func (v *Value) SetUniqueName(name string) (*Value, error) {
	if isAllDigits(name) {
		return nil, v.node.invariantf("names may not be integers: %q", name)
	}
	name = norm.NFC.String(name)
	v.setUniqueNameUnchecked("")
	if name == "" {
		return v, nil
	}

	names := v.node.graph.uniqueNames
	if old, ok := names[name]; ok {
		suffix := 1
		base := name
		if i := strings.LastIndex(name, "."); i >= 0 && i+1 < len(name) && isAllDigits(name[i+1:]) {
			n, _ := strconv.Atoi(name[i+1:])
			suffix = n
			base = name[:i]
		}
		var replacement string
		for {
			replacement = fmt.Sprintf("%s.%d", base, suffix)
			suffix++
			if _, taken := names[replacement]; !taken {
				break
			}
		}
		if _, err := old.SetUniqueName(replacement); err != nil {
			return nil, err
		}
	}

	names[name] = v
	v.name = name
	return v, nil
}

// setUniqueNameUnchecked clears or sets the name without collision handling.
func (v *Value) setUniqueNameUnchecked(name string) {
	if v.name != "" {
		delete(v.node.graph.uniqueNames, v.name)
	}
	v.name = name
}

// CopyMetadata copies type and unique name from another value.
func (v *Value) CopyMetadata(from *Value) *Value {
	v.SetType(from.Type())
	if from.HasUniqueName() {
		// the source name is already normalized and non-numeric
		if _, err := v.SetUniqueName(from.UniqueName()); err != nil {
			panic(err)
		}
	}
	return v
}

// ReplaceFirstUseWith redirects the first use of v to newValue.
func (v *Value) ReplaceFirstUseWith(newValue *Value) {
	if v.node.graph != newValue.node.graph {
		panic("replacing a use with a value from a different graph")
	}
	u := v.uses[0]
	u.User.inputs[u.Offset] = newValue
	newValue.uses = append(newValue.uses, u)
	v.uses = v.uses[1:]
}

// ReplaceAllUsesWith redirects every use of v to newValue.
func (v *Value) ReplaceAllUsesWith(newValue *Value) {
	for v.HasUses() {
		v.ReplaceFirstUseWith(newValue)
	}
}
