package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// AttrSubgraph is the attribute name under which subgraph-bearing nodes
// (fusion groups, differentiable subgraphs) keep their body.
const AttrSubgraph = "Subgraph"

// attr is one entry of a node's attribute bag. The value is one of int64,
// float64, string, []int64 or *Graph. Insertion order is preserved and is
// the printer order.
type attr struct {
	name  string
	value any
}

func (n *Node) findAttr(name string) int {
	for i := range n.attrs {
		if n.attrs[i].name == name {
			return i
		}
	}
	return -1
}

func (n *Node) setAttr(name string, value any) *Node {
	n.schema = nil
	if i := n.findAttr(name); i >= 0 {
		n.attrs[i].value = value
		return n
	}
	n.attrs = append(n.attrs, attr{name: name, value: value})
	return n
}

// HasAttributes reports whether the bag is nonempty.
func (n *Node) HasAttributes() bool { return len(n.attrs) > 0 }

// HasAttribute reports whether name is present.
func (n *Node) HasAttribute(name string) bool { return n.findAttr(name) >= 0 }

// AttributeNames returns attribute names in insertion order.
func (n *Node) AttributeNames() []string {
	names := make([]string, len(n.attrs))
	for i := range n.attrs {
		names[i] = n.attrs[i].name
	}
	return names
}

// RemoveAttribute drops name from the bag.
func (n *Node) RemoveAttribute(name string) {
	if i := n.findAttr(name); i >= 0 {
		n.schema = nil
		n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
	}
}

// SetInt stores an integer attribute.
func (n *Node) SetInt(name string, v int64) *Node { return n.setAttr(name, v) }

// Int fetches an integer attribute; the attribute must exist.
func (n *Node) Int(name string) int64 { return n.mustAttr(name).(int64) }

// SetFloat stores a float attribute.
func (n *Node) SetFloat(name string, v float64) *Node { return n.setAttr(name, v) }

// Float fetches a float attribute; the attribute must exist.
func (n *Node) Float(name string) float64 { return n.mustAttr(name).(float64) }

// SetStr stores a string attribute.
func (n *Node) SetStr(name string, v string) *Node { return n.setAttr(name, v) }

// Str fetches a string attribute; the attribute must exist.
func (n *Node) Str(name string) string { return n.mustAttr(name).(string) }

// SetInts stores an integer-list attribute.
func (n *Node) SetInts(name string, v []int64) *Node { return n.setAttr(name, v) }

// Ints fetches an integer-list attribute; the attribute must exist.
func (n *Node) Ints(name string) []int64 { return n.mustAttr(name).([]int64) }

// SetGraph stores a subgraph attribute.
func (n *Node) SetGraph(name string, v *Graph) *Node { return n.setAttr(name, v) }

// Subgraph fetches a subgraph attribute; the attribute must exist.
func (n *Node) Subgraph(name string) *Graph { return n.mustAttr(name).(*Graph) }

// MaybeSubgraph fetches a subgraph attribute, or nil.
func (n *Node) MaybeSubgraph(name string) *Graph {
	if i := n.findAttr(name); i >= 0 {
		if g, ok := n.attrs[i].value.(*Graph); ok {
			return g
		}
	}
	return nil
}

func (n *Node) mustAttr(name string) any {
	i := n.findAttr(name)
	if i < 0 {
		panic(fmt.Sprintf("node %s has no attribute %q", n.kind, name))
	}
	return n.attrs[i].value
}

// copyAttributes copies the bag from src. Subgraph attributes are shared,
// not cloned; CreateClone handles recursive copies.
func (n *Node) copyAttributes(src *Node) {
	n.schema = nil
	n.attrs = make([]attr, len(src.attrs))
	copy(n.attrs, src.attrs)
}

// formatAttrValue renders an attribute value for the printer.
func formatAttrValue(v any) string {
	switch val := v.(type) {
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return strconv.Quote(val)
	case []int64:
		parts := make([]string, len(val))
		for i, x := range val {
			parts[i] = strconv.FormatInt(x, 10)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Graph:
		return "<Graph>"
	default:
		return fmt.Sprintf("%v", val)
	}
}
