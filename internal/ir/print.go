package ir

import (
	"fmt"
	"strings"
)

// The debug textual form follows an SSA-style line-oriented syntax:
//
//	graph(%x : Dynamic,
//	      %y : Dynamic) {
//	  %2 : Dynamic = aten::mul(%x, %y)
//	  return (%2)
//	}
//
// Subgraph attributes are hoisted and printed after the enclosing graph as
// "with <kind>_N = <graph>". The output is deterministic for a given graph
// state.

// String renders the graph's debug textual form.
func (g *Graph) String() string {
	var b strings.Builder
	var groups []*Node

	b.WriteString("graph(")
	writeValueListWithTypes(&b, g.Inputs(), ",\n      ")
	b.WriteString(") {\n")
	for _, n := range g.Nodes() {
		printNode(&b, 1, n, &groups)
	}
	b.WriteString("  return (")
	writeValueList(&b, g.Outputs())
	b.WriteString(")\n}\n")

	for i, fg := range groups {
		fmt.Fprintf(&b, "with %s_%d = %s", fg.kind, i, fg.Subgraph(AttrSubgraph))
	}
	return b.String()
}

// Dump renders a single node (with any nested blocks) for diagnostics.
func (n *Node) Dump() string {
	var b strings.Builder
	printNode(&b, 0, n, nil)
	return b.String()
}

func printNode(b *strings.Builder, level int, n *Node, groups *[]*Node) {
	writeIndent(b, level)
	if len(n.outputs) > 0 {
		writeValueListWithTypes(b, n.outputs, ", ")
		b.WriteString(" = ")
	}

	if n.HasAttribute(AttrSubgraph) && groups != nil {
		fmt.Fprintf(b, "%s_%d", n.kind, len(*groups))
		if len(n.attrs) > 1 {
			writeAttributes(b, n, true)
		}
		*groups = append(*groups, n)
	} else {
		b.WriteString(string(n.kind))
		if n.HasAttributes() {
			writeAttributes(b, n, false)
		}
	}

	b.WriteByte('(')
	writeValueList(b, n.inputs)
	b.WriteByte(')')
	if n.scope != "" {
		b.WriteString(", scope: ")
		b.WriteString(n.scope)
	}
	b.WriteByte('\n')

	for i, block := range n.blocks {
		writeIndent(b, level+1)
		fmt.Fprintf(b, "block%d(", i)
		writeValueListWithTypes(b, block.Inputs(), ", ")
		b.WriteString(") {\n")
		for _, inner := range block.Nodes() {
			printNode(b, level+2, inner, groups)
		}
		writeIndent(b, level+2)
		b.WriteString("-> (")
		writeValueList(b, block.Outputs())
		b.WriteString(")\n")
		writeIndent(b, level+1)
		b.WriteString("}\n")
	}
}

func writeAttributes(b *strings.Builder, n *Node, ignoreSubgraph bool) {
	b.WriteByte('[')
	first := true
	for _, a := range n.attrs {
		if ignoreSubgraph && a.name == AttrSubgraph {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(a.name)
		b.WriteByte('=')
		b.WriteString(formatAttrValue(a.value))
	}
	b.WriteByte(']')
}

func writeValueList(b *strings.Builder, values []*Value) {
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('%')
		b.WriteString(v.DisplayName())
	}
}

func writeValueListWithTypes(b *strings.Builder, values []*Value, sep string) {
	for i, v := range values {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteByte('%')
		b.WriteString(v.DisplayName())
		b.WriteString(" : ")
		b.WriteString(v.typ.String())
	}
}

func writeIndent(b *strings.Builder, level int) {
	for i := 0; i < level; i++ {
		b.WriteString("  ")
	}
}
