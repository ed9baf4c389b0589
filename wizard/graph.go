package wizard

import (
	"fmt"
	"strings"
)

// ToDOT renders the transition table in Graphviz DOT.
func (m *Machine) ToDOT() string {
	var b strings.Builder
	b.WriteString("digraph wizard {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")
	b.WriteString("  __start [shape=point];\n")
	fmt.Fprintf(&b, "  __start -> %q;\n\n", m.initial)

	for _, s := range m.states {
		attrs := ""
		if m.final[s] {
			attrs = " [shape=doubleoctagon]"
		}
		fmt.Fprintf(&b, "  %q%s;\n", s, attrs)
	}
	b.WriteByte('\n')

	for _, from := range m.states {
		for _, t := range m.table[from] {
			label := string(t.event)
			style := ""
			if t.guard != nil {
				label += " [" + t.label + "]"
				style = ", style=dashed"
			}
			if t.event == EventCancel {
				style += ", color=gray"
			}
			fmt.Fprintf(&b, "  %q -> %q [label=%q%s];\n", from, t.to, label, style)
		}
	}
	b.WriteString("}\n")
	return b.String()
}
