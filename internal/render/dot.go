package render

import (
	"fmt"
	"strings"

	"github.com/cascade-data/cascade/internal/model"
)

// Dot renders the DAG as a Graphviz digraph. Sources get a cylinder shape,
// models a box.
func Dot(p *model.Project) string {
	var sb strings.Builder
	sb.WriteString("digraph models {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [fontname=\"Helvetica\"];\n")

	for _, s := range sortedSources(p) {
		fmt.Fprintf(&sb, "  %s [label=%q, shape=cylinder];\n", nodeID(s), s.String())
	}
	for _, id := range p.ModelIDs() {
		fmt.Fprintf(&sb, "  %s [label=%q, shape=box];\n", nodeID(id), id.String())
	}
	for _, e := range edges(p) {
		fmt.Fprintf(&sb, "  %s -> %s;\n", nodeID(e[0]), nodeID(e[1]))
	}

	sb.WriteString("}\n")
	return sb.String()
}
