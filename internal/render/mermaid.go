package render

import (
	"fmt"
	"strings"

	"github.com/cascade-data/cascade/internal/model"
)

// Mermaid renders the DAG as a mermaid flowchart, suitable for embedding in
// markdown.
func Mermaid(p *model.Project) string {
	var sb strings.Builder
	sb.WriteString("flowchart LR\n")

	for _, s := range sortedSources(p) {
		fmt.Fprintf(&sb, "  %s[(\"%s\")]\n", nodeID(s), s.String())
	}
	for _, id := range p.ModelIDs() {
		fmt.Fprintf(&sb, "  %s[\"%s\"]\n", nodeID(id), id.String())
	}
	for _, e := range edges(p) {
		fmt.Fprintf(&sb, "  %s --> %s\n", nodeID(e[0]), nodeID(e[1]))
	}
	return sb.String()
}
