package render

import (
	"strings"

	"github.com/cascade-data/cascade/internal/dag"
	"github.com/cascade-data/cascade/internal/model"
)

// Ascii renders the DAG as an indented listing in execution order. Each model
// shows its materialization and declared dependencies.
func Ascii(p *model.Project, g *dag.Graph) (string, error) {
	order, err := g.TopoSort()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, id := range order {
		m := p.Models[id]
		sb.WriteString(id.String())
		sb.WriteString(" [")
		sb.WriteString(m.Header.Materialized.String())
		sb.WriteString("]\n")

		deps, sources := modelDeps(p, m)
		for _, d := range deps {
			sb.WriteString("  <- ")
			sb.WriteString(d.String())
			sb.WriteString("\n")
		}
		for _, s := range sources {
			sb.WriteString("  <- ")
			sb.WriteString(s.String())
			sb.WriteString(" (source)\n")
		}
	}
	return sb.String(), nil
}
