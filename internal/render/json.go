package render

import (
	"encoding/json"
	"fmt"

	"github.com/cascade-data/cascade/internal/dag"
	"github.com/cascade-data/cascade/internal/model"
)

type jsonModel struct {
	ID           string   `json:"id"`
	Materialized string   `json:"materialized"`
	Tags         []string `json:"tags,omitempty"`
	Deps         []string `json:"deps,omitempty"`
	Sources      []string `json:"sources,omitempty"`
}

type jsonGraph struct {
	Models  []jsonModel `json:"models"`
	Sources []string    `json:"sources"`
	Order   []string    `json:"order"`
}

// JSON renders the DAG as a stable JSON document with models, sources, and
// the global execution order.
func JSON(p *model.Project, g *dag.Graph) (string, error) {
	order, err := g.TopoSort()
	if err != nil {
		return "", err
	}

	doc := jsonGraph{
		Sources: relationStrings(sortedSources(p)),
		Order:   relationStrings(order),
	}
	for _, id := range p.ModelIDs() {
		m := p.Models[id]
		deps, sources := modelDeps(p, m)
		doc.Models = append(doc.Models, jsonModel{
			ID:           id.String(),
			Materialized: m.Header.Materialized.String(),
			Tags:         m.Header.Tags,
			Deps:         relationStrings(deps),
			Sources:      relationStrings(sources),
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode graph: %w", err)
	}
	return string(data) + "\n", nil
}

func relationStrings(rels []model.Relation) []string {
	if len(rels) == 0 {
		return nil
	}
	out := make([]string, len(rels))
	for i, r := range rels {
		out[i] = r.String()
	}
	return out
}
