// Package render produces textual renderings of a project's dependency
// graph: an ascii tree, Graphviz dot, Mermaid, and a JSON document.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cascade-data/cascade/internal/dag"
	"github.com/cascade-data/cascade/internal/model"
)

// Format names a graph rendering.
type Format string

const (
	FormatAscii   Format = "ascii"
	FormatDot     Format = "dot"
	FormatJSON    Format = "json"
	FormatMermaid Format = "mermaid"
)

// ParseFormat validates a format name from the CLI.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatAscii, FormatDot, FormatJSON, FormatMermaid:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown graph format %q: expected ascii, dot, json, or mermaid", s)
}

// Graph renders the project's DAG in the requested format.
func Graph(p *model.Project, g *dag.Graph, format Format) (string, error) {
	switch format {
	case FormatAscii:
		return Ascii(p, g)
	case FormatDot:
		return Dot(p), nil
	case FormatJSON:
		return JSON(p, g)
	case FormatMermaid:
		return Mermaid(p), nil
	}
	return "", fmt.Errorf("unknown graph format %q", format)
}

// modelDeps returns a model's declared deps split into models and sources,
// each sorted.
func modelDeps(p *model.Project, m *model.Model) (models, sources []model.Relation) {
	for _, d := range m.Header.Deps {
		if p.IsSource(d) {
			sources = append(sources, d)
		} else {
			models = append(models, d)
		}
	}
	model.SortRelations(models)
	model.SortRelations(sources)
	return models, sources
}

// sortedSources returns the project's source relations in sorted order.
func sortedSources(p *model.Project) []model.Relation {
	srcs := make([]model.Relation, 0, len(p.Sources))
	for s := range p.Sources {
		srcs = append(srcs, s)
	}
	model.SortRelations(srcs)
	return srcs
}

// nodeID turns a relation into an identifier safe for dot and mermaid.
func nodeID(rel model.Relation) string {
	s := rel.Schema + "_" + rel.Name
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		}
		return '_'
	}, s)
}

// edges lists every model -> dependency edge, sorted by dependent then dep.
func edges(p *model.Project) [][2]model.Relation {
	var out [][2]model.Relation
	for _, id := range p.ModelIDs() {
		deps := append([]model.Relation{}, p.Models[id].Header.Deps...)
		model.SortRelations(deps)
		for _, d := range deps {
			out = append(out, [2]model.Relation{d, id})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0].Less(out[j][0])
		}
		return out[i][1].Less(out[j][1])
	})
	return out
}
