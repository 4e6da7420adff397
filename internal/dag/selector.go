package dag

import (
	"fmt"
	"strings"

	"github.com/cascade-data/cascade/internal/model"
)

// Selector grammar:
//
//	schema.name        exact model (error if unknown)
//	tag:<t>            models tagged <t> (no match is not an error)
//	deps:<rel>         <rel> plus its transitive upstream
//	downstream:<rel>   <rel> plus its transitive downstream
//	tree:<rel>         union of upstream and downstream

// ResolveSelector resolves one selector string into a model set.
func (g *Graph) ResolveSelector(selector string) (map[model.Relation]bool, error) {
	set := map[model.Relation]bool{}

	prefix, arg, ok := strings.Cut(selector, ":")
	if !ok {
		rel, err := model.ParseRelation(selector)
		if err != nil {
			return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
		}
		if g.project.Models[rel] == nil {
			return nil, &UnknownModelError{Target: rel}
		}
		set[rel] = true
		return set, nil
	}

	switch prefix {
	case "tag":
		tag := strings.ToLower(strings.TrimSpace(arg))
		for id, m := range g.project.Models {
			if m.Header.HasTag(tag) {
				set[id] = true
			}
		}
		return set, nil

	case "deps", "downstream", "tree":
		rel, err := model.ParseRelation(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
		}
		if prefix == "deps" || prefix == "tree" {
			up, err := g.UpstreamOrder(rel)
			if err != nil {
				return nil, err
			}
			for _, id := range up {
				set[id] = true
			}
		}
		if prefix == "downstream" || prefix == "tree" {
			down, err := g.DownstreamOrder(rel)
			if err != nil {
				return nil, err
			}
			for _, id := range down {
				set[id] = true
			}
		}
		return set, nil
	}
	return nil, fmt.Errorf("unknown selector prefix %q in %q", prefix, selector)
}

// ApplySelectors resolves selectors and excludes into the final ordered model
// list: the union of selector sets (all models when none are given), minus
// the union of exclude sets, filtered from the global topological order.
func (g *Graph) ApplySelectors(selectors, excludes []string) ([]model.Relation, error) {
	selected := map[model.Relation]bool{}
	if len(selectors) == 0 {
		for id := range g.project.Models {
			selected[id] = true
		}
	}
	for _, s := range selectors {
		set, err := g.ResolveSelector(s)
		if err != nil {
			return nil, err
		}
		for id := range set {
			selected[id] = true
		}
	}

	for _, s := range excludes {
		set, err := g.ResolveSelector(s)
		if err != nil {
			return nil, err
		}
		for id := range set {
			delete(selected, id)
		}
	}

	topo, err := g.TopoSort()
	if err != nil {
		return nil, err
	}
	var order []model.Relation
	for _, id := range topo {
		if selected[id] {
			order = append(order, id)
		}
	}
	return order, nil
}
