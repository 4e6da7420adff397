// Package dag builds the model dependency graph, orders it topologically,
// and resolves selectors into model sets.
package dag

import (
	"fmt"
	"strings"

	"github.com/cascade-data/cascade/internal/model"
)

// CycleError reports a circular dependency, naming every model still part of
// an unresolved cycle.
type CycleError struct {
	Members []model.Relation
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Members))
	for i, m := range e.Members {
		names[i] = m.String()
	}
	return "circular dependency involving: " + strings.Join(names, ", ")
}

// UnknownModelError reports a target that is not a project model.
type UnknownModelError struct {
	Target model.Relation
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %s", e.Target)
}

// Graph is the dependency DAG over a project's models. Edges only exist
// between in-project models: declared deps pointing at sources are ignored.
type Graph struct {
	project *model.Project
}

// New builds a graph over the project.
func New(project *model.Project) *Graph {
	return &Graph{project: project}
}

// modelDeps returns the model's declared deps restricted to in-project
// models.
func (g *Graph) modelDeps(id model.Relation) []model.Relation {
	m := g.project.Models[id]
	if m == nil {
		return nil
	}
	var deps []model.Relation
	for _, d := range m.Header.Deps {
		if g.project.Models[d] != nil {
			deps = append(deps, d)
		}
	}
	return deps
}

// dependents builds the full reverse-adjacency map.
func (g *Graph) dependents() map[model.Relation][]model.Relation {
	rev := map[model.Relation][]model.Relation{}
	for _, id := range g.project.ModelIDs() {
		for _, dep := range g.modelDeps(id) {
			rev[dep] = append(rev[dep], id)
		}
	}
	return rev
}

// TopoSort orders every model so each appears after all of its in-project
// dependencies, using Kahn's algorithm. A cycle fails the sort and names
// every model with an unresolved dependency.
func (g *Graph) TopoSort() ([]model.Relation, error) {
	ids := g.project.ModelIDs()

	inDegree := map[model.Relation]int{}
	rev := map[model.Relation][]model.Relation{}
	for _, id := range ids {
		deps := g.modelDeps(id)
		inDegree[id] = len(deps)
		for _, dep := range deps {
			rev[dep] = append(rev[dep], id)
		}
	}

	var queue []model.Relation
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]model.Relation, 0, len(ids))
	for len(queue) > 0 {
		// Keep the queue sorted so ties break deterministically.
		model.SortRelations(queue)
		next := queue[0]
		queue = queue[1:]
		order = append(order, next)

		for _, dependent := range rev[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) < len(ids) {
		var members []model.Relation
		for _, id := range ids {
			if inDegree[id] > 0 {
				members = append(members, id)
			}
		}
		return nil, &CycleError{Members: members}
	}
	return order, nil
}

// UpstreamOrder returns target's transitive dependencies plus target itself,
// in dependency-before-dependent order. A dependency revisited while still
// on the current path is a true cycle, reported with the model that closes
// it.
func (g *Graph) UpstreamOrder(target model.Relation) ([]model.Relation, error) {
	if g.project.Models[target] == nil {
		return nil, &UnknownModelError{Target: target}
	}

	done := map[model.Relation]bool{}
	onPath := map[model.Relation]bool{}
	var order []model.Relation

	var visit func(id model.Relation) error
	visit = func(id model.Relation) error {
		if done[id] {
			return nil
		}
		if onPath[id] {
			return fmt.Errorf("circular dependency closed by %s", id)
		}
		onPath[id] = true
		for _, dep := range g.modelDeps(id) {
			if err := visit(dep); err != nil {
				return err
			}
		}
		onPath[id] = false
		done[id] = true
		order = append(order, id)
		return nil
	}

	if err := visit(target); err != nil {
		return nil, err
	}
	return order, nil
}

// DownstreamOrder returns target plus every transitive dependent, in global
// topological order rather than visitation order.
func (g *Graph) DownstreamOrder(target model.Relation) ([]model.Relation, error) {
	if g.project.Models[target] == nil {
		return nil, &UnknownModelError{Target: target}
	}

	rev := g.dependents()
	reachable := map[model.Relation]bool{target: true}
	queue := []model.Relation{target}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, dep := range rev[next] {
			if !reachable[dep] {
				reachable[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	topo, err := g.TopoSort()
	if err != nil {
		return nil, err
	}
	var order []model.Relation
	for _, id := range topo {
		if reachable[id] {
			order = append(order, id)
		}
	}
	return order, nil
}
