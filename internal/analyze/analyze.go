// Package analyze infers model dependencies from SQL, lints them against the
// declared header, and qualifies unqualified table references.
package analyze

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cascade-data/cascade/internal/model"
	"github.com/cascade-data/cascade/pkg/sql"
)

// Ref is one table reference found in a query, with the AST node so qualify
// can rewrite it.
type Ref struct {
	Parts []string
	Node  *sql.TableName
}

func (r Ref) String() string {
	return strings.Join(r.Parts, ".")
}

// collector walks a statement gathering table references. CTE names are
// tracked in a scope stack: a scope is pushed on entering a WITH clause and
// popped on exit, and name lookups search innermost-first.
type collector struct {
	scopes []map[string]bool
	refs   []Ref
}

// CollectRefs returns every table reference in the statement that is not a
// visible CTE name or a ${...} placeholder.
func CollectRefs(stmt *sql.SelectStmt) []Ref {
	c := &collector{}
	c.walkStmt(stmt)
	return c.refs
}

func (c *collector) pushScope() {
	c.scopes = append(c.scopes, map[string]bool{})
}

func (c *collector) popScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *collector) declare(name string) {
	c.scopes[len(c.scopes)-1][name] = true
}

// inScope searches the scope stack innermost-first.
func (c *collector) inScope(name string) bool {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i][name] {
			return true
		}
	}
	return false
}

func (c *collector) walkStmt(stmt *sql.SelectStmt) {
	if stmt == nil {
		return
	}
	if stmt.With != nil {
		c.pushScope()
		for _, cte := range stmt.With.CTEs {
			if stmt.With.Recursive {
				c.declare(cte.Name)
				c.walkStmt(cte.Select)
			} else {
				c.walkStmt(cte.Select)
				c.declare(cte.Name)
			}
		}
		c.walkBody(stmt.Body)
		c.popScope()
		return
	}
	c.walkBody(stmt.Body)
}

func (c *collector) walkBody(body *sql.SelectBody) {
	if body == nil {
		return
	}
	c.walkCore(body.Left)
	c.walkBody(body.Right)
}

func (c *collector) walkCore(core *sql.SelectCore) {
	if core == nil {
		return
	}
	for _, item := range core.Columns {
		c.walkExpr(item.Expr)
	}
	if core.From != nil {
		c.walkTableRef(core.From.Source)
		for _, join := range core.From.Joins {
			c.walkTableRef(join.Right)
			c.walkExpr(join.Condition)
		}
	}
	c.walkExpr(core.Where)
	for _, e := range core.GroupBy {
		c.walkExpr(e)
	}
	c.walkExpr(core.Having)
	for _, ob := range core.OrderBy {
		c.walkExpr(ob.Expr)
	}
	c.walkExpr(core.Limit)
	c.walkExpr(core.Offset)
	if core.Fetch != nil {
		c.walkExpr(core.Fetch.Count)
	}
}

func (c *collector) walkTableRef(ref sql.TableRef) {
	switch t := ref.(type) {
	case *sql.TableName:
		parts := t.Parts()
		if len(parts) == 1 && c.inScope(parts[0]) {
			return
		}
		c.refs = append(c.refs, Ref{Parts: parts, Node: t})
	case *sql.DerivedTable:
		c.walkStmt(t.Select)
	case *sql.LateralTable:
		c.walkStmt(t.Select)
	case *sql.PlaceholderTable:
		// ${this} and friends are resolved at compile time, not a dependency.
	}
}

func (c *collector) walkExpr(expr sql.Expr) {
	switch e := expr.(type) {
	case nil:
	case *sql.BinaryExpr:
		c.walkExpr(e.Left)
		c.walkExpr(e.Right)
	case *sql.UnaryExpr:
		c.walkExpr(e.Expr)
	case *sql.FuncCall:
		for _, a := range e.Args {
			c.walkExpr(a)
		}
		for _, ob := range e.OrderBy {
			c.walkExpr(ob.Expr)
		}
		for _, ob := range e.WithinGroup {
			c.walkExpr(ob.Expr)
		}
		c.walkExpr(e.Filter)
		if e.Window != nil {
			for _, p := range e.Window.PartitionBy {
				c.walkExpr(p)
			}
			for _, ob := range e.Window.OrderBy {
				c.walkExpr(ob.Expr)
			}
		}
	case *sql.CaseExpr:
		c.walkExpr(e.Operand)
		for _, when := range e.Whens {
			c.walkExpr(when.Condition)
			c.walkExpr(when.Result)
		}
		c.walkExpr(e.Else)
	case *sql.CastExpr:
		c.walkExpr(e.Expr)
	case *sql.InExpr:
		c.walkExpr(e.Expr)
		for _, v := range e.Values {
			c.walkExpr(v)
		}
		c.walkStmt(e.Query)
	case *sql.BetweenExpr:
		c.walkExpr(e.Expr)
		c.walkExpr(e.Low)
		c.walkExpr(e.High)
	case *sql.IsNullExpr:
		c.walkExpr(e.Expr)
	case *sql.IsBoolExpr:
		c.walkExpr(e.Expr)
	case *sql.LikeExpr:
		c.walkExpr(e.Expr)
		c.walkExpr(e.Pattern)
	case *sql.ParenExpr:
		c.walkExpr(e.Expr)
	case *sql.SubqueryExpr:
		c.walkStmt(e.Select)
	case *sql.ExistsExpr:
		c.walkStmt(e.Select)
	}
}

// Analysis classifies every reference in one model's SQL.
type Analysis struct {
	// Deps are inferred model dependencies, sorted and deduplicated.
	Deps []model.Relation
	// Unqualified are one-part names that could not be attributed.
	Unqualified []string
	// Unknown are names matching no model or source, including
	// over-qualified ones.
	Unknown []string
}

// AnalyzeSQL parses one SQL text and classifies its references against the
// project. self is excluded from the inferred dependency set.
func AnalyzeSQL(project *model.Project, self model.Relation, sqlText string) (*Analysis, error) {
	stmt, err := sql.Parse(sqlText)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", self, err)
	}

	a := &Analysis{}
	depSet := map[model.Relation]bool{}
	seen := map[string]bool{}

	for _, ref := range CollectRefs(stmt) {
		name := ref.String()
		if seen[name] {
			continue
		}
		seen[name] = true

		switch len(ref.Parts) {
		case 1:
			a.Unqualified = append(a.Unqualified, name)
		case 2:
			rel := model.Relation{Schema: ref.Parts[0], Name: ref.Parts[1]}
			switch {
			case rel == self:
				// Self-references never count as dependencies.
			case project.Models[rel] != nil:
				depSet[rel] = true
			case project.IsSource(rel):
				// Declared sources are valid targets, never tracked.
			default:
				a.Unknown = append(a.Unknown, name)
			}
		default:
			a.Unknown = append(a.Unknown, name)
		}
	}

	for rel := range depSet {
		a.Deps = append(a.Deps, rel)
	}
	model.SortRelations(a.Deps)
	return a, nil
}

// AnalyzeModel analyzes every SQL section a model carries and merges the
// results.
func AnalyzeModel(project *model.Project, m *model.Model) (*Analysis, error) {
	texts := modelSQLTexts(m)

	merged := &Analysis{}
	depSet := map[model.Relation]bool{}
	unqual := map[string]bool{}
	unknown := map[string]bool{}

	for _, text := range texts {
		a, err := AnalyzeSQL(project, m.ID, text)
		if err != nil {
			return nil, err
		}
		for _, d := range a.Deps {
			depSet[d] = true
		}
		for _, u := range a.Unqualified {
			unqual[u] = true
		}
		for _, u := range a.Unknown {
			unknown[u] = true
		}
	}

	for rel := range depSet {
		merged.Deps = append(merged.Deps, rel)
	}
	model.SortRelations(merged.Deps)
	merged.Unqualified = sortedKeys(unqual)
	merged.Unknown = sortedKeys(unknown)
	return merged, nil
}

// modelSQLTexts returns the SQL sections to analyze: the split sections for
// sectioned incrementals, otherwise the whole body.
func modelSQLTexts(m *model.Model) []string {
	if m.BaseSQL != "" {
		texts := []string{m.BaseSQL}
		if m.IncrementalSQL != "" {
			texts = append(texts, m.IncrementalSQL)
		}
		return texts
	}
	return []string{m.BodySQL}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
