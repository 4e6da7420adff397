package analyze

import (
	"fmt"
	"slices"

	"github.com/cascade-data/cascade/internal/model"
	"github.com/cascade-data/cascade/pkg/sql"
)

// QualifyResult reports the outcome of qualifying one SQL text.
type QualifyResult struct {
	// SQL is the re-serialized text. It differs from the input only when
	// Changed is true.
	SQL     string
	Changed bool

	// Qualified maps each rewritten name to the relation it now points at.
	Qualified map[string]model.Relation
	// Ambiguous maps names with more than one candidate to all candidates.
	Ambiguous map[string][]model.Relation
	// Unknown are one-part names with no candidate anywhere in the project.
	Unknown []string
}

// Clean reports whether nothing is left unresolved.
func (r *QualifyResult) Clean() bool {
	return len(r.Ambiguous) == 0 && len(r.Unknown) == 0
}

// QualifySQL rewrites unqualified one-part table references in sqlText to
// schema.name form when exactly one project-wide candidate (model or source,
// excluding self) has a matching name. The text is re-serialized only when
// at least one rewrite occurred; otherwise the input is returned untouched.
func QualifySQL(project *model.Project, self model.Relation, sqlText string) (*QualifyResult, error) {
	stmt, err := sql.Parse(sqlText)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", self, err)
	}

	res := &QualifyResult{
		SQL:       sqlText,
		Qualified: map[string]model.Relation{},
		Ambiguous: map[string][]model.Relation{},
	}

	for _, ref := range CollectRefs(stmt) {
		if len(ref.Parts) != 1 {
			continue
		}
		name := ref.Parts[0]

		candidates := findByName(project, name)
		withoutSelf := slices.DeleteFunc(slices.Clone(candidates), func(r model.Relation) bool {
			return r == self
		})

		switch {
		case len(candidates) == 0:
			if !slices.Contains(res.Unknown, name) {
				res.Unknown = append(res.Unknown, name)
			}
		case len(withoutSelf) == 0:
			// Only the model itself shares this name: nothing to rewrite.
		case len(withoutSelf) == 1:
			ref.Node.Schema = withoutSelf[0].Schema
			res.Qualified[name] = withoutSelf[0]
			res.Changed = true
		default:
			res.Ambiguous[name] = withoutSelf
		}
	}

	if res.Changed {
		res.SQL = sql.Format(stmt)
	}
	return res, nil
}

// findByName returns every model or source relation whose name matches,
// sorted for stable candidate lists.
func findByName(project *model.Project, name string) []model.Relation {
	var out []model.Relation
	for id := range project.Models {
		if id.Name == name {
			out = append(out, id)
		}
	}
	for src := range project.Sources {
		if src.Name == name {
			out = append(out, src)
		}
	}
	model.SortRelations(out)
	return out
}
