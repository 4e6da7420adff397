package analyze

import (
	"github.com/cascade-data/cascade/internal/model"
)

// LintReport is the outcome of diffing a model's declared deps against the
// deps inferred from its SQL.
type LintReport struct {
	Model model.Relation

	// Missing deps are inferred from the SQL but not declared.
	Missing []model.Relation
	// Extra deps are declared but never referenced.
	Extra []model.Relation

	Unqualified []string
	Unknown     []string

	// Inferred is the full inferred set, used by --fix to rewrite the
	// header's deps line.
	Inferred []model.Relation
}

// Clean reports whether the model has no findings.
func (r *LintReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Extra) == 0 &&
		len(r.Unqualified) == 0 && len(r.Unknown) == 0
}

// Fixable reports whether --fix may rewrite the deps line. Unqualified
// references are ambiguity that must be resolved first.
func (r *LintReport) Fixable() bool {
	return len(r.Unqualified) == 0
}

// LintDeps compares declared header deps with the deps inferred from the
// model's SQL. Declared deps pointing at declared sources are excluded from
// the diff.
func LintDeps(project *model.Project, m *model.Model) (*LintReport, error) {
	analysis, err := AnalyzeModel(project, m)
	if err != nil {
		return nil, err
	}

	declared := map[model.Relation]bool{}
	for _, d := range m.Header.Deps {
		if project.IsSource(d) {
			continue
		}
		declared[d] = true
	}
	inferred := map[model.Relation]bool{}
	for _, d := range analysis.Deps {
		inferred[d] = true
	}

	report := &LintReport{
		Model:       m.ID,
		Unqualified: analysis.Unqualified,
		Unknown:     analysis.Unknown,
		Inferred:    analysis.Deps,
	}
	for rel := range inferred {
		if !declared[rel] {
			report.Missing = append(report.Missing, rel)
		}
	}
	for rel := range declared {
		if !inferred[rel] {
			report.Extra = append(report.Extra, rel)
		}
	}
	model.SortRelations(report.Missing)
	model.SortRelations(report.Extra)
	return report, nil
}
