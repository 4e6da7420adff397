package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cascade-data/cascade/internal/analyze"
	"github.com/cascade-data/cascade/internal/model"
)

// QualifyOptions holds options for the qualify command.
type QualifyOptions struct {
	Selectors []string
	Fix       bool
}

// NewQualifyCommand creates the qualify command.
func NewQualifyCommand() *cobra.Command {
	opts := &QualifyOptions{}

	cmd := &cobra.Command{
		Use:   "qualify",
		Short: "Rewrite unqualified table references to schema.name form",
		Long: `Find one-part table references in model SQL and resolve them against the
project's models and sources. A reference with exactly one candidate is
qualified; multiple candidates are reported as ambiguous and left untouched.

With --fix, rewrites the model body in place using the canonical SQL
formatting. Without --fix, only reports what would change.`,
		Example: `  # Report unqualified references project-wide
  cascade qualify

  # Rewrite model bodies in place
  cascade qualify --fix`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQualify(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Selectors, "select", "s", nil, "Selectors choosing which models to qualify")
	cmd.Flags().BoolVar(&opts.Fix, "fix", false, "Rewrite model bodies in place")

	return cmd
}

func runQualify(cmd *cobra.Command, opts *QualifyOptions) error {
	rt, err := runtime(cmd)
	if err != nil {
		return err
	}

	project, graph, err := rt.loadProject()
	if err != nil {
		return err
	}

	selected, err := graph.ApplySelectors(opts.Selectors, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	issues := 0
	changed := 0
	for _, id := range selected {
		m := project.Models[id]
		result, newBody, err := qualifyModel(project, m)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", id, err)
			issues++
			continue
		}
		if !result.Changed && result.Clean() {
			continue
		}

		printQualifyResult(cmd, m, result)
		if !result.Clean() {
			issues++
		}

		if result.Changed {
			changed++
			if opts.Fix {
				if err := analyze.FixBody(m.Path, newBody); err != nil {
					return fmt.Errorf("fix %s: %w", m.Path, err)
				}
				fmt.Fprintf(out, "  fixed: %s\n", m.Path)
			}
		}
	}

	fmt.Fprintf(out, "%d models checked, %d changed, %d with unresolved references\n",
		len(selected), changed, issues)
	if issues > 0 {
		return ErrIssuesFound
	}
	return nil
}

// qualifyModel qualifies a model's SQL. Sectioned incrementals are qualified
// per section and reassembled around their markers.
func qualifyModel(project *model.Project, m *model.Model) (*analyze.QualifyResult, string, error) {
	if m.BaseSQL == "" {
		res, err := analyze.QualifySQL(project, m.ID, m.BodySQL)
		if err != nil {
			return nil, "", err
		}
		return res, res.SQL, nil
	}

	base, err := analyze.QualifySQL(project, m.ID, m.BaseSQL)
	if err != nil {
		return nil, "", err
	}
	merged := *base
	newBody := "-- @base\n" + strings.TrimRight(base.SQL, "\n") + "\n"

	if m.IncrementalSQL != "" && m.IncrementalSQL != m.BaseSQL {
		inc, err := analyze.QualifySQL(project, m.ID, m.IncrementalSQL)
		if err != nil {
			return nil, "", err
		}
		merged.Changed = base.Changed || inc.Changed
		merged.Unknown = append(merged.Unknown, inc.Unknown...)
		for name, rel := range inc.Qualified {
			if merged.Qualified == nil {
				merged.Qualified = map[string]model.Relation{}
			}
			merged.Qualified[name] = rel
		}
		for name, cands := range inc.Ambiguous {
			if merged.Ambiguous == nil {
				merged.Ambiguous = map[string][]model.Relation{}
			}
			merged.Ambiguous[name] = cands
		}
		newBody += "-- @incremental\n" + strings.TrimRight(inc.SQL, "\n") + "\n"
	}
	return &merged, newBody, nil
}

func printQualifyResult(cmd *cobra.Command, m *model.Model, result *analyze.QualifyResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s):\n", m.ID, m.Path)
	for _, name := range sortedQualifyKeys(result.Qualified) {
		fmt.Fprintf(out, "  qualified: %s -> %s\n", name, result.Qualified[name])
	}
	for _, name := range sortedAmbiguousKeys(result.Ambiguous) {
		cands := make([]string, len(result.Ambiguous[name]))
		for i, c := range result.Ambiguous[name] {
			cands[i] = c.String()
		}
		fmt.Fprintf(out, "  ambiguous: %s (candidates: %s)\n", name, strings.Join(cands, ", "))
	}
	for _, name := range result.Unknown {
		fmt.Fprintf(out, "  unknown: %s\n", name)
	}
}

func sortedQualifyKeys(m map[string]model.Relation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func sortedAmbiguousKeys(m map[string][]model.Relation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
