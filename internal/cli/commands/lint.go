package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cascade-data/cascade/internal/analyze"
	"github.com/cascade-data/cascade/internal/model"
)

// LintOptions holds options for the lint command.
type LintOptions struct {
	Selectors []string
	Fix       bool
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Compare declared deps against deps inferred from model SQL",
		Long: `Analyze each model's SQL and diff the relations it references against the
header's deps list. Reports missing deps, stale deps, unqualified references,
and unknown relations.

With --fix, rewrites each model's deps line to the inferred set. Models with
unqualified references are never auto-fixed; run "cascade qualify --fix"
first.`,
		Example: `  # Lint the whole project
  cascade lint

  # Lint one model's subtree
  cascade lint --select tree:marts.revenue

  # Rewrite deps lines in place
  cascade lint --fix`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLint(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Selectors, "select", "s", nil, "Selectors choosing which models to lint")
	cmd.Flags().BoolVar(&opts.Fix, "fix", false, "Rewrite deps lines to the inferred set")

	return cmd
}

func runLint(cmd *cobra.Command, opts *LintOptions) error {
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
	fixed := 0
	for _, id := range selected {
		m := project.Models[id]
		report, err := analyze.LintDeps(project, m)
		if err != nil {
			// A model that fails to parse is still a finding, not a fatal
			// error for the other models.
			fmt.Fprintf(out, "%s: %v\n", id, err)
			issues++
			continue
		}
		if report.Clean() {
			continue
		}

		issues++
		printLintReport(cmd, m, report)

		if opts.Fix && report.Fixable() {
			deps := withDeclaredSources(project, m, report.Inferred)
			if err := analyze.FixDepsLine(m.Path, deps); err != nil {
				return fmt.Errorf("fix %s: %w", m.Path, err)
			}
			fmt.Fprintf(out, "  fixed: %s\n", m.Path)
			fixed++
		}
	}

	if issues == 0 {
		fmt.Fprintf(out, "%d models checked, no issues\n", len(selected))
		return nil
	}
	fmt.Fprintf(out, "%d models checked, %d with issues", len(selected), issues)
	if opts.Fix {
		fmt.Fprintf(out, ", %d fixed", fixed)
	}
	fmt.Fprintln(out)

	if issues > fixed {
		return ErrIssuesFound
	}
	return nil
}

func printLintReport(cmd *cobra.Command, m *model.Model, report *analyze.LintReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s):\n", m.ID, m.Path)
	for _, d := range report.Missing {
		fmt.Fprintf(out, "  missing dep: %s\n", d)
	}
	for _, d := range report.Extra {
		fmt.Fprintf(out, "  extra dep: %s\n", d)
	}
	for _, name := range report.Unqualified {
		fmt.Fprintf(out, "  unqualified reference: %s\n", name)
	}
	for _, name := range report.Unknown {
		fmt.Fprintf(out, "  unknown relation: %s\n", name)
	}
}

// withDeclaredSources keeps source deps the author already declared when
// rewriting the deps line, since lint's inferred set only covers models.
func withDeclaredSources(project *model.Project, m *model.Model, inferred []model.Relation) []model.Relation {
	deps := append([]model.Relation{}, inferred...)
	for _, d := range m.Header.Deps {
		if project.IsSource(d) {
			deps = append(deps, d)
		}
	}
	model.SortRelations(deps)
	return deps
}
