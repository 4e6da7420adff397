package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/cascade-data/cascade/internal/engine"
)

// BuildOptions holds options for the build command.
type BuildOptions struct {
	Selectors   []string
	Excludes    []string
	FullRefresh bool
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	opts := &BuildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build models against the database in dependency order",
		Long: `Materialize models as views, tables, or incrementally merged tables.

Models run strictly in dependency order; a failing model aborts the rest of
the run. Use --select to build a subset of the project.`,
		Example: `  # Build everything
  cascade build

  # Build one model and its upstream dependencies
  cascade build --select deps:marts.revenue

  # Build everything tagged daily, except one model
  cascade build --select tag:daily --exclude staging.slow_scan

  # Rebuild incremental models from scratch
  cascade build --full-refresh`,
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Selectors, "select", "s", nil, "Selectors choosing which models to build")
	cmd.Flags().StringSliceVar(&opts.Excludes, "exclude", nil, "Selectors removing models from the build set")
	cmd.Flags().BoolVar(&opts.FullRefresh, "full-refresh", false, "Drop and rebuild incremental models")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *BuildOptions) error {
	rt, err := runtime(cmd)
	if err != nil {
		return err
	}

	project, graph, err := rt.loadProject()
	if err != nil {
		return err
	}

	eng, db := rt.newEngine(project, graph)
	defer func() { _ = db.Close() }()

	start := time.Now()
	result, runErr := eng.Run(cmd.Context(), engine.RunOptions{
		Selectors:   opts.Selectors,
		Excludes:    opts.Excludes,
		FullRefresh: opts.FullRefresh,
	})
	if result == nil {
		return runErr
	}

	printRunResults(cmd, result)
	fmt.Fprintf(cmd.OutOrStdout(), "Completed in %s\n", time.Since(start).Round(time.Millisecond))

	if runErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", runErr)
		return ErrIssuesFound
	}
	return nil
}

func printRunResults(cmd *cobra.Command, result *engine.RunResult) {
	if len(result.Results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No models selected")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Model", "Status", "Duration"})
	for _, res := range result.Results {
		duration := ""
		if res.Status != engine.StatusSkipped {
			duration = res.Duration.Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{res.ID.String(), string(res.Status), duration})
	}
	t.Render()
}
