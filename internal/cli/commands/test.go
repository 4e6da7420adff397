package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/cascade-data/cascade/internal/engine"
)

// TestOptions holds options for the test command.
type TestOptions struct {
	Selectors []string
	Excludes  []string
}

// NewTestCommand creates the test command.
func NewTestCommand() *cobra.Command {
	opts := &TestOptions{}

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run data tests declared in model headers",
		Long: `Execute every test declared in the selected models' headers against the
database. Violations are counted per test; any violation marks the run as
failed.`,
		Example: `  # Test everything
  cascade test

  # Test one model
  cascade test --select marts.revenue`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTest(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Selectors, "select", "s", nil, "Selectors choosing which models to test")
	cmd.Flags().StringSliceVar(&opts.Excludes, "exclude", nil, "Selectors removing models from the test set")

	return cmd
}

func runTest(cmd *cobra.Command, opts *TestOptions) error {
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

	report, runErr := eng.RunTests(cmd.Context(), opts.Selectors, opts.Excludes)
	if report == nil {
		return runErr
	}

	printTestReport(cmd, report)

	if runErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", runErr)
		return runErr
	}
	if report.Failed() > 0 {
		return ErrIssuesFound
	}
	return nil
}

func printTestReport(cmd *cobra.Command, report *engine.TestReport) {
	out := cmd.OutOrStdout()
	if len(report.Results) == 0 {
		fmt.Fprintln(out, "No tests declared")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Model", "Test", "Status", "Violations", "Duration"})
	for _, res := range report.Results {
		status := "pass"
		if res.Err != nil {
			status = "error"
		} else if res.Violations > 0 {
			status = "fail"
		}
		t.AppendRow(table.Row{
			res.Model.String(), res.Test, status, res.Violations,
			res.Duration.Round(time.Millisecond).String(),
		})
	}
	t.Render()

	fmt.Fprintf(out, "%d tests, %d failed\n", len(report.Results), report.Failed())
}
