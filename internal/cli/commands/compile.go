package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compile",
		Short: "Render run SQL for every model without touching the database",
		Long: `Write the run form of each model to target/compiled/<schema>/<name>.sql.

Steady-state incremental MERGE statements require live column introspection,
so incremental models compile to their first-run form.`,
		Example: `  # Compile the whole project
  cascade compile`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompile(cmd)
		},
	}
}

func runCompile(cmd *cobra.Command) error {
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

	written, err := eng.CompileAll(rt.Config.TargetDir)
	if err != nil {
		return err
	}

	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Compiled %d models\n", len(written))
	return nil
}
