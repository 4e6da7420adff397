package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cascade-data/cascade/internal/docs"
)

// NewDocsCommand creates the docs command.
func NewDocsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "Generate markdown documentation for all models",
		Long: `Write one markdown page per model plus an index with the dependency graph
to target/docs/.`,
		Example: `  # Generate docs
  cascade docs`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDocs(cmd)
		},
	}
}

func runDocs(cmd *cobra.Command) error {
	rt, err := runtime(cmd)
	if err != nil {
		return err
	}

	project, _, err := rt.loadProject()
	if err != nil {
		return err
	}

	written, err := docs.Generate(project, rt.Config.TargetDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d pages to %s\n", len(written), rt.Config.TargetDir)
	return nil
}
