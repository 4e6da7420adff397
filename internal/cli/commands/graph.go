package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cascade-data/cascade/internal/render"
)

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the project dependency graph",
		Long:  `Print the dependency graph as an ascii listing, Graphviz dot, JSON, or Mermaid.`,
		Example: `  # Execution-order listing
  cascade graph

  # Pipe to Graphviz
  cascade graph --format dot | dot -Tsvg -o graph.svg

  # Mermaid for markdown embedding
  cascade graph --format mermaid`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGraph(cmd, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "ascii", "Output format (ascii|dot|json|mermaid)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"ascii", "dot", "json", "mermaid"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runGraph(cmd *cobra.Command, format string) error {
	rt, err := runtime(cmd)
	if err != nil {
		return err
	}

	f, err := render.ParseFormat(format)
	if err != nil {
		return err
	}

	project, graph, err := rt.loadProject()
	if err != nil {
		return err
	}

	out, err := render.Graph(project, graph, f)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
