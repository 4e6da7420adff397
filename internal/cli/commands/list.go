package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var selectors []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List models with their materialization, tags, and deps",
		Example: `  # List all models
  cascade list

  # List models tagged daily
  cascade list --select tag:daily`,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, selectors)
		},
	}

	cmd.Flags().StringSliceVarP(&selectors, "select", "s", nil, "Selectors choosing which models to list")

	return cmd
}

func runList(cmd *cobra.Command, selectors []string) error {
	rt, err := runtime(cmd)
	if err != nil {
		return err
	}

	project, graph, err := rt.loadProject()
	if err != nil {
		return err
	}

	selected, err := graph.ApplySelectors(selectors, nil)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Model", "Materialized", "Tags", "Deps", "Tests"})
	for _, id := range selected {
		m := project.Models[id]
		deps := make([]string, len(m.Header.Deps))
		for i, d := range m.Header.Deps {
			deps[i] = d.String()
		}
		t.AppendRow(table.Row{
			id.String(),
			m.Header.Materialized.String(),
			strings.Join(m.Header.Tags, ", "),
			strings.Join(deps, ", "),
			len(m.Header.Tests),
		})
	}
	t.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "%d models\n", len(selected))
	return nil
}
