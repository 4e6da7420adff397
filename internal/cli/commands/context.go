// Package commands implements the cascade subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cascade-data/cascade/internal/adapter"
	"github.com/cascade-data/cascade/internal/config"
	"github.com/cascade-data/cascade/internal/dag"
	"github.com/cascade-data/cascade/internal/engine"
	"github.com/cascade-data/cascade/internal/loader"
	"github.com/cascade-data/cascade/internal/model"
)

// ErrIssuesFound marks a command that completed but found problems (lint
// findings, failing tests, failed models). The root command maps it to a
// distinct exit code.
var ErrIssuesFound = errors.New("issues found")

// Runtime carries the loaded config and logger into command handlers via the
// command context.
type Runtime struct {
	Config *config.Config
	Logger *slog.Logger
}

type runtimeKey struct{}

// WithRuntime stores the runtime in a context.
func WithRuntime(ctx context.Context, rt *Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

// runtime retrieves the runtime prepared by the root command.
func runtime(cmd *cobra.Command) (*Runtime, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*Runtime)
	if !ok || rt == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return rt, nil
}

// loadProject loads the project and its dependency graph.
func (rt *Runtime) loadProject() (*model.Project, *dag.Graph, error) {
	sources, err := rt.Config.SourceRelations()
	if err != nil {
		return nil, nil, err
	}

	project, err := loader.New(rt.Config.ProjectRoot, rt.Config.ModelsDir, sources, rt.Logger).Load()
	if err != nil {
		return nil, nil, err
	}
	return project, dag.New(project), nil
}

// newEngine builds an engine over a live Postgres adapter. The caller owns
// closing the returned adapter.
func (rt *Runtime) newEngine(project *model.Project, graph *dag.Graph) (*engine.Engine, *adapter.Postgres) {
	pg := adapter.NewPostgres(rt.Config.AdapterConfig(), rt.Logger)
	return engine.New(project, graph, pg, rt.Logger), pg
}
