package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/cascade-data/cascade/internal/adapter"
	"github.com/cascade-data/cascade/internal/dag"
	"github.com/cascade-data/cascade/internal/model"
)

// Engine orchestrates compilation and execution of a project's models.
type Engine struct {
	project *model.Project
	graph   *dag.Graph
	db      adapter.Adapter
	logger  *slog.Logger
}

// New creates an engine over a loaded project.
func New(project *model.Project, graph *dag.Graph, db adapter.Adapter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		project: project,
		graph:   graph,
		db:      db,
		logger:  logger,
	}
}

// ExecutionError reports a model whose SQL failed against the database, with
// a truncated preview of the statement that failed.
type ExecutionError struct {
	Model model.Relation
	SQL   string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %v\n  sql: %s", e.Model, e.Err, truncateSQL(e.SQL))
}

func (e *ExecutionError) Unwrap() error { return e.Err }

const sqlPreviewLen = 200

func truncateSQL(sql string) string {
	if len(sql) <= sqlPreviewLen {
		return sql
	}
	return sql[:sqlPreviewLen] + "..."
}
