package engine

// run.go - Execution orchestration for running models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cascade-data/cascade/internal/model"
)

// RunOptions controls which models a run covers and how incrementals behave.
type RunOptions struct {
	Selectors   []string
	Excludes    []string
	FullRefresh bool
}

// ModelStatus is the terminal state of one model within a run.
type ModelStatus string

const (
	StatusSuccess ModelStatus = "success"
	StatusFailed  ModelStatus = "failed"
	StatusSkipped ModelStatus = "skipped"
)

// ModelResult records the outcome of one model's execution.
type ModelResult struct {
	ID       model.Relation
	Status   ModelStatus
	Duration time.Duration
	Err      error
}

// RunResult summarizes a full run.
type RunResult struct {
	RunID   string
	Results []ModelResult
}

// Succeeded reports whether every model in the run completed.
func (r *RunResult) Succeeded() bool {
	for _, res := range r.Results {
		if res.Status != StatusSuccess {
			return false
		}
	}
	return true
}

// Run executes the selected models strictly in dependency order. A single
// model's failure aborts the remaining run; models after the failure are
// reported as skipped.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	runID := uuid.NewString()
	e.logger.Info("starting run", "run_id", runID,
		"selectors", opts.Selectors, "full_refresh", opts.FullRefresh)

	selected, err := e.graph.ApplySelectors(opts.Selectors, opts.Excludes)
	if err != nil {
		return nil, err
	}

	result := &RunResult{RunID: runID}
	if len(selected) == 0 {
		e.logger.Info("nothing to run", "run_id", runID)
		return result, nil
	}

	if err := e.db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	e.logger.Debug("executing models", "run_id", runID, "count", len(selected))

	for i, id := range selected {
		if err := ctx.Err(); err != nil {
			for _, rest := range selected[i:] {
				result.Results = append(result.Results, ModelResult{
					ID:     rest,
					Status: StatusSkipped,
					Err:    err,
				})
			}
			return result, err
		}

		m := e.project.Models[id]
		start := time.Now()
		execErr := e.executeModel(ctx, m, opts.FullRefresh)
		elapsed := time.Since(start)

		if execErr != nil {
			e.logger.Error("model failed", "run_id", runID, "model", id.String(),
				"error", execErr)
			result.Results = append(result.Results, ModelResult{
				ID:       id,
				Status:   StatusFailed,
				Duration: elapsed,
				Err:      execErr,
			})
			for _, rest := range selected[i+1:] {
				result.Results = append(result.Results, ModelResult{
					ID:     rest,
					Status: StatusSkipped,
					Err:    fmt.Errorf("skipped: upstream model %s failed", id),
				})
			}
			return result, execErr
		}

		e.logger.Info("model built", "run_id", runID, "model", id.String(),
			"materialized", m.Header.Materialized.String(),
			"duration_ms", elapsed.Milliseconds())
		result.Results = append(result.Results, ModelResult{
			ID:       id,
			Status:   StatusSuccess,
			Duration: elapsed,
		})
	}

	e.logger.Info("run completed", "run_id", runID, "models", len(selected))
	return result, nil
}

// executeModel materializes a single model against the database.
func (e *Engine) executeModel(ctx context.Context, m *model.Model, fullRefresh bool) error {
	if err := e.db.EnsureSchema(ctx, m.ID.Schema); err != nil {
		return &ExecutionError{Model: m.ID, Err: err}
	}

	switch m.Header.Materialized {
	case model.View, model.Table:
		sql := GenerateRunSQL(m, e.db.QuoteIdent)
		if err := e.db.Exec(ctx, sql); err != nil {
			return &ExecutionError{Model: m.ID, SQL: sql, Err: err}
		}
		return nil
	case model.Incremental:
		return e.executeIncremental(ctx, m, fullRefresh)
	}
	return fmt.Errorf("%s: unknown materialization", m.ID)
}

// executeIncremental branches on whether the target table already exists.
// First run and full refresh rebuild the table from scratch and add the
// primary key; steady-state runs merge new rows into the existing table.
func (e *Engine) executeIncremental(ctx context.Context, m *model.Model, fullRefresh bool) error {
	exists, err := e.db.TableExists(ctx, m.ID)
	if err != nil {
		return &ExecutionError{Model: m.ID, Err: err}
	}

	if !exists || fullRefresh {
		if exists {
			drop := "DROP TABLE IF EXISTS " + quoteRel(m.ID, e.db.QuoteIdent) + " CASCADE;"
			if err := e.db.Exec(ctx, drop); err != nil {
				return &ExecutionError{Model: m.ID, SQL: drop, Err: err}
			}
		}
		sql := GenerateRunSQL(m, e.db.QuoteIdent)
		if err := e.db.Exec(ctx, sql); err != nil {
			return &ExecutionError{Model: m.ID, SQL: sql, Err: err}
		}
		return nil
	}

	columns, err := e.db.Columns(ctx, m.ID)
	if err != nil {
		return &ExecutionError{Model: m.ID, Err: err}
	}
	merge, err := GenerateMergeSQL(m, columns, e.db.QuoteIdent)
	if err != nil {
		return &ExecutionError{Model: m.ID, Err: err}
	}
	if err := e.db.Exec(ctx, merge); err != nil {
		return &ExecutionError{Model: m.ID, SQL: merge, Err: err}
	}
	return nil
}
