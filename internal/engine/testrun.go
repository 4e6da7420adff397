package engine

// testrun.go - Data test execution

import (
	"context"
	"fmt"
	"time"

	"github.com/cascade-data/cascade/internal/model"
)

// TestResult records the outcome of one data test against one model.
type TestResult struct {
	Model      model.Relation
	Test       string
	Violations int64
	Duration   time.Duration
	Err        error
}

// Passed reports whether the test ran and found no violations.
func (r TestResult) Passed() bool {
	return r.Err == nil && r.Violations == 0
}

// TestReport summarizes a test run across all selected models.
type TestReport struct {
	Results []TestResult
}

// Failed counts tests with violations or errors.
func (r *TestReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed() {
			n++
		}
	}
	return n
}

// RunTests executes every declared test on the selected models in dependency
// order. Test failures do not stop the run; execution errors do.
func (e *Engine) RunTests(ctx context.Context, selectors, excludes []string) (*TestReport, error) {
	selected, err := e.graph.ApplySelectors(selectors, excludes)
	if err != nil {
		return nil, err
	}

	if err := e.db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	report := &TestReport{}
	for _, id := range selected {
		m := e.project.Models[id]
		for _, tst := range m.Header.Tests {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			sql := tst.RenderSQL(m.ID, e.db.QuoteIdent)
			start := time.Now()
			violations, err := e.runTestQuery(ctx, tst, sql)
			res := TestResult{
				Model:      id,
				Test:       tst.Name(),
				Violations: violations,
				Duration:   time.Since(start),
				Err:        err,
			}
			report.Results = append(report.Results, res)
			if err != nil {
				e.logger.Error("test errored", "model", id.String(), "test", tst.Name(), "error", err)
				return report, &ExecutionError{Model: id, SQL: sql, Err: err}
			}
			if violations > 0 {
				e.logger.Warn("test failed", "model", id.String(), "test", tst.Name(), "violations", violations)
			} else {
				e.logger.Debug("test passed", "model", id.String(), "test", tst.Name())
			}
		}
	}
	return report, nil
}

// runTestQuery evaluates a rendered test query. Unique tests return duplicate
// rows, so the violation count is the row count; all other tests return a
// single violations column.
func (e *Engine) runTestQuery(ctx context.Context, tst model.Test, sql string) (int64, error) {
	if _, ok := tst.(model.Unique); ok {
		return e.db.QueryRowCount(ctx, sql)
	}
	return e.db.QueryCount(ctx, sql)
}
