package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascade-data/cascade/internal/dag"
	"github.com/cascade-data/cascade/internal/model"
)

// fakeAdapter records executed SQL and serves canned introspection answers.
type fakeAdapter struct {
	execs      []string
	schemas    []string
	tables     map[model.Relation]bool
	columns    map[model.Relation][]string
	failOn     string
	countBySQL map[string]int64
	rowsBySQL  map[string]int64
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		tables:     map[model.Relation]bool{},
		columns:    map[model.Relation][]string{},
		countBySQL: map[string]int64{},
		rowsBySQL:  map[string]int64{},
	}
}

func (f *fakeAdapter) Connect(ctx context.Context) error { return nil }
func (f *fakeAdapter) Close() error                      { return nil }

func (f *fakeAdapter) Exec(ctx context.Context, sql string) error {
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return fmt.Errorf("relation %q does not exist", f.failOn)
	}
	f.execs = append(f.execs, sql)
	return nil
}

func (f *fakeAdapter) QueryCount(ctx context.Context, sql string) (int64, error) {
	return f.countBySQL[sql], nil
}

func (f *fakeAdapter) QueryRowCount(ctx context.Context, sql string) (int64, error) {
	return f.rowsBySQL[sql], nil
}

func (f *fakeAdapter) EnsureSchema(ctx context.Context, schema string) error {
	f.schemas = append(f.schemas, schema)
	return nil
}

func (f *fakeAdapter) TableExists(ctx context.Context, rel model.Relation) (bool, error) {
	return f.tables[rel], nil
}

func (f *fakeAdapter) Columns(ctx context.Context, rel model.Relation) ([]string, error) {
	return f.columns[rel], nil
}

func (f *fakeAdapter) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quote(name string) string {
	return `"` + name + `"`
}

func rel(s string) model.Relation {
	r, _ := model.ParseRelation(s)
	return r
}

func viewModel(id string, deps []string, body string) *model.Model {
	m := &model.Model{
		ID:      rel(id),
		BodySQL: body,
		Header:  model.ModelHeader{Materialized: model.View},
	}
	for _, d := range deps {
		m.Header.Deps = append(m.Header.Deps, rel(d))
	}
	return m
}

func testProject(models ...*model.Model) *model.Project {
	p := model.NewProject("/tmp/project")
	for _, m := range models {
		p.Models[m.ID] = m
	}
	return p
}

func testEngine(db *fakeAdapter, models ...*model.Model) *Engine {
	p := testProject(models...)
	return New(p, dag.New(p), db, nil)
}

// === Run SQL generation ===

func TestGenerateRunSQL_View(t *testing.T) {
	m := viewModel("staging.orders", nil, "SELECT 1;\n")
	sql := GenerateRunSQL(m, quote)

	want := `DROP VIEW IF EXISTS "staging"."orders" CASCADE;
DROP TABLE IF EXISTS "staging"."orders" CASCADE;
CREATE OR REPLACE VIEW "staging"."orders" AS
SELECT 1;
`
	assert.Equal(t, want, sql)
}

func TestGenerateRunSQL_Table(t *testing.T) {
	m := viewModel("marts.revenue", nil, "SELECT 1")
	m.Header.Materialized = model.Table
	sql := GenerateRunSQL(m, quote)

	assert.Contains(t, sql, `DROP VIEW IF EXISTS "marts"."revenue" CASCADE;`)
	assert.Contains(t, sql, `DROP TABLE IF EXISTS "marts"."revenue" CASCADE;`)
	assert.Contains(t, sql, "CREATE TABLE \"marts\".\"revenue\" AS\nSELECT 1;")
}

func TestGenerateRunSQL_IncrementalFirstRun(t *testing.T) {
	m := viewModel("marts.events", nil, "SELECT id, ts FROM staging.raw_events")
	m.Header.Materialized = model.Incremental
	m.Header.UniqueKey = []string{"id"}
	sql := GenerateRunSQL(m, quote)

	assert.Contains(t, sql, `DROP VIEW IF EXISTS "marts"."events" CASCADE;`)
	assert.Contains(t, sql, `DROP TABLE IF EXISTS "marts"."events" CASCADE;`)
	assert.Contains(t, sql, "CREATE TABLE \"marts\".\"events\" AS\nSELECT id, ts FROM staging.raw_events;")
	assert.Contains(t, sql,
		`ALTER TABLE "marts"."events" ADD CONSTRAINT "events_pkey" PRIMARY KEY ("id");`)
}

func TestGenerateRunSQL_IncrementalUsesBaseSection(t *testing.T) {
	m := viewModel("marts.events", nil, "unused")
	m.Header.Materialized = model.Incremental
	m.Header.UniqueKey = []string{"id"}
	m.BaseSQL = "SELECT id FROM staging.raw_events"
	m.IncrementalSQL = "SELECT id FROM staging.raw_events WHERE ts > (SELECT max(ts) FROM ${this})"

	sql := GenerateRunSQL(m, quote)
	assert.Contains(t, sql, "SELECT id FROM staging.raw_events;")
	assert.NotContains(t, sql, "${this}")
	assert.NotContains(t, sql, "max(ts)")
}

// === MERGE generation ===

func TestGenerateMergeSQL(t *testing.T) {
	m := viewModel("marts.users", nil, "SELECT id, name, email FROM staging.users")
	m.Header.Materialized = model.Incremental
	m.Header.UniqueKey = []string{"id"}

	sql, err := GenerateMergeSQL(m, []string{"id", "name", "email"}, quote)
	require.NoError(t, err)

	want := `MERGE INTO "marts"."users" AS t
USING (
SELECT id, name, email FROM staging.users
) AS s
ON t."id" = s."id"
WHEN MATCHED THEN UPDATE SET "name" = s."name", "email" = s."email"
WHEN NOT MATCHED THEN INSERT ("id","name","email") VALUES (s."id",s."name",s."email")`
	assert.Equal(t, want, sql)
}

func TestGenerateMergeSQL_CompositeKeyExcludedFromUpdate(t *testing.T) {
	m := viewModel("marts.facts", nil, "SELECT day, region, total FROM staging.facts")
	m.Header.Materialized = model.Incremental
	m.Header.UniqueKey = []string{"day", "region"}

	sql, err := GenerateMergeSQL(m, []string{"day", "region", "total"}, quote)
	require.NoError(t, err)

	assert.Contains(t, sql, `ON t."day" = s."day" AND t."region" = s."region"`)
	assert.Contains(t, sql, `UPDATE SET "total" = s."total"`)
	assert.NotContains(t, sql, `"day" = s."day",`)
}

func TestGenerateMergeSQL_AllKeyColumns(t *testing.T) {
	// Every column is part of the key: no UPDATE clause at all.
	m := viewModel("marts.pairs", nil, "SELECT a, b FROM staging.pairs")
	m.Header.Materialized = model.Incremental
	m.Header.UniqueKey = []string{"a", "b"}

	sql, err := GenerateMergeSQL(m, []string{"a", "b"}, quote)
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHEN MATCHED")
	assert.Contains(t, sql, "WHEN NOT MATCHED THEN INSERT")
}

func TestGenerateMergeSQL_MissingKeyColumn(t *testing.T) {
	m := viewModel("marts.users", nil, "SELECT name FROM staging.users")
	m.Header.Materialized = model.Incremental
	m.Header.UniqueKey = []string{"id"}

	_, err := GenerateMergeSQL(m, []string{"name"}, quote)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unique_key column "id" not present`)
}

func TestGenerateMergeSQL_NoColumns(t *testing.T) {
	m := viewModel("marts.users", nil, "SELECT 1")
	m.Header.Materialized = model.Incremental
	m.Header.UniqueKey = []string{"id"}

	_, err := GenerateMergeSQL(m, nil, quote)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns")
}

// === Merge source predicates ===

func TestMergeSourceSQL_Watermark(t *testing.T) {
	m := viewModel("marts.events", nil, "SELECT id, ts FROM staging.raw_events")
	m.Header.Materialized = model.Incremental
	m.Header.UniqueKey = []string{"id"}
	m.Header.Watermark = []string{"ts"}

	sql := MergeSourceSQL(m, quote)
	assert.Contains(t, sql, "SELECT * FROM (\nSELECT id, ts FROM staging.raw_events\n) AS src")
	assert.Contains(t, sql, `WHERE "ts" >= (SELECT max("ts") FROM "marts"."events")`)
}

func TestMergeSourceSQL_WatermarkWithLookback(t *testing.T) {
	m := viewModel("marts.events", nil, "SELECT id, ts FROM staging.raw_events")
	m.Header.Materialized = model.Incremental
	m.Header.UniqueKey = []string{"id"}
	m.Header.Watermark = []string{"ts"}
	m.Header.Lookback = "2 days"

	sql := MergeSourceSQL(m, quote)
	assert.Contains(t, sql,
		`"ts" >= (SELECT max("ts") FROM "marts"."events") - interval '2 days'`)
}

func TestMergeSourceSQL_IncrementalFilter(t *testing.T) {
	m := viewModel("marts.events", nil, "SELECT id, ts FROM staging.raw_events")
	m.Header.Materialized = model.Incremental
	m.Header.UniqueKey = []string{"id"}
	m.Header.IncrementalFilter = "ts > now() - interval '7 days'"

	sql := MergeSourceSQL(m, quote)
	assert.Contains(t, sql, `WHERE (ts > now() - interval '7 days')`)
}

func TestMergeSourceSQL_SectionedThisReplacement(t *testing.T) {
	m := viewModel("marts.events", nil, "unused")
	m.Header.Materialized = model.Incremental
	m.Header.UniqueKey = []string{"id"}
	m.BaseSQL = "SELECT id, ts FROM staging.raw_events"
	m.IncrementalSQL = "SELECT id, ts FROM staging.raw_events WHERE ts > (SELECT max(ts) FROM ${this})"

	sql := MergeSourceSQL(m, quote)
	assert.Contains(t, sql, `(SELECT max(ts) FROM "marts"."events")`)
	assert.NotContains(t, sql, "${this}")
}

func TestMergeSourceSQL_NoPredicates(t *testing.T) {
	m := viewModel("marts.events", nil, "SELECT id FROM staging.raw_events")
	m.Header.Materialized = model.Incremental
	m.Header.UniqueKey = []string{"id"}

	assert.Equal(t, "SELECT id FROM staging.raw_events", MergeSourceSQL(m, quote))
}

// === Run orchestration ===

func TestRun_DependencyOrder(t *testing.T) {
	db := newFakeAdapter()
	e := testEngine(db,
		viewModel("marts.summary", []string{"staging.orders"}, "SELECT 1"),
		viewModel("staging.orders", nil, "SELECT 2"),
	)

	result, err := e.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Len(t, result.Results, 2)
	assert.True(t, result.Succeeded())
	assert.NotEmpty(t, result.RunID)

	require.Len(t, db.execs, 2)
	assert.Contains(t, db.execs[0], `"staging"."orders"`)
	assert.Contains(t, db.execs[1], `"marts"."summary"`)
	assert.Equal(t, []string{"staging", "marts"}, db.schemas)
}

func TestRun_FailureSkipsDownstream(t *testing.T) {
	db := newFakeAdapter()
	db.failOn = `"staging"."orders"`
	e := testEngine(db,
		viewModel("staging.orders", nil, "SELECT 2"),
		viewModel("marts.summary", []string{"staging.orders"}, "SELECT 1"),
	)

	result, err := e.Run(context.Background(), RunOptions{})
	require.Error(t, err)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, rel("staging.orders"), execErr.Model)

	require.Len(t, result.Results, 2)
	assert.Equal(t, StatusFailed, result.Results[0].Status)
	assert.Equal(t, StatusSkipped, result.Results[1].Status)
	assert.False(t, result.Succeeded())
}

func TestRun_ContextCancelledBetweenModels(t *testing.T) {
	db := newFakeAdapter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := testEngine(db, viewModel("staging.orders", nil, "SELECT 2"))
	result, err := e.Run(ctx, RunOptions{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, db.execs)
	require.Len(t, result.Results, 1)
	assert.Equal(t, StatusSkipped, result.Results[0].Status)
}

func TestRun_SelectorFiltersModels(t *testing.T) {
	db := newFakeAdapter()
	e := testEngine(db,
		viewModel("staging.orders", nil, "SELECT 2"),
		viewModel("marts.summary", []string{"staging.orders"}, "SELECT 1"),
	)

	result, err := e.Run(context.Background(), RunOptions{Selectors: []string{"staging.orders"}})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, rel("staging.orders"), result.Results[0].ID)
}

func TestRun_UnknownSelector(t *testing.T) {
	db := newFakeAdapter()
	e := testEngine(db, viewModel("staging.orders", nil, "SELECT 2"))

	_, err := e.Run(context.Background(), RunOptions{Selectors: []string{"staging.missing"}})
	require.Error(t, err)

	var unknown *dag.UnknownModelError
	assert.True(t, errors.As(err, &unknown))
}

// === Incremental execution ===

func TestExecuteIncremental_FirstRun(t *testing.T) {
	db := newFakeAdapter()
	m := viewModel("marts.events", nil, "SELECT id, ts FROM staging.raw_events")
	m.Header.Materialized = model.Incremental
	m.Header.UniqueKey = []string{"id"}
	e := testEngine(db, m)

	_, err := e.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0], "CREATE TABLE \"marts\".\"events\" AS")
	assert.Contains(t, db.execs[0], `ADD CONSTRAINT "events_pkey"`)
}

func TestExecuteIncremental_SteadyStateMerges(t *testing.T) {
	db := newFakeAdapter()
	db.tables[rel("marts.events")] = true
	db.columns[rel("marts.events")] = []string{"id", "ts"}

	m := viewModel("marts.events", nil, "SELECT id, ts FROM staging.raw_events")
	m.Header.Materialized = model.Incremental
	m.Header.UniqueKey = []string{"id"}
	e := testEngine(db, m)

	_, err := e.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0], `MERGE INTO "marts"."events" AS t`)
	assert.Contains(t, db.execs[0], `ON t."id" = s."id"`)
}

func TestExecuteIncremental_FullRefreshDropsFirst(t *testing.T) {
	db := newFakeAdapter()
	db.tables[rel("marts.events")] = true
	db.columns[rel("marts.events")] = []string{"id", "ts"}

	m := viewModel("marts.events", nil, "SELECT id, ts FROM staging.raw_events")
	m.Header.Materialized = model.Incremental
	m.Header.UniqueKey = []string{"id"}
	e := testEngine(db, m)

	_, err := e.Run(context.Background(), RunOptions{FullRefresh: true})
	require.NoError(t, err)
	require.Len(t, db.execs, 2)
	assert.Contains(t, db.execs[0], `DROP TABLE IF EXISTS "marts"."events" CASCADE`)
	assert.Contains(t, db.execs[1], "CREATE TABLE")
}

// === Test execution ===

func TestRunTests_CountsViolations(t *testing.T) {
	db := newFakeAdapter()
	m := viewModel("staging.orders", nil, "SELECT id FROM sources.raw_orders")
	m.Header.Tests = []model.Test{
		model.NotNull{Column: "id"},
		model.Unique{Columns: []string{"id"}},
	}
	e := testEngine(db, m)

	notNullSQL := model.NotNull{Column: "id"}.RenderSQL(m.ID, db.QuoteIdent)
	uniqueSQL := model.Unique{Columns: []string{"id"}}.RenderSQL(m.ID, db.QuoteIdent)
	db.countBySQL[notNullSQL] = 3
	db.rowsBySQL[uniqueSQL] = 0

	report, err := e.RunTests(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, 1, report.Failed())
	assert.False(t, report.Results[0].Passed())
	assert.EqualValues(t, 3, report.Results[0].Violations)
	assert.True(t, report.Results[1].Passed())
}

// === Compile artifacts ===

func TestCompileAll(t *testing.T) {
	db := newFakeAdapter()
	e := testEngine(db,
		viewModel("staging.orders", nil, "SELECT 2"),
		viewModel("marts.summary", []string{"staging.orders"}, "SELECT 1"),
	)

	dir := t.TempDir()
	written, err := e.CompileAll(dir)
	require.NoError(t, err)
	require.Len(t, written, 2)
	assert.Equal(t, filepath.Join(dir, "compiled", "staging", "orders.sql"), written[0])

	data, err := os.ReadFile(written[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), `CREATE OR REPLACE VIEW "marts"."summary" AS`)
}

// === Error formatting ===

func TestExecutionError_TruncatesSQL(t *testing.T) {
	long := strings.Repeat("SELECT 1 ", 100)
	err := &ExecutionError{
		Model: rel("staging.orders"),
		SQL:   long,
		Err:   errors.New("syntax error"),
	}
	msg := err.Error()
	assert.Contains(t, msg, "staging.orders: syntax error")
	assert.Contains(t, msg, "...")
	assert.Less(t, len(msg), 300)
}
