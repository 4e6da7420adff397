package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascade-data/cascade/internal/model"
	"github.com/cascade-data/cascade/internal/testutil"
)

func rel(s string) model.Relation {
	r, _ := model.ParseRelation(s)
	return r
}

// writeModel creates models/<schema>/<name>.sql under root.
func writeModel(t *testing.T, root, schema, name, content string) {
	t.Helper()
	dir := filepath.Join(root, "models", schema)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".sql"), []byte(content), 0o644))
}

func loadProject(t *testing.T, root string, sources ...model.Relation) (*model.Project, error) {
	t.Helper()
	return New(root, filepath.Join(root, "models"), sources, testutil.NewTestLogger(t)).Load()
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "staging", "orders", `-- materialized: view
-- deps: sources.raw_orders
SELECT * FROM sources.raw_orders
`)
	writeModel(t, root, "marts", "summary", `-- materialized: table
-- deps: staging.orders
-- tags: daily
SELECT count(*) AS n FROM staging.orders
`)

	p, err := loadProject(t, root, rel("sources.raw_orders"))
	require.NoError(t, err)

	require.Len(t, p.Models, 2)
	assert.True(t, p.IsSource(rel("sources.raw_orders")))

	orders := p.Models[rel("staging.orders")]
	require.NotNil(t, orders)
	assert.Equal(t, model.View, orders.Header.Materialized)
	assert.Equal(t, []model.Relation{rel("sources.raw_orders")}, orders.Header.Deps)
	assert.Contains(t, orders.BodySQL, "SELECT * FROM sources.raw_orders")

	summary := p.Models[rel("marts.summary")]
	require.NotNil(t, summary)
	assert.Equal(t, []string{"daily"}, summary.Header.Tags)
}

func TestLoad_IncrementalSections(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "marts", "events", `-- materialized: incremental
-- unique_key: id
-- @base
SELECT id, ts FROM staging.raw_events
-- @incremental
SELECT id, ts FROM staging.raw_events WHERE ts > (SELECT max(ts) FROM ${this})
`)

	p, err := loadProject(t, root)
	require.NoError(t, err)

	m := p.Models[rel("marts.events")]
	require.NotNil(t, m)
	assert.Contains(t, m.BaseSQL, "SELECT id, ts FROM staging.raw_events")
	assert.NotContains(t, m.BaseSQL, "${this}")
	assert.Contains(t, m.IncrementalSQL, "${this}")
}

func TestLoad_ViewBodyNotSectioned(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "staging", "orders", `-- materialized: view
SELECT 1
`)

	p, err := loadProject(t, root)
	require.NoError(t, err)
	m := p.Models[rel("staging.orders")]
	assert.Empty(t, m.BaseSQL)
	assert.Empty(t, m.IncrementalSQL)
}

func TestLoad_ParseErrorsCollected(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "staging", "bad_one", "-- materialize: view\nSELECT 1\n")
	writeModel(t, root, "staging", "bad_two", "-- materialized: view\n")

	_, err := loadProject(t, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad_one")
	assert.Contains(t, err.Error(), "bad_two")
}

func TestLoad_BadLayout(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "models")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.sql"),
		[]byte("-- materialized: view\nSELECT 1\n"), 0o644))

	_, err := loadProject(t, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<schema>/<name>.sql")
}

func TestLoad_BadName(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "staging", "Bad-Name", "-- materialized: view\nSELECT 1\n")

	_, err := loadProject(t, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema and model name")
}

func TestLoad_SelfDependency(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "staging", "orders", `-- materialized: view
-- deps: staging.orders
SELECT 1
`)

	_, err := loadProject(t, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declares itself as a dependency")
}

func TestLoad_UnknownDependency(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "staging", "orders", `-- materialized: view
-- deps: sources.raw_orders
SELECT 1
`)

	_, err := loadProject(t, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a known model or source")
}

func TestLoad_MissingModelsDir(t *testing.T) {
	root := t.TempDir()
	_, err := loadProject(t, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "models directory")
}

func TestLoad_NonSQLFilesIgnored(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "staging", "orders", "-- materialized: view\nSELECT 1\n")
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "models", "staging", "README.md"), []byte("notes"), 0o644))

	p, err := loadProject(t, root)
	require.NoError(t, err)
	assert.Len(t, p.Models, 1)
}
