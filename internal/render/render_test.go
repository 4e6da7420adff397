package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascade-data/cascade/internal/dag"
	"github.com/cascade-data/cascade/internal/model"
)

func rel(s string) model.Relation {
	r, _ := model.ParseRelation(s)
	return r
}

func sampleProject() *model.Project {
	p := model.NewProject("/tmp/project")
	p.Sources[rel("sources.raw_orders")] = true

	orders := &model.Model{
		ID:     rel("staging.orders"),
		Header: model.ModelHeader{Materialized: model.View, Deps: []model.Relation{rel("sources.raw_orders")}},
	}
	summary := &model.Model{
		ID: rel("marts.summary"),
		Header: model.ModelHeader{
			Materialized: model.Table,
			Deps:         []model.Relation{rel("staging.orders")},
			Tags:         []string{"daily"},
		},
	}
	p.Models[orders.ID] = orders
	p.Models[summary.ID] = summary
	return p
}

func TestAscii(t *testing.T) {
	p := sampleProject()
	out, err := Ascii(p, dag.New(p))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, []string{
		"staging.orders [view]",
		"  <- sources.raw_orders (source)",
		"marts.summary [table]",
		"  <- staging.orders",
	}, lines)
}

func TestDot(t *testing.T) {
	out := Dot(sampleProject())

	assert.True(t, strings.HasPrefix(out, "digraph models {"))
	assert.Contains(t, out, `sources_raw_orders [label="sources.raw_orders", shape=cylinder];`)
	assert.Contains(t, out, `staging_orders [label="staging.orders", shape=box];`)
	assert.Contains(t, out, "sources_raw_orders -> staging_orders;")
	assert.Contains(t, out, "staging_orders -> marts_summary;")
}

func TestMermaid(t *testing.T) {
	out := Mermaid(sampleProject())

	assert.True(t, strings.HasPrefix(out, "flowchart LR"))
	assert.Contains(t, out, `sources_raw_orders[("sources.raw_orders")]`)
	assert.Contains(t, out, `marts_summary["marts.summary"]`)
	assert.Contains(t, out, "staging_orders --> marts_summary")
}

func TestJSON(t *testing.T) {
	p := sampleProject()
	out, err := JSON(p, dag.New(p))
	require.NoError(t, err)

	var doc struct {
		Models []struct {
			ID           string   `json:"id"`
			Materialized string   `json:"materialized"`
			Tags         []string `json:"tags"`
			Deps         []string `json:"deps"`
			Sources      []string `json:"sources"`
		} `json:"models"`
		Sources []string `json:"sources"`
		Order   []string `json:"order"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, []string{"sources.raw_orders"}, doc.Sources)
	assert.Equal(t, []string{"staging.orders", "marts.summary"}, doc.Order)
	require.Len(t, doc.Models, 2)
	assert.Equal(t, "marts.summary", doc.Models[0].ID)
	assert.Equal(t, []string{"staging.orders"}, doc.Models[0].Deps)
	assert.Equal(t, []string{"daily"}, doc.Models[0].Tags)
	assert.Equal(t, []string{"sources.raw_orders"}, doc.Models[1].Sources)
}

func TestJSON_CycleFails(t *testing.T) {
	p := model.NewProject("/tmp/project")
	a := &model.Model{ID: rel("a.a"), Header: model.ModelHeader{Deps: []model.Relation{rel("a.b")}}}
	b := &model.Model{ID: rel("a.b"), Header: model.ModelHeader{Deps: []model.Relation{rel("a.a")}}}
	p.Models[a.ID] = a
	p.Models[b.ID] = b

	_, err := JSON(p, dag.New(p))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"ascii", "dot", "json", "mermaid"} {
		f, err := ParseFormat(name)
		require.NoError(t, err)
		assert.Equal(t, Format(name), f)
	}

	_, err := ParseFormat("svg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown graph format "svg"`)
}

func TestGraphDispatch(t *testing.T) {
	p := sampleProject()
	g := dag.New(p)

	for _, f := range []Format{FormatAscii, FormatDot, FormatJSON, FormatMermaid} {
		out, err := Graph(p, g, f)
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	}
}
