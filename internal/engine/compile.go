// Package engine compiles models into materialization SQL and executes them
// in dependency order.
package engine

import (
	"fmt"
	"strings"

	"github.com/cascade-data/cascade/internal/model"
)

// Quote is an identifier escaping function, supplied by the adapter.
type Quote func(string) string

// quoteRel renders schema.name with both parts quoted.
func quoteRel(rel model.Relation, quote Quote) string {
	return quote(rel.Schema) + "." + quote(rel.Name)
}

// normalizeBody strips trailing whitespace and any trailing semicolon so the
// body can be embedded in a larger statement.
func normalizeBody(body string) string {
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, ";")
	return strings.TrimSpace(body)
}

// dropPreamble emits both DROP statements regardless of the model's current
// materialization, so switching a model between view and table never fails
// with a wrong-object-type error.
func dropPreamble(rel model.Relation, quote Quote) string {
	target := quoteRel(rel, quote)
	return "DROP VIEW IF EXISTS " + target + " CASCADE;\n" +
		"DROP TABLE IF EXISTS " + target + " CASCADE;\n"
}

// GenerateRunSQL renders the full run form for a view or table model, and
// the first-run form for an incremental model.
func GenerateRunSQL(m *model.Model, quote Quote) string {
	target := quoteRel(m.ID, quote)
	body := normalizeBody(firstRunSQL(m))

	switch m.Header.Materialized {
	case model.View:
		return dropPreamble(m.ID, quote) +
			"CREATE OR REPLACE VIEW " + target + " AS\n" + body + ";\n"
	case model.Table:
		return dropPreamble(m.ID, quote) +
			"CREATE TABLE " + target + " AS\n" + body + ";\n"
	case model.Incremental:
		return dropPreamble(m.ID, quote) +
			"CREATE TABLE " + target + " AS\n" + body + ";\n" +
			addPrimaryKeySQL(m, quote)
	}
	return ""
}

// firstRunSQL selects the SQL used to build the target from scratch.
func firstRunSQL(m *model.Model) string {
	if m.BaseSQL != "" {
		return m.BaseSQL
	}
	return m.BodySQL
}

// steadySQL selects the SQL used as the merge source on steady-state runs,
// with ${this} resolved to the target relation.
func steadySQL(m *model.Model, quote Quote) string {
	text := m.BodySQL
	if m.IncrementalSQL != "" {
		text = m.IncrementalSQL
	} else if m.BaseSQL != "" {
		text = m.BaseSQL
	}
	return strings.ReplaceAll(text, "${this}", quoteRel(m.ID, quote))
}

// MergeSourceSQL builds the steady-state source query for an incremental
// model, applying the watermark or incremental_filter predicate by wrapping
// the body.
func MergeSourceSQL(m *model.Model, quote Quote) string {
	body := normalizeBody(steadySQL(m, quote))
	target := quoteRel(m.ID, quote)

	var predicates []string
	for _, col := range m.Header.Watermark {
		bound := fmt.Sprintf("(SELECT max(%s) FROM %s)", quote(col), target)
		if m.Header.Lookback != "" {
			bound += fmt.Sprintf(" - interval '%s'", m.Header.Lookback)
		}
		predicates = append(predicates, fmt.Sprintf("%s >= %s", quote(col), bound))
	}
	if m.Header.IncrementalFilter != "" {
		filter := strings.ReplaceAll(m.Header.IncrementalFilter, "${this}", target)
		predicates = append(predicates, "("+filter+")")
	}

	if len(predicates) == 0 {
		return body
	}
	return "SELECT * FROM (\n" + body + "\n) AS src\nWHERE " +
		strings.Join(predicates, " AND ")
}

// addPrimaryKeySQL emits the primary key constraint added after the first
// incremental build.
func addPrimaryKeySQL(m *model.Model, quote Quote) string {
	cols := make([]string, len(m.Header.UniqueKey))
	for i, c := range m.Header.UniqueKey {
		cols[i] = quote(c)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s);\n",
		quoteRel(m.ID, quote),
		quote(m.ID.Name+"_pkey"),
		strings.Join(cols, ", "))
}

// GenerateMergeSQL builds the MERGE statement for a steady-state incremental
// run. columns is the target table's current column list; key columns are
// always excluded from the UPDATE SET list.
func GenerateMergeSQL(m *model.Model, columns []string, quote Quote) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("%s: no columns found on target table", m.ID)
	}

	key := map[string]bool{}
	for _, k := range m.Header.UniqueKey {
		key[k] = true
	}
	for _, k := range m.Header.UniqueKey {
		if !contains(columns, k) {
			return "", fmt.Errorf("%s: unique_key column %q not present on target table", m.ID, k)
		}
	}

	var on []string
	for _, k := range m.Header.UniqueKey {
		on = append(on, fmt.Sprintf("t.%s = s.%s", quote(k), quote(k)))
	}

	var updates []string
	for _, c := range columns {
		if key[c] {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = s.%s", quote(c), quote(c)))
	}

	insertCols := make([]string, len(columns))
	insertVals := make([]string, len(columns))
	for i, c := range columns {
		insertCols[i] = quote(c)
		insertVals[i] = "s." + quote(c)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "MERGE INTO %s AS t\nUSING (\n%s\n) AS s\nON %s\n",
		quoteRel(m.ID, quote), MergeSourceSQL(m, quote), strings.Join(on, " AND "))
	if len(updates) > 0 {
		fmt.Fprintf(&sb, "WHEN MATCHED THEN UPDATE SET %s\n", strings.Join(updates, ", "))
	}
	fmt.Fprintf(&sb, "WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)",
		strings.Join(insertCols, ","), strings.Join(insertVals, ","))
	return sb.String(), nil
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}
