package model

import (
	"fmt"
	"strings"
)

// Test is a data quality check attached to a model. The variant set is
// closed: NotNull, Unique, AcceptedValues, and Relationships.
//
// NotNull, AcceptedValues, and Relationships render queries returning a
// single "violations" count column (pass iff 0). Unique returns zero or more
// duplicate-key rows (pass iff empty).
type Test interface {
	// Name returns the test name with its primary column, for reporting.
	Name() string
	// RenderSQL renders the check against the given relation. quote escapes
	// a single identifier.
	RenderSQL(rel Relation, quote func(string) string) string
}

// NotNull checks that a column contains no NULLs.
type NotNull struct {
	Column string
}

func (t NotNull) Name() string {
	return fmt.Sprintf("not_null(%s)", t.Column)
}

func (t NotNull) RenderSQL(rel Relation, quote func(string) string) string {
	return fmt.Sprintf("SELECT count(*) AS violations FROM %s WHERE %s IS NULL",
		quoteRelation(rel, quote), quote(t.Column))
}

// Unique checks that a column combination has no duplicate values.
type Unique struct {
	Columns []string
}

func (t Unique) Name() string {
	return fmt.Sprintf("unique(%s)", strings.Join(t.Columns, ", "))
}

func (t Unique) RenderSQL(rel Relation, quote func(string) string) string {
	cols := quoteAll(t.Columns, quote)
	list := strings.Join(cols, ", ")
	return fmt.Sprintf("SELECT %s, count(*) AS n FROM %s GROUP BY %s HAVING count(*) > 1",
		list, quoteRelation(rel, quote), list)
}

// AcceptedValues checks that a column only holds values from a fixed list.
type AcceptedValues struct {
	Column string
	Values []string
}

func (t AcceptedValues) Name() string {
	return fmt.Sprintf("accepted_values(%s)", t.Column)
}

func (t AcceptedValues) RenderSQL(rel Relation, quote func(string) string) string {
	quoted := make([]string, len(t.Values))
	for i, v := range t.Values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	col := quote(t.Column)
	return fmt.Sprintf(
		"SELECT count(*) AS violations FROM %s WHERE %s IS NOT NULL AND %s NOT IN (%s)",
		quoteRelation(rel, quote), col, col, strings.Join(quoted, ", "))
}

// Relationships checks referential integrity of a column against a target
// relation's column.
type Relationships struct {
	Column       string
	TargetTable  Relation
	TargetColumn string
}

func (t Relationships) Name() string {
	return fmt.Sprintf("relationships(%s)", t.Column)
}

func (t Relationships) RenderSQL(rel Relation, quote func(string) string) string {
	return fmt.Sprintf(
		"SELECT count(*) AS violations FROM %s AS c WHERE c.%s IS NOT NULL "+
			"AND NOT EXISTS (SELECT 1 FROM %s AS p WHERE p.%s = c.%s)",
		quoteRelation(rel, quote), quote(t.Column),
		quoteRelation(t.TargetTable, quote), quote(t.TargetColumn), quote(t.Column))
}

func quoteRelation(rel Relation, quote func(string) string) string {
	return quote(rel.Schema) + "." + quote(rel.Name)
}

func quoteAll(names []string, quote func(string) string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quote(n)
	}
	return out
}
