package sql

import (
	"strings"
	"testing"
)

// mustParse parses or fails the test.
func mustParse(t *testing.T, input string) *SelectStmt {
	t.Helper()
	stmt, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", input, err)
	}
	return stmt
}

// =============================================================================
// Test: Basic SELECT structure
// =============================================================================

func TestParse_SimpleSelect(t *testing.T) {
	stmt := mustParse(t, "SELECT id, name FROM users")

	core := stmt.Body.Left
	if len(core.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(core.Columns))
	}
	col, ok := core.Columns[0].Expr.(*ColumnRef)
	if !ok || col.Column != "id" {
		t.Errorf("expected column ref id, got %#v", core.Columns[0].Expr)
	}

	tbl, ok := core.From.Source.(*TableName)
	if !ok || tbl.Name != "users" {
		t.Errorf("expected table users, got %#v", core.From.Source)
	}
}

func TestParse_QualifiedTableName(t *testing.T) {
	stmt := mustParse(t, "SELECT 1 FROM analytics.orders o")
	tbl := stmt.Body.Left.From.Source.(*TableName)

	if tbl.Schema != "analytics" || tbl.Name != "orders" || tbl.Alias != "o" {
		t.Errorf("got schema=%q name=%q alias=%q", tbl.Schema, tbl.Name, tbl.Alias)
	}
}

func TestParse_SelectStar(t *testing.T) {
	stmt := mustParse(t, "SELECT * FROM t")
	if !stmt.Body.Left.Columns[0].Star {
		t.Error("expected star select item")
	}

	stmt = mustParse(t, "SELECT t.* FROM t")
	if stmt.Body.Left.Columns[0].TableStar != "t" {
		t.Error("expected qualified star select item")
	}
}

func TestParse_Aliases(t *testing.T) {
	stmt := mustParse(t, "SELECT id AS user_id, count(*) total FROM t")
	cols := stmt.Body.Left.Columns
	if cols[0].Alias != "user_id" {
		t.Errorf("expected alias user_id, got %q", cols[0].Alias)
	}
	if cols[1].Alias != "total" {
		t.Errorf("expected bare alias total, got %q", cols[1].Alias)
	}
}

func TestParse_TrailingSemicolon(t *testing.T) {
	mustParse(t, "SELECT 1;")

	if _, err := Parse("SELECT 1; SELECT 2"); err == nil {
		t.Error("expected error for second statement")
	}
}

// =============================================================================
// Test: WITH clauses
// =============================================================================

func TestParse_WithClause(t *testing.T) {
	stmt := mustParse(t, `
		WITH base AS (SELECT id FROM raw.events),
		     agg AS (SELECT id, count(*) AS n FROM base GROUP BY id)
		SELECT * FROM agg`)

	if stmt.With == nil || len(stmt.With.CTEs) != 2 {
		t.Fatalf("expected 2 CTEs, got %#v", stmt.With)
	}
	if stmt.With.CTEs[0].Name != "base" || stmt.With.CTEs[1].Name != "agg" {
		t.Errorf("unexpected CTE names: %q, %q", stmt.With.CTEs[0].Name, stmt.With.CTEs[1].Name)
	}
}

func TestParse_RecursiveWith(t *testing.T) {
	stmt := mustParse(t, `
		WITH RECURSIVE nums AS (
			SELECT 1 AS n
			UNION ALL
			SELECT n + 1 FROM nums WHERE n < 10
		)
		SELECT * FROM nums`)

	if !stmt.With.Recursive {
		t.Error("expected recursive WITH")
	}
}

func TestParse_CTEColumnList(t *testing.T) {
	stmt := mustParse(t, "WITH t (a, b) AS (SELECT 1, 2) SELECT a FROM t")
	if got := stmt.With.CTEs[0].Columns; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected column list [a b], got %v", got)
	}
}

// =============================================================================
// Test: Set operations
// =============================================================================

func TestParse_SetOperations(t *testing.T) {
	tests := []struct {
		input string
		op    SetOpType
	}{
		{"SELECT 1 UNION SELECT 2", SetOpUnion},
		{"SELECT 1 UNION ALL SELECT 2", SetOpUnionAll},
		{"SELECT 1 INTERSECT SELECT 2", SetOpIntersect},
		{"SELECT 1 EXCEPT SELECT 2", SetOpExcept},
	}
	for _, tt := range tests {
		stmt := mustParse(t, tt.input)
		if stmt.Body.Op != tt.op {
			t.Errorf("%q: expected op %q, got %q", tt.input, tt.op, stmt.Body.Op)
		}
		if stmt.Body.Right == nil {
			t.Errorf("%q: missing right side", tt.input)
		}
	}
}

// =============================================================================
// Test: Joins
// =============================================================================

func TestParse_Joins(t *testing.T) {
	stmt := mustParse(t, `
		SELECT *
		FROM a
		JOIN b ON a.id = b.id
		LEFT JOIN c ON b.id = c.id
		FULL OUTER JOIN d USING (id)
		CROSS JOIN e`)

	joins := stmt.Body.Left.From.Joins
	if len(joins) != 4 {
		t.Fatalf("expected 4 joins, got %d", len(joins))
	}
	if joins[0].Type != JoinInner || joins[0].Condition == nil {
		t.Error("first join should be INNER with ON")
	}
	if joins[1].Type != JoinLeft {
		t.Error("second join should be LEFT")
	}
	if joins[2].Type != JoinFull || len(joins[2].Using) != 1 || joins[2].Using[0] != "id" {
		t.Errorf("third join should be FULL USING (id), got %#v", joins[2])
	}
	if joins[3].Type != JoinCross || joins[3].Condition != nil {
		t.Error("fourth join should be bare CROSS")
	}
}

func TestParse_CommaJoin(t *testing.T) {
	stmt := mustParse(t, "SELECT * FROM a, b WHERE a.id = b.id")
	joins := stmt.Body.Left.From.Joins
	if len(joins) != 1 || joins[0].Type != JoinComma {
		t.Fatalf("expected one comma join, got %#v", joins)
	}
}

func TestParse_DerivedTable(t *testing.T) {
	stmt := mustParse(t, "SELECT * FROM (SELECT id FROM t) sub")
	d, ok := stmt.Body.Left.From.Source.(*DerivedTable)
	if !ok {
		t.Fatalf("expected derived table, got %#v", stmt.Body.Left.From.Source)
	}
	if d.Alias != "sub" {
		t.Errorf("expected alias sub, got %q", d.Alias)
	}
}

func TestParse_LateralTable(t *testing.T) {
	stmt := mustParse(t, `
		SELECT *
		FROM orders o
		CROSS JOIN LATERAL (SELECT max(ts) FROM events e WHERE e.oid = o.id) latest`)

	join := stmt.Body.Left.From.Joins[0]
	lat, ok := join.Right.(*LateralTable)
	if !ok {
		t.Fatalf("expected lateral table, got %#v", join.Right)
	}
	if lat.Alias != "latest" {
		t.Errorf("expected alias latest, got %q", lat.Alias)
	}
}

func TestParse_PlaceholderTable(t *testing.T) {
	stmt := mustParse(t, "SELECT max(updated_at) FROM ${this}")
	ph, ok := stmt.Body.Left.From.Source.(*PlaceholderTable)
	if !ok {
		t.Fatalf("expected placeholder table, got %#v", stmt.Body.Left.From.Source)
	}
	if ph.Content != "${this}" {
		t.Errorf("placeholder text should round-trip, got %q", ph.Content)
	}
}

// =============================================================================
// Test: Expressions
// =============================================================================

func TestParse_OperatorPrecedence(t *testing.T) {
	stmt := mustParse(t, "SELECT 1 WHERE a = 1 OR b = 2 AND c = 3")
	where := stmt.Body.Left.Where

	or, ok := where.(*BinaryExpr)
	if !ok || or.Op != "OR" {
		t.Fatalf("expected OR at root, got %#v", where)
	}
	and, ok := or.Right.(*BinaryExpr)
	if !ok || and.Op != "AND" {
		t.Errorf("expected AND on right of OR, got %#v", or.Right)
	}
}

func TestParse_ArithmeticPrecedence(t *testing.T) {
	stmt := mustParse(t, "SELECT a + b * c")
	plus := stmt.Body.Left.Columns[0].Expr.(*BinaryExpr)
	if plus.Op != "+" {
		t.Fatalf("expected + at root, got %q", plus.Op)
	}
	mul, ok := plus.Right.(*BinaryExpr)
	if !ok || mul.Op != "*" {
		t.Errorf("expected * nested under +, got %#v", plus.Right)
	}
}

func TestParse_ComparisonForms(t *testing.T) {
	inputs := []string{
		"SELECT 1 WHERE x IS NULL",
		"SELECT 1 WHERE x IS NOT NULL",
		"SELECT 1 WHERE x IS TRUE",
		"SELECT 1 WHERE x IN (1, 2, 3)",
		"SELECT 1 WHERE x NOT IN (SELECT id FROM t)",
		"SELECT 1 WHERE x BETWEEN 1 AND 10",
		"SELECT 1 WHERE x NOT BETWEEN 1 AND 10",
		"SELECT 1 WHERE x LIKE 'a%'",
		"SELECT 1 WHERE x NOT ILIKE '%b'",
		"SELECT 1 WHERE NOT EXISTS (SELECT 1 FROM t)",
	}
	for _, input := range inputs {
		mustParse(t, input)
	}
}

func TestParse_CaseExpr(t *testing.T) {
	stmt := mustParse(t, `
		SELECT CASE WHEN amount > 100 THEN 'big' WHEN amount > 10 THEN 'medium' ELSE 'small' END
		FROM orders`)

	c := stmt.Body.Left.Columns[0].Expr.(*CaseExpr)
	if len(c.Whens) != 2 || c.Else == nil {
		t.Errorf("expected 2 WHENs and an ELSE, got %#v", c)
	}
}

func TestParse_SimpleCaseExpr(t *testing.T) {
	stmt := mustParse(t, "SELECT CASE status WHEN 'a' THEN 1 ELSE 0 END FROM t")
	c := stmt.Body.Left.Columns[0].Expr.(*CaseExpr)
	if c.Operand == nil {
		t.Error("expected CASE operand")
	}
}

func TestParse_Casts(t *testing.T) {
	stmt := mustParse(t, "SELECT CAST(x AS numeric(10, 2)), y::int, z::text[]")
	cols := stmt.Body.Left.Columns

	c0 := cols[0].Expr.(*CastExpr)
	if c0.Shortcut || c0.TypeName != "numeric(10, 2)" {
		t.Errorf("expected CAST numeric(10, 2), got %#v", c0)
	}
	c1 := cols[1].Expr.(*CastExpr)
	if !c1.Shortcut || c1.TypeName != "int" {
		t.Errorf("expected ::int shorthand, got %#v", c1)
	}
	c2 := cols[2].Expr.(*CastExpr)
	if c2.TypeName != "text[]" {
		t.Errorf("expected array type, got %q", c2.TypeName)
	}
}

func TestParse_FunctionCalls(t *testing.T) {
	stmt := mustParse(t, `
		SELECT
			count(*),
			count(DISTINCT user_id),
			string_agg(name, ',' ORDER BY name),
			percentile_cont(0.5) WITHIN GROUP (ORDER BY amount),
			count(*) FILTER (WHERE status = 'paid')
		FROM orders`)

	cols := stmt.Body.Left.Columns
	if !cols[0].Expr.(*FuncCall).Star {
		t.Error("count(*) should have Star set")
	}
	if !cols[1].Expr.(*FuncCall).Distinct {
		t.Error("count(DISTINCT ...) should have Distinct set")
	}
	if len(cols[2].Expr.(*FuncCall).OrderBy) != 1 {
		t.Error("string_agg should carry inner ORDER BY")
	}
	if len(cols[3].Expr.(*FuncCall).WithinGroup) != 1 {
		t.Error("percentile_cont should carry WITHIN GROUP ordering")
	}
	if cols[4].Expr.(*FuncCall).Filter == nil {
		t.Error("count(*) FILTER should carry the filter predicate")
	}
}

func TestParse_WindowFunctions(t *testing.T) {
	stmt := mustParse(t, `
		SELECT
			row_number() OVER (PARTITION BY user_id ORDER BY ts DESC),
			sum(x) OVER (ORDER BY ts ROWS BETWEEN 6 PRECEDING AND CURRENT ROW)
		FROM events`)

	cols := stmt.Body.Left.Columns
	w0 := cols[0].Expr.(*FuncCall).Window
	if w0 == nil || len(w0.PartitionBy) != 1 || !w0.OrderBy[0].Desc {
		t.Errorf("unexpected window spec: %#v", w0)
	}
	w1 := cols[1].Expr.(*FuncCall).Window
	if w1.Frame == nil || w1.Frame.Type != FrameRows {
		t.Fatalf("expected ROWS frame, got %#v", w1.Frame)
	}
	if w1.Frame.Start.Type != FrameExprPreceding || w1.Frame.End.Type != FrameCurrentRow {
		t.Errorf("unexpected frame bounds: %#v", w1.Frame)
	}
}

func TestParse_ScalarSubquery(t *testing.T) {
	stmt := mustParse(t, "SELECT (SELECT max(id) FROM t) AS max_id")
	if _, ok := stmt.Body.Left.Columns[0].Expr.(*SubqueryExpr); !ok {
		t.Errorf("expected scalar subquery, got %#v", stmt.Body.Left.Columns[0].Expr)
	}
}

// =============================================================================
// Test: Trailing clauses
// =============================================================================

func TestParse_TrailingClauses(t *testing.T) {
	stmt := mustParse(t, `
		SELECT region, sum(amount) AS total
		FROM orders
		WHERE status = 'paid'
		GROUP BY region
		HAVING sum(amount) > 0
		ORDER BY total DESC NULLS LAST
		LIMIT 10 OFFSET 5`)

	core := stmt.Body.Left
	if core.Where == nil || len(core.GroupBy) != 1 || core.Having == nil {
		t.Error("missing WHERE/GROUP BY/HAVING")
	}
	ob := core.OrderBy[0]
	if !ob.Desc || ob.NullsFirst == nil || *ob.NullsFirst {
		t.Errorf("expected DESC NULLS LAST, got %#v", ob)
	}
	if core.Limit == nil || core.Offset == nil {
		t.Error("missing LIMIT/OFFSET")
	}
}

func TestParse_FetchClause(t *testing.T) {
	stmt := mustParse(t, "SELECT 1 FROM t ORDER BY 1 FETCH FIRST 5 ROWS WITH TIES")
	fetch := stmt.Body.Left.Fetch
	if fetch == nil || !fetch.First || !fetch.WithTies {
		t.Errorf("unexpected fetch clause: %#v", fetch)
	}
}

// =============================================================================
// Test: Errors
// =============================================================================

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		input   string
		wantMsg string
	}{
		{"FROM t", "expected SELECT"},
		{"SELECT id FROM", "expected table reference"},
		{"SELECT CASE END", "unexpected token"},
		{"SELECT a JOIN", "unexpected"},
	}
	for _, tt := range tests {
		_, err := Parse(tt.input)
		if err == nil {
			t.Errorf("%q: expected error", tt.input)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantMsg) {
			t.Errorf("%q: error %q should mention %q", tt.input, err, tt.wantMsg)
		}
	}
}

func TestParseError_ReportsPosition(t *testing.T) {
	_, err := Parse("SELECT id FROM\n  ")
	var perr *ParseError
	if !asParseError(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.Pos.Line != 2 {
		t.Errorf("expected error on line 2, got %d", perr.Pos.Line)
	}
}

func asParseError(err error, target **ParseError) bool {
	pe, ok := err.(*ParseError)
	if ok {
		*target = pe
	}
	return ok
}
