package sql

import (
	"bytes"
	"strings"
)

const indentSize = 2

// Writer renders an AST back to SQL with stable indentation and keyword
// casing. The output is canonical: two statements with the same AST always
// serialize to the same text.
type Writer struct {
	output      *bytes.Buffer
	depth       int
	atLineStart bool
	inline      bool // render line breaks as spaces (subqueries)
}

// Format renders a statement to canonical SQL.
func Format(stmt *SelectStmt) string {
	w := &Writer{output: &bytes.Buffer{}, atLineStart: true}
	w.writeSelectStmt(stmt)
	return strings.TrimRight(w.output.String(), "\n") + "\n"
}

// FormatExpr renders a single expression to SQL on one line.
func FormatExpr(expr Expr) string {
	w := &Writer{output: &bytes.Buffer{}, atLineStart: true}
	w.writeExpr(expr)
	return w.output.String()
}

func (w *Writer) write(s string) {
	if w.atLineStart && len(s) > 0 && s[0] != '\n' {
		w.writeIndent()
	}
	w.output.WriteString(s)
	w.atLineStart = false
}

func (w *Writer) writeln() {
	if w.inline {
		w.atLineStart = true
		return
	}
	w.output.WriteByte('\n')
	w.atLineStart = true
}

func (w *Writer) writeIndent() {
	if w.inline {
		if w.output.Len() > 0 {
			b := w.output.Bytes()
			if last := b[len(b)-1]; last != ' ' && last != '(' {
				w.output.WriteByte(' ')
			}
		}
		w.atLineStart = false
		return
	}
	for i := 0; i < w.depth*indentSize; i++ {
		w.output.WriteByte(' ')
	}
	w.atLineStart = false
}

func (w *Writer) keyword(s string) {
	w.write(strings.ToUpper(s))
}

func (w *Writer) space() {
	w.output.WriteByte(' ')
}

func (w *Writer) indent() {
	w.depth++
}

func (w *Writer) dedent() {
	if w.depth > 0 {
		w.depth--
	}
}

// writeList prints count items with a separator, optionally one per line.
func (w *Writer) writeList(count int, format func(i int), sep string, multiline bool) {
	for i := 0; i < count; i++ {
		format(i)
		if i < count-1 {
			w.write(sep)
			if multiline {
				w.writeln()
			}
		}
	}
}

// writeIdent quotes an identifier when it is not a plain lowercase name.
func (w *Writer) writeIdent(name string) {
	if needsQuoting(name) {
		w.write(`"` + strings.ReplaceAll(name, `"`, `""`) + `"`)
		return
	}
	w.write(name)
}

func needsQuoting(name string) bool {
	if name == "" {
		return true
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' || c == '_' {
			continue
		}
		if c >= '0' && c <= '9' && i > 0 {
			continue
		}
		return true
	}
	_, reserved := keywords[name]
	return reserved
}

// ---------- Statements ----------

func (w *Writer) writeSelectStmt(stmt *SelectStmt) {
	if stmt == nil {
		return
	}
	if stmt.With != nil {
		w.writeWithClause(stmt.With)
	}
	w.writeSelectBody(stmt.Body)
}

func (w *Writer) writeWithClause(with *WithClause) {
	w.keyword("WITH")
	if with.Recursive {
		w.space()
		w.keyword("RECURSIVE")
	}
	w.writeln()

	w.indent()
	w.writeList(len(with.CTEs), func(i int) {
		cte := with.CTEs[i]
		w.writeIdent(cte.Name)
		if len(cte.Columns) > 0 {
			w.write(" (")
			w.writeList(len(cte.Columns), func(j int) { w.writeIdent(cte.Columns[j]) }, ", ", false)
			w.write(")")
		}
		w.space()
		w.keyword("AS")
		w.write(" (")
		w.writeln()

		w.indent()
		w.writeSelectStmt(cte.Select)
		w.dedent()

		w.write(")")
	}, ",", true)
	w.writeln()
	w.dedent()
}

func (w *Writer) writeSelectBody(body *SelectBody) {
	if body == nil {
		return
	}
	w.writeSelectCore(body.Left)

	if body.Op != SetOpNone {
		w.keyword(string(body.Op))
		w.writeln()
		w.writeSelectBody(body.Right)
	}
}

func (w *Writer) writeSelectCore(sc *SelectCore) {
	if sc == nil {
		return
	}
	w.keyword("SELECT")
	if sc.Distinct {
		w.space()
		w.keyword("DISTINCT")
	}
	w.writeln()

	w.indent()
	w.writeList(len(sc.Columns), func(i int) { w.writeSelectItem(sc.Columns[i]) }, ",", true)
	w.writeln()
	w.dedent()

	if sc.From != nil {
		w.keyword("FROM")
		w.space()
		w.writeFromClause(sc.From)
		w.writeln()
	}
	if sc.Where != nil {
		w.keyword("WHERE")
		w.space()
		w.writeExpr(sc.Where)
		w.writeln()
	}
	if len(sc.GroupBy) > 0 {
		w.keyword("GROUP BY")
		w.space()
		w.writeList(len(sc.GroupBy), func(i int) { w.writeExpr(sc.GroupBy[i]) }, ", ", false)
		w.writeln()
	}
	if sc.Having != nil {
		w.keyword("HAVING")
		w.space()
		w.writeExpr(sc.Having)
		w.writeln()
	}
	if len(sc.OrderBy) > 0 {
		w.keyword("ORDER BY")
		w.space()
		w.writeOrderByList(sc.OrderBy)
		w.writeln()
	}
	if sc.Limit != nil {
		w.keyword("LIMIT")
		w.space()
		w.writeExpr(sc.Limit)
		w.writeln()
	}
	if sc.Offset != nil {
		w.keyword("OFFSET")
		w.space()
		w.writeExpr(sc.Offset)
		w.writeln()
	}
	if sc.Fetch != nil {
		w.writeFetchClause(sc.Fetch)
		w.writeln()
	}
}

func (w *Writer) writeFetchClause(fetch *FetchClause) {
	w.keyword("FETCH")
	w.space()
	if fetch.First {
		w.keyword("FIRST")
	} else {
		w.keyword("NEXT")
	}
	if fetch.Count != nil {
		w.space()
		w.writeExpr(fetch.Count)
	}
	w.space()
	w.keyword("ROWS")
	w.space()
	if fetch.WithTies {
		w.keyword("WITH TIES")
	} else {
		w.keyword("ONLY")
	}
}

func (w *Writer) writeSelectItem(item SelectItem) {
	switch {
	case item.Star:
		w.write("*")
		return
	case item.TableStar != "":
		w.writeIdent(item.TableStar)
		w.write(".*")
		return
	}
	w.writeExpr(item.Expr)
	if item.Alias != "" {
		w.space()
		w.keyword("AS")
		w.space()
		w.writeIdent(item.Alias)
	}
}

func (w *Writer) writeOrderByList(items []OrderByItem) {
	w.writeList(len(items), func(i int) {
		item := items[i]
		w.writeExpr(item.Expr)
		if item.Desc {
			w.space()
			w.keyword("DESC")
		}
		if item.NullsFirst != nil {
			w.space()
			if *item.NullsFirst {
				w.keyword("NULLS FIRST")
			} else {
				w.keyword("NULLS LAST")
			}
		}
	}, ", ", false)
}

// ---------- FROM clause ----------

func (w *Writer) writeFromClause(from *FromClause) {
	w.writeTableRef(from.Source)
	for _, join := range from.Joins {
		if join.Type == JoinComma {
			w.write(",")
			w.writeln()
			w.writeTableRef(join.Right)
			continue
		}
		w.writeln()
		switch join.Type {
		case JoinInner:
			w.keyword("JOIN")
		case JoinLeft:
			w.keyword("LEFT JOIN")
		case JoinRight:
			w.keyword("RIGHT JOIN")
		case JoinFull:
			w.keyword("FULL JOIN")
		case JoinCross:
			w.keyword("CROSS JOIN")
		}
		w.space()
		w.writeTableRef(join.Right)
		if join.Condition != nil {
			w.space()
			w.keyword("ON")
			w.space()
			w.writeExpr(join.Condition)
		} else if len(join.Using) > 0 {
			w.space()
			w.keyword("USING")
			w.write(" (")
			w.writeList(len(join.Using), func(i int) { w.writeIdent(join.Using[i]) }, ", ", false)
			w.write(")")
		}
	}
}

func (w *Writer) writeTableRef(ref TableRef) {
	switch t := ref.(type) {
	case *TableName:
		w.writeList(len(t.Parts()), func(i int) { w.writeIdent(t.Parts()[i]) }, ".", false)
		w.writeAlias(t.Alias)
	case *DerivedTable:
		w.write("(")
		w.writeln()
		w.indent()
		w.writeSelectStmt(t.Select)
		w.dedent()
		w.write(")")
		w.writeAlias(t.Alias)
	case *LateralTable:
		w.keyword("LATERAL")
		w.write(" (")
		w.writeln()
		w.indent()
		w.writeSelectStmt(t.Select)
		w.dedent()
		w.write(")")
		w.writeAlias(t.Alias)
	case *PlaceholderTable:
		w.write(t.Content)
		w.writeAlias(t.Alias)
	}
}

func (w *Writer) writeAlias(alias string) {
	if alias == "" {
		return
	}
	w.space()
	w.keyword("AS")
	w.space()
	w.writeIdent(alias)
}
