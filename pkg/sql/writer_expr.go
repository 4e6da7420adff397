package sql

import "strings"

// Expression rendering. Expressions always render on a single line; the
// statement writer handles line breaks around clauses.

func (w *Writer) writeExpr(expr Expr) {
	switch e := expr.(type) {
	case *ColumnRef:
		if e.Table != "" {
			w.writeIdent(e.Table)
			w.write(".")
		}
		w.writeIdent(e.Column)

	case *Literal:
		w.writeLiteral(e)

	case *PlaceholderExpr:
		w.write(e.Content)

	case *BinaryExpr:
		w.writeExpr(e.Left)
		w.space()
		w.write(e.Op)
		w.space()
		w.writeExpr(e.Right)

	case *UnaryExpr:
		w.write(e.Op)
		if e.Op == "NOT" {
			w.space()
		}
		w.writeExpr(e.Expr)

	case *FuncCall:
		w.writeFuncCall(e)

	case *CaseExpr:
		w.writeCaseExpr(e)

	case *CastExpr:
		if e.Shortcut {
			w.writeExpr(e.Expr)
			w.write("::")
			w.write(e.TypeName)
		} else {
			w.keyword("CAST")
			w.write("(")
			w.writeExpr(e.Expr)
			w.space()
			w.keyword("AS")
			w.space()
			w.write(e.TypeName)
			w.write(")")
		}

	case *InExpr:
		w.writeExpr(e.Expr)
		w.space()
		if e.Not {
			w.keyword("NOT")
			w.space()
		}
		w.keyword("IN")
		w.write(" (")
		if e.Query != nil {
			w.writeSubquery(e.Query)
		} else {
			w.writeList(len(e.Values), func(i int) { w.writeExpr(e.Values[i]) }, ", ", false)
		}
		w.write(")")

	case *BetweenExpr:
		w.writeExpr(e.Expr)
		w.space()
		if e.Not {
			w.keyword("NOT")
			w.space()
		}
		w.keyword("BETWEEN")
		w.space()
		w.writeExpr(e.Low)
		w.space()
		w.keyword("AND")
		w.space()
		w.writeExpr(e.High)

	case *IsNullExpr:
		w.writeExpr(e.Expr)
		w.space()
		w.keyword("IS")
		w.space()
		if e.Not {
			w.keyword("NOT")
			w.space()
		}
		w.keyword("NULL")

	case *IsBoolExpr:
		w.writeExpr(e.Expr)
		w.space()
		w.keyword("IS")
		w.space()
		if e.Not {
			w.keyword("NOT")
			w.space()
		}
		if e.Value {
			w.keyword("TRUE")
		} else {
			w.keyword("FALSE")
		}

	case *LikeExpr:
		w.writeExpr(e.Expr)
		w.space()
		if e.Not {
			w.keyword("NOT")
			w.space()
		}
		if e.ILike {
			w.keyword("ILIKE")
		} else {
			w.keyword("LIKE")
		}
		w.space()
		w.writeExpr(e.Pattern)

	case *ParenExpr:
		w.write("(")
		w.writeExpr(e.Expr)
		w.write(")")

	case *StarExpr:
		if e.Table != "" {
			w.writeIdent(e.Table)
			w.write(".")
		}
		w.write("*")

	case *SubqueryExpr:
		w.write("(")
		w.writeSubquery(e.Select)
		w.write(")")

	case *ExistsExpr:
		if e.Not {
			w.keyword("NOT")
			w.space()
		}
		w.keyword("EXISTS")
		w.write(" (")
		w.writeSubquery(e.Select)
		w.write(")")
	}
}

func (w *Writer) writeLiteral(lit *Literal) {
	switch lit.Type {
	case LiteralString:
		w.write("'" + strings.ReplaceAll(lit.Value, "'", "''") + "'")
	default:
		w.write(lit.Value)
	}
}

// writeSubquery renders a nested statement with clause breaks as spaces.
func (w *Writer) writeSubquery(stmt *SelectStmt) {
	wasInline := w.inline
	w.inline = true
	w.writeSelectStmt(stmt)
	w.inline = wasInline
	w.atLineStart = false
}

func (w *Writer) writeFuncCall(fn *FuncCall) {
	w.write(fn.Name)
	w.write("(")
	switch {
	case fn.Star:
		w.write("*")
	default:
		if fn.Distinct {
			w.keyword("DISTINCT")
			w.space()
		}
		w.writeList(len(fn.Args), func(i int) { w.writeExpr(fn.Args[i]) }, ", ", false)
		if len(fn.OrderBy) > 0 {
			w.space()
			w.keyword("ORDER BY")
			w.space()
			w.writeOrderByList(fn.OrderBy)
		}
	}
	w.write(")")

	if len(fn.WithinGroup) > 0 {
		w.space()
		w.keyword("WITHIN GROUP")
		w.write(" (")
		w.keyword("ORDER BY")
		w.space()
		w.writeOrderByList(fn.WithinGroup)
		w.write(")")
	}
	if fn.Filter != nil {
		w.space()
		w.keyword("FILTER")
		w.write(" (")
		w.keyword("WHERE")
		w.space()
		w.writeExpr(fn.Filter)
		w.write(")")
	}
	if fn.Window != nil {
		w.space()
		w.keyword("OVER")
		w.space()
		w.writeWindowSpec(fn.Window)
	}
}

func (w *Writer) writeCaseExpr(c *CaseExpr) {
	w.keyword("CASE")
	if c.Operand != nil {
		w.space()
		w.writeExpr(c.Operand)
	}
	for _, when := range c.Whens {
		w.space()
		w.keyword("WHEN")
		w.space()
		w.writeExpr(when.Condition)
		w.space()
		w.keyword("THEN")
		w.space()
		w.writeExpr(when.Result)
	}
	if c.Else != nil {
		w.space()
		w.keyword("ELSE")
		w.space()
		w.writeExpr(c.Else)
	}
	w.space()
	w.keyword("END")
}

func (w *Writer) writeWindowSpec(spec *WindowSpec) {
	w.write("(")
	wrote := false
	if len(spec.PartitionBy) > 0 {
		w.keyword("PARTITION BY")
		w.space()
		w.writeList(len(spec.PartitionBy), func(i int) { w.writeExpr(spec.PartitionBy[i]) }, ", ", false)
		wrote = true
	}
	if len(spec.OrderBy) > 0 {
		if wrote {
			w.space()
		}
		w.keyword("ORDER BY")
		w.space()
		w.writeOrderByList(spec.OrderBy)
		wrote = true
	}
	if spec.Frame != nil {
		if wrote {
			w.space()
		}
		w.writeFrameSpec(spec.Frame)
	}
	w.write(")")
}

func (w *Writer) writeFrameSpec(frame *FrameSpec) {
	w.keyword(string(frame.Type))
	w.space()
	if frame.End != nil {
		w.keyword("BETWEEN")
		w.space()
		w.writeFrameBound(frame.Start)
		w.space()
		w.keyword("AND")
		w.space()
		w.writeFrameBound(frame.End)
		return
	}
	w.writeFrameBound(frame.Start)
}

func (w *Writer) writeFrameBound(bound *FrameBound) {
	switch bound.Type {
	case FrameExprPreceding:
		w.writeExpr(bound.Offset)
		w.space()
		w.keyword("PRECEDING")
	case FrameExprFollowing:
		w.writeExpr(bound.Offset)
		w.space()
		w.keyword("FOLLOWING")
	default:
		w.keyword(string(bound.Type))
	}
}
