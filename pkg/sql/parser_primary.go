package sql

import "strings"

// Primary expression parsing: literals, column references, function calls.

// parsePrimary parses a primary expression.
func (p *Parser) parsePrimary() Expr {
	switch p.token.Type {
	case TOKEN_NUMBER:
		lit := &Literal{Type: LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		return lit

	case TOKEN_STRING:
		lit := &Literal{Type: LiteralString, Value: p.token.Literal}
		p.nextToken()
		return lit

	case TOKEN_TRUE:
		p.nextToken()
		return &Literal{Type: LiteralBool, Value: "TRUE"}

	case TOKEN_FALSE:
		p.nextToken()
		return &Literal{Type: LiteralBool, Value: "FALSE"}

	case TOKEN_NULL:
		p.nextToken()
		return &Literal{Type: LiteralNull, Value: "NULL"}

	case TOKEN_PLACEHOLDER:
		expr := &PlaceholderExpr{Content: p.token.Literal}
		p.nextToken()
		return expr

	case TOKEN_CASE:
		return p.parseCase()

	case TOKEN_CAST:
		return p.parseCast()

	case TOKEN_EXISTS:
		return p.parseExists(false)

	case TOKEN_NOT:
		if p.checkPeek(TOKEN_EXISTS) {
			p.nextToken()
			return p.parseExists(true)
		}

	case TOKEN_LPAREN:
		return p.parseParenOrSubquery()

	case TOKEN_STAR:
		p.nextToken()
		return &StarExpr{}

	case TOKEN_IDENT:
		return p.parseIdentExpr()

	// Non-reserved in expression position; LEFT('abc', 2) is a function.
	case TOKEN_LEFT, TOKEN_RIGHT, TOKEN_FILTER:
		if p.checkPeek(TOKEN_LPAREN) {
			return p.parseFuncCall(p.token.Literal)
		}
	}

	p.addError("unexpected token " + p.token.Type.String() + " in expression")
	p.nextToken()
	return &Literal{Type: LiteralNull, Value: "NULL"}
}

// parseIdentExpr parses an identifier-led expression: a column reference,
// a qualified t.col or t.*, or a function call.
func (p *Parser) parseIdentExpr() Expr {
	name := p.token.Literal

	if p.checkPeek(TOKEN_LPAREN) {
		return p.parseFuncCall(name)
	}

	p.nextToken()

	if p.match(TOKEN_DOT) {
		if p.check(TOKEN_STAR) {
			p.nextToken()
			return &StarExpr{Table: name}
		}
		if p.check(TOKEN_IDENT) {
			col := p.token.Literal
			p.nextToken()
			return &ColumnRef{Table: name, Column: col}
		}
		p.addError("expected column name after .")
		return &ColumnRef{Table: name}
	}

	return &ColumnRef{Column: name}
}

// parseFuncCall parses name(...) with aggregate and window trimmings.
func (p *Parser) parseFuncCall(name string) Expr {
	fn := &FuncCall{Name: name}
	p.nextToken() // name
	p.expect(TOKEN_LPAREN)

	switch {
	case p.check(TOKEN_STAR):
		fn.Star = true
		p.nextToken()
	case p.check(TOKEN_RPAREN):
		// zero arguments
	default:
		fn.Distinct = p.match(TOKEN_DISTINCT)
		fn.Args = p.parseExpressionList()
		if p.check(TOKEN_ORDER) {
			p.nextToken()
			p.expect(TOKEN_BY)
			fn.OrderBy = p.parseOrderByList()
		}
	}
	p.expect(TOKEN_RPAREN)

	if p.check(TOKEN_WITHIN) {
		p.nextToken()
		p.expect(TOKEN_GROUP)
		p.expect(TOKEN_LPAREN)
		p.expect(TOKEN_ORDER)
		p.expect(TOKEN_BY)
		fn.WithinGroup = p.parseOrderByList()
		p.expect(TOKEN_RPAREN)
	}

	if p.check(TOKEN_FILTER) {
		p.nextToken()
		p.expect(TOKEN_LPAREN)
		p.expect(TOKEN_WHERE)
		fn.Filter = p.parseExpression()
		p.expect(TOKEN_RPAREN)
	}

	if p.check(TOKEN_OVER) {
		p.nextToken()
		fn.Window = p.parseWindowSpec()
	}
	return fn
}

// parseTypeName parses a type name for CAST targets. Handles a leading
// identifier, an optional two-word form like DOUBLE PRECISION, and an
// optional precision argument list like NUMERIC(10, 2).
func (p *Parser) parseTypeName() string {
	if !p.check(TOKEN_IDENT) {
		p.addError("expected type name")
		return ""
	}
	var sb strings.Builder
	sb.WriteString(p.token.Literal)
	p.nextToken()

	// two-word types: double precision, character varying
	if p.check(TOKEN_IDENT) && !p.checkPeek(TOKEN_LPAREN) {
		switch strings.ToLower(sb.String()) {
		case "double", "character":
			sb.WriteByte(' ')
			sb.WriteString(p.token.Literal)
			p.nextToken()
		}
	}

	if p.match(TOKEN_LPAREN) {
		sb.WriteByte('(')
		for p.check(TOKEN_NUMBER) {
			sb.WriteString(p.token.Literal)
			p.nextToken()
			if p.match(TOKEN_COMMA) {
				sb.WriteString(", ")
			}
		}
		p.expect(TOKEN_RPAREN)
		sb.WriteByte(')')
	}

	// array types: int[]
	for p.check(TOKEN_LBRACKET) && p.checkPeek(TOKEN_RBRACKET) {
		p.nextToken()
		p.nextToken()
		sb.WriteString("[]")
	}
	return sb.String()
}
