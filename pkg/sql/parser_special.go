package sql

// Special expression forms: CASE, CAST, EXISTS, parenthesized expressions
// and scalar subqueries.

// parseCase parses both simple and searched CASE expressions.
func (p *Parser) parseCase() Expr {
	caseExpr := &CaseExpr{}
	p.expect(TOKEN_CASE)

	if !p.check(TOKEN_WHEN) {
		caseExpr.Operand = p.parseExpression()
	}

	for p.match(TOKEN_WHEN) {
		when := WhenClause{Condition: p.parseExpression()}
		p.expect(TOKEN_THEN)
		when.Result = p.parseExpression()
		caseExpr.Whens = append(caseExpr.Whens, when)
	}
	if len(caseExpr.Whens) == 0 {
		p.addError("CASE requires at least one WHEN clause")
	}

	if p.match(TOKEN_ELSE) {
		caseExpr.Else = p.parseExpression()
	}
	p.expect(TOKEN_END)
	return caseExpr
}

// parseCast parses CAST(expr AS type).
func (p *Parser) parseCast() Expr {
	p.expect(TOKEN_CAST)
	p.expect(TOKEN_LPAREN)
	cast := &CastExpr{Expr: p.parseExpression()}
	p.expect(TOKEN_AS)
	cast.TypeName = p.parseTypeName()
	p.expect(TOKEN_RPAREN)
	return cast
}

// parseExists parses [NOT] EXISTS (subquery). The NOT has already been
// consumed by the caller.
func (p *Parser) parseExists(not bool) Expr {
	p.expect(TOKEN_EXISTS)
	p.expect(TOKEN_LPAREN)
	sel := p.parseStatement()
	p.expect(TOKEN_RPAREN)
	return &ExistsExpr{Not: not, Select: sel}
}

// parseParenOrSubquery disambiguates "(expr)" from "(SELECT ...)".
func (p *Parser) parseParenOrSubquery() Expr {
	p.expect(TOKEN_LPAREN)

	if p.check(TOKEN_SELECT) || p.check(TOKEN_WITH) {
		sel := p.parseStatement()
		p.expect(TOKEN_RPAREN)
		return &SubqueryExpr{Select: sel}
	}

	expr := p.parseExpression()
	p.expect(TOKEN_RPAREN)
	return &ParenExpr{Expr: expr}
}
