package sql

// Expression parsing by recursive descent with explicit precedence levels,
// lowest binding first:
//
//	OR
//	AND
//	NOT
//	comparison (=, <>, <, <=, >, >=, IS, IN, BETWEEN, LIKE, ILIKE)
//	additive (+, -, ||)
//	multiplicative (*, /, %)
//	unary (-, +)
//	postfix (:: cast)
//	primary

// parseExpression parses a full expression.
func (p *Parser) parseExpression() Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() Expr {
	left := p.parseAnd()
	for p.check(TOKEN_OR) {
		p.nextToken()
		left = &BinaryExpr{Left: left, Op: "OR", Right: p.parseAnd()}
	}
	return left
}

func (p *Parser) parseAnd() Expr {
	left := p.parseNot()
	for p.check(TOKEN_AND) {
		p.nextToken()
		left = &BinaryExpr{Left: left, Op: "AND", Right: p.parseNot()}
	}
	return left
}

func (p *Parser) parseNot() Expr {
	if p.check(TOKEN_NOT) && !p.checkPeek(TOKEN_EXISTS) {
		p.nextToken()
		return &UnaryExpr{Op: "NOT", Expr: p.parseNot()}
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() Expr {
	left := p.parseAdditive()

	for {
		switch p.token.Type {
		case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE:
			op := p.token.Literal
			p.nextToken()
			left = &BinaryExpr{Left: left, Op: op, Right: p.parseAdditive()}

		case TOKEN_IS:
			p.nextToken()
			left = p.parseIsTail(left)

		case TOKEN_IN:
			p.nextToken()
			left = p.parseInTail(left, false)

		case TOKEN_BETWEEN:
			p.nextToken()
			left = p.parseBetweenTail(left, false)

		case TOKEN_LIKE:
			p.nextToken()
			left = &LikeExpr{Expr: left, Pattern: p.parseAdditive()}

		case TOKEN_ILIKE:
			p.nextToken()
			left = &LikeExpr{Expr: left, Pattern: p.parseAdditive(), ILike: true}

		case TOKEN_NOT:
			// x NOT IN / NOT BETWEEN / NOT LIKE / NOT ILIKE
			switch p.peek.Type {
			case TOKEN_IN:
				p.nextToken()
				p.nextToken()
				left = p.parseInTail(left, true)
			case TOKEN_BETWEEN:
				p.nextToken()
				p.nextToken()
				left = p.parseBetweenTail(left, true)
			case TOKEN_LIKE:
				p.nextToken()
				p.nextToken()
				left = &LikeExpr{Expr: left, Not: true, Pattern: p.parseAdditive()}
			case TOKEN_ILIKE:
				p.nextToken()
				p.nextToken()
				left = &LikeExpr{Expr: left, Not: true, Pattern: p.parseAdditive(), ILike: true}
			default:
				return left
			}

		default:
			return left
		}
	}
}

// parseIsTail parses the remainder after IS: [NOT] NULL | TRUE | FALSE.
func (p *Parser) parseIsTail(left Expr) Expr {
	not := p.match(TOKEN_NOT)
	switch p.token.Type {
	case TOKEN_NULL:
		p.nextToken()
		return &IsNullExpr{Expr: left, Not: not}
	case TOKEN_TRUE:
		p.nextToken()
		return &IsBoolExpr{Expr: left, Not: not, Value: true}
	case TOKEN_FALSE:
		p.nextToken()
		return &IsBoolExpr{Expr: left, Not: not, Value: false}
	}
	p.addError("expected NULL, TRUE, or FALSE after IS")
	return left
}

// parseInTail parses the remainder after IN: a value list or a subquery.
func (p *Parser) parseInTail(left Expr, not bool) Expr {
	in := &InExpr{Expr: left, Not: not}
	p.expect(TOKEN_LPAREN)
	if p.check(TOKEN_SELECT) || p.check(TOKEN_WITH) {
		in.Query = p.parseStatement()
	} else {
		in.Values = p.parseExpressionList()
	}
	p.expect(TOKEN_RPAREN)
	return in
}

// parseBetweenTail parses the remainder after BETWEEN: low AND high.
func (p *Parser) parseBetweenTail(left Expr, not bool) Expr {
	between := &BetweenExpr{Expr: left, Not: not}
	between.Low = p.parseAdditive()
	p.expect(TOKEN_AND)
	between.High = p.parseAdditive()
	return between
}

func (p *Parser) parseAdditive() Expr {
	left := p.parseMultiplicative()
	for {
		switch p.token.Type {
		case TOKEN_PLUS, TOKEN_MINUS, TOKEN_DPIPE:
			op := p.token.Literal
			p.nextToken()
			left = &BinaryExpr{Left: left, Op: op, Right: p.parseMultiplicative()}
		default:
			return left
		}
	}
}

func (p *Parser) parseMultiplicative() Expr {
	left := p.parseUnary()
	for {
		switch p.token.Type {
		case TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT:
			op := p.token.Literal
			p.nextToken()
			left = &BinaryExpr{Left: left, Op: op, Right: p.parseUnary()}
		default:
			return left
		}
	}
}

func (p *Parser) parseUnary() Expr {
	switch p.token.Type {
	case TOKEN_MINUS:
		p.nextToken()
		return &UnaryExpr{Op: "-", Expr: p.parseUnary()}
	case TOKEN_PLUS:
		p.nextToken()
		return &UnaryExpr{Op: "+", Expr: p.parseUnary()}
	}
	return p.parsePostfix()
}

// parsePostfix handles the :: cast shorthand after a primary expression.
func (p *Parser) parsePostfix() Expr {
	expr := p.parsePrimary()
	for p.check(TOKEN_DCOLON) {
		p.nextToken()
		expr = &CastExpr{Expr: expr, TypeName: p.parseTypeName(), Shortcut: true}
	}
	return expr
}
