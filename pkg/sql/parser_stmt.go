package sql

// Statement parsing: WITH clauses, set operations, select cores, ORDER BY.
//
// Grammar:
//
//	statement     → [with_clause] select_body
//	with_clause   → WITH [RECURSIVE] cte ("," cte)*
//	cte           → name ["(" column_list ")"] AS "(" statement ")"
//	select_body   → select_core [(UNION [ALL]|INTERSECT|EXCEPT) select_body]
//	select_core   → SELECT [DISTINCT] select_list [FROM from_clause]
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	                [ORDER BY order_list] [LIMIT expr] [OFFSET expr] [fetch]
//	fetch         → FETCH (FIRST|NEXT) [expr] (ROW|ROWS) (ONLY|WITH TIES)

// parseStatement parses a full statement including any WITH clause.
func (p *Parser) parseStatement() *SelectStmt {
	stmt := &SelectStmt{}

	if p.check(TOKEN_WITH) {
		stmt.With = p.parseWithClause()
	}

	stmt.Body = p.parseSelectBody()
	return stmt
}

// parseWithClause parses WITH [RECURSIVE] cte, cte, ...
func (p *Parser) parseWithClause() *WithClause {
	with := &WithClause{}
	p.expect(TOKEN_WITH)
	with.Recursive = p.match(TOKEN_RECURSIVE)

	for {
		cte := p.parseCTE()
		if cte == nil {
			break
		}
		with.CTEs = append(with.CTEs, cte)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return with
}

// parseCTE parses name [(col, ...)] AS (statement).
func (p *Parser) parseCTE() *CTE {
	if !p.check(TOKEN_IDENT) {
		p.addError("expected CTE name")
		return nil
	}
	cte := &CTE{Name: p.token.Literal}
	p.nextToken()

	if p.match(TOKEN_LPAREN) {
		for p.check(TOKEN_IDENT) {
			cte.Columns = append(cte.Columns, p.token.Literal)
			p.nextToken()
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
		p.expect(TOKEN_RPAREN)
	}

	p.expect(TOKEN_AS)
	p.expect(TOKEN_LPAREN)
	cte.Select = p.parseStatement()
	p.expect(TOKEN_RPAREN)
	return cte
}

// parseSelectBody parses a select core and any trailing set operations.
func (p *Parser) parseSelectBody() *SelectBody {
	body := &SelectBody{}
	body.Left = p.parseSelectCore()

	switch p.token.Type {
	case TOKEN_UNION:
		p.nextToken()
		if p.match(TOKEN_ALL) {
			body.Op = SetOpUnionAll
		} else {
			body.Op = SetOpUnion
		}
		body.Right = p.parseSelectBody()
	case TOKEN_INTERSECT:
		p.nextToken()
		body.Op = SetOpIntersect
		body.Right = p.parseSelectBody()
	case TOKEN_EXCEPT:
		p.nextToken()
		body.Op = SetOpExcept
		body.Right = p.parseSelectBody()
	}
	return body
}

// parseSelectCore parses SELECT through the trailing row-limit clauses.
func (p *Parser) parseSelectCore() *SelectCore {
	core := &SelectCore{}
	p.expect(TOKEN_SELECT)
	core.Distinct = p.match(TOKEN_DISTINCT)
	core.Columns = p.parseSelectList()

	if p.match(TOKEN_FROM) {
		core.From = p.parseFromClause()
	}
	if p.match(TOKEN_WHERE) {
		core.Where = p.parseExpression()
	}
	if p.check(TOKEN_GROUP) {
		p.nextToken()
		p.expect(TOKEN_BY)
		core.GroupBy = p.parseExpressionList()
	}
	if p.match(TOKEN_HAVING) {
		core.Having = p.parseExpression()
	}
	if p.check(TOKEN_ORDER) {
		p.nextToken()
		p.expect(TOKEN_BY)
		core.OrderBy = p.parseOrderByList()
	}
	if p.match(TOKEN_LIMIT) {
		core.Limit = p.parseExpression()
	}
	if p.match(TOKEN_OFFSET) {
		core.Offset = p.parseExpression()
		// Postgres accepts an optional ROW/ROWS noise word
		if p.check(TOKEN_ROW) || p.check(TOKEN_ROWS) {
			p.nextToken()
		}
	}
	if p.check(TOKEN_FETCH) {
		core.Fetch = p.parseFetchClause()
	}
	return core
}

// parseFetchClause parses FETCH (FIRST|NEXT) [n] (ROW|ROWS) (ONLY|WITH TIES).
func (p *Parser) parseFetchClause() *FetchClause {
	fetch := &FetchClause{}
	p.expect(TOKEN_FETCH)
	if p.match(TOKEN_FIRST) {
		fetch.First = true
	} else {
		p.expect(TOKEN_NEXT)
	}
	if !p.check(TOKEN_ROW) && !p.check(TOKEN_ROWS) {
		fetch.Count = p.parseExpression()
	}
	if p.check(TOKEN_ROW) || p.check(TOKEN_ROWS) {
		p.nextToken()
	}
	if p.match(TOKEN_WITH) {
		p.expect(TOKEN_TIES)
		fetch.WithTies = true
	} else {
		p.expect(TOKEN_ONLY)
	}
	return fetch
}

// parseSelectList parses the SELECT column list.
func (p *Parser) parseSelectList() []SelectItem {
	var items []SelectItem
	for {
		items = append(items, p.parseSelectItem())
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return items
}

// parseSelectItem parses a single select-list item.
func (p *Parser) parseSelectItem() SelectItem {
	item := SelectItem{}

	// Bare * or qualified t.*
	if p.check(TOKEN_STAR) {
		item.Star = true
		p.nextToken()
		return item
	}
	if p.check(TOKEN_IDENT) && p.checkPeek(TOKEN_DOT) && p.checkPeek2(TOKEN_STAR) {
		item.TableStar = p.token.Literal
		p.nextToken()
		p.nextToken()
		p.nextToken()
		return item
	}

	item.Expr = p.parseExpression()

	if p.match(TOKEN_AS) {
		if p.check(TOKEN_IDENT) {
			item.Alias = p.token.Literal
			p.nextToken()
		} else {
			p.addError("expected alias after AS")
		}
	} else if p.check(TOKEN_IDENT) && !p.isReservedAfterExpr(p.token) {
		item.Alias = p.token.Literal
		p.nextToken()
	}
	return item
}

// parseExpressionList parses a comma-separated expression list.
func (p *Parser) parseExpressionList() []Expr {
	var exprs []Expr
	for {
		exprs = append(exprs, p.parseExpression())
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return exprs
}

// parseOrderByList parses ORDER BY items with direction and NULLS ordering.
func (p *Parser) parseOrderByList() []OrderByItem {
	var items []OrderByItem
	for {
		item := OrderByItem{Expr: p.parseExpression()}
		if p.match(TOKEN_DESC) {
			item.Desc = true
		} else {
			p.match(TOKEN_ASC)
		}
		if p.match(TOKEN_NULLS) {
			if p.match(TOKEN_FIRST) {
				v := true
				item.NullsFirst = &v
			} else if p.match(TOKEN_LAST) {
				v := false
				item.NullsFirst = &v
			} else {
				p.addError("expected FIRST or LAST after NULLS")
			}
		}
		items = append(items, item)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return items
}
