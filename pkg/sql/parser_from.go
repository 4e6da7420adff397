package sql

// FROM clause parsing: table references, derived tables, JOINs.
//
// Grammar:
//
//	from_clause → table_ref (join | "," table_ref)*
//	table_ref   → table_name [alias]
//	            | "(" statement ")" [alias]
//	            | LATERAL "(" statement ")" [alias]
//	            | placeholder [alias]
//	table_name  → ident ("." ident){0,2}
//	join        → [LEFT|RIGHT|FULL [OUTER]|INNER|CROSS] JOIN table_ref
//	              (ON expr | USING "(" column_list ")")?

// parseFromClause parses the FROM clause including all joins.
func (p *Parser) parseFromClause() *FromClause {
	from := &FromClause{Source: p.parseTableRef()}

	for {
		if p.match(TOKEN_COMMA) {
			from.Joins = append(from.Joins, &Join{
				Type:  JoinComma,
				Right: p.parseTableRef(),
			})
			continue
		}
		if !p.startsJoin(p.token) {
			break
		}
		from.Joins = append(from.Joins, p.parseJoin())
	}
	return from
}

// parseJoin parses a single JOIN clause.
func (p *Parser) parseJoin() *Join {
	join := &Join{Type: JoinInner}

	switch p.token.Type {
	case TOKEN_LEFT:
		join.Type = JoinLeft
		p.nextToken()
		p.match(TOKEN_OUTER)
	case TOKEN_RIGHT:
		join.Type = JoinRight
		p.nextToken()
		p.match(TOKEN_OUTER)
	case TOKEN_FULL:
		join.Type = JoinFull
		p.nextToken()
		p.match(TOKEN_OUTER)
	case TOKEN_INNER:
		p.nextToken()
	case TOKEN_CROSS:
		join.Type = JoinCross
		p.nextToken()
	}
	p.expect(TOKEN_JOIN)

	join.Right = p.parseTableRef()

	if p.match(TOKEN_ON) {
		join.Condition = p.parseExpression()
	} else if p.match(TOKEN_USING) {
		p.expect(TOKEN_LPAREN)
		for p.check(TOKEN_IDENT) {
			join.Using = append(join.Using, p.token.Literal)
			p.nextToken()
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
		p.expect(TOKEN_RPAREN)
	} else if join.Type != JoinCross {
		p.addError("expected ON or USING after JOIN")
	}
	return join
}

// parseTableRef parses one table reference with its optional alias.
func (p *Parser) parseTableRef() TableRef {
	switch p.token.Type {
	case TOKEN_LATERAL:
		p.nextToken()
		p.expect(TOKEN_LPAREN)
		sel := p.parseStatement()
		p.expect(TOKEN_RPAREN)
		return &LateralTable{Select: sel, Alias: p.parseTableAlias()}

	case TOKEN_LPAREN:
		p.nextToken()
		sel := p.parseStatement()
		p.expect(TOKEN_RPAREN)
		return &DerivedTable{Select: sel, Alias: p.parseTableAlias()}

	case TOKEN_PLACEHOLDER:
		tbl := &PlaceholderTable{Content: p.token.Literal}
		p.nextToken()
		tbl.Alias = p.parseTableAlias()
		return tbl

	case TOKEN_IDENT:
		return p.parseTableName()
	}

	p.addError("expected table reference")
	p.nextToken()
	return &TableName{}
}

// parseTableName parses ident(.ident(.ident)?)? plus an optional alias.
func (p *Parser) parseTableName() *TableName {
	var parts []string
	parts = append(parts, p.token.Literal)
	p.nextToken()

	for p.check(TOKEN_DOT) && p.checkPeek(TOKEN_IDENT) {
		p.nextToken()
		parts = append(parts, p.token.Literal)
		p.nextToken()
	}

	tbl := &TableName{}
	switch len(parts) {
	case 1:
		tbl.Name = parts[0]
	case 2:
		tbl.Schema, tbl.Name = parts[0], parts[1]
	default:
		tbl.Catalog, tbl.Schema, tbl.Name = parts[0], parts[1], parts[2]
		if len(parts) > 3 {
			p.addError("table name has too many qualifier levels")
		}
	}
	tbl.Alias = p.parseTableAlias()
	return tbl
}

// parseTableAlias parses an optional [AS] alias after a table reference.
func (p *Parser) parseTableAlias() string {
	if p.match(TOKEN_AS) {
		if p.check(TOKEN_IDENT) {
			alias := p.token.Literal
			p.nextToken()
			return alias
		}
		p.addError("expected alias after AS")
		return ""
	}
	if p.check(TOKEN_IDENT) && !p.isReservedAfterExpr(p.token) {
		alias := p.token.Literal
		p.nextToken()
		return alias
	}
	return ""
}
