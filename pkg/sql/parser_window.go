package sql

// Window specification parsing: OVER (...) clauses and frame specs.

// parseWindowSpec parses the parenthesized window specification after OVER.
func (p *Parser) parseWindowSpec() *WindowSpec {
	spec := &WindowSpec{}
	p.expect(TOKEN_LPAREN)

	if p.check(TOKEN_PARTITION) {
		p.nextToken()
		p.expect(TOKEN_BY)
		spec.PartitionBy = p.parseExpressionList()
	}
	if p.check(TOKEN_ORDER) {
		p.nextToken()
		p.expect(TOKEN_BY)
		spec.OrderBy = p.parseOrderByList()
	}
	if p.check(TOKEN_ROWS) || p.check(TOKEN_RANGE) {
		spec.Frame = p.parseFrameSpec()
	}

	p.expect(TOKEN_RPAREN)
	return spec
}

// parseFrameSpec parses ROWS|RANGE [BETWEEN bound AND bound | bound].
func (p *Parser) parseFrameSpec() *FrameSpec {
	frame := &FrameSpec{Type: FrameRows}
	if p.check(TOKEN_RANGE) {
		frame.Type = FrameRange
	}
	p.nextToken()

	if p.match(TOKEN_BETWEEN) {
		frame.Start = p.parseFrameBound()
		p.expect(TOKEN_AND)
		frame.End = p.parseFrameBound()
	} else {
		frame.Start = p.parseFrameBound()
	}
	return frame
}

// parseFrameBound parses one frame bound.
func (p *Parser) parseFrameBound() *FrameBound {
	switch p.token.Type {
	case TOKEN_UNBOUNDED:
		p.nextToken()
		if p.match(TOKEN_PRECEDING) {
			return &FrameBound{Type: FrameUnboundedPreceding}
		}
		p.expect(TOKEN_FOLLOWING)
		return &FrameBound{Type: FrameUnboundedFollowing}

	case TOKEN_CURRENT:
		p.nextToken()
		p.expect(TOKEN_ROW)
		return &FrameBound{Type: FrameCurrentRow}
	}

	offset := p.parseExpression()
	if p.match(TOKEN_PRECEDING) {
		return &FrameBound{Type: FrameExprPreceding, Offset: offset}
	}
	p.expect(TOKEN_FOLLOWING)
	return &FrameBound{Type: FrameExprFollowing, Offset: offset}
}
