// Package sql provides a SQL lexer, parser, and canonical writer for the
// SELECT dialect that model files are written in.
//
// # Parser Architecture
//
// The parser is split across multiple files for maintainability:
//
//   - parser.go (this file): Public API, Parser struct, token helpers
//   - parser_stmt.go: Statement parsing (WITH, SELECT body, ORDER BY)
//   - parser_from.go: FROM clause parsing (table refs, JOINs)
//   - parser_expr.go: Expression precedence parsing (OR, AND, comparisons, arithmetic)
//   - parser_primary.go: Primary expressions (literals, column refs, function calls)
//   - parser_window.go: Window specifications and frame specs
//   - parser_special.go: Special expressions (CASE, CAST, EXISTS, subqueries)
//
// # Usage
//
//	stmt, err := sql.Parse("SELECT a, b FROM t")
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
// The parser implements a recursive descent parser for a subset of SQL:
//
//	statement     → [WITH cte_list] select_body [;]
//	select_body   → select_core [(UNION|INTERSECT|EXCEPT) [ALL] select_body]
//	select_core   → SELECT [DISTINCT] select_list FROM from_clause
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	                [ORDER BY order_list] [LIMIT expr] [OFFSET expr]
//	                [FETCH (FIRST|NEXT) expr ROWS (ONLY|WITH TIES)]
//
// See each file for detailed grammar rules for that section.
package sql

import "fmt"

// Parser parses SQL into an AST.
type Parser struct {
	lexer  *Lexer
	token  Token // current token
	peek   Token // lookahead token
	peek2  Token // second lookahead token
	errors ParseErrors
}

// NewParser creates a new parser for the given SQL input.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a single SELECT statement and returns its AST.
// A trailing semicolon is allowed; anything after it is an error.
func Parse(input string) (*SelectStmt, error) {
	p := NewParser(input)
	stmt := p.parseStatement()
	p.match(TOKEN_SEMICOLON)
	if !p.check(TOKEN_EOF) {
		p.addError(fmt.Sprintf("unexpected %s after end of statement", p.token.Type))
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return stmt, nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t TokenType) bool {
	return p.peek.Type == t
}

// checkPeek2 returns true if the peek2 token is of the given type.
func (p *Parser) checkPeek2(t TokenType) bool {
	return p.peek2.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("unexpected token %s, expected %s", p.token.Type, t))
	return false
}

// addError adds a parse error at the current token position.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// ---------- Keyword Helpers ----------

// isReservedAfterExpr returns true for keywords that can't be a bare alias.
func (p *Parser) isReservedAfterExpr(tok Token) bool {
	if tok.Quoted {
		return false
	}
	switch tok.Type {
	case TOKEN_FROM, TOKEN_WHERE, TOKEN_GROUP, TOKEN_HAVING, TOKEN_ORDER,
		TOKEN_LIMIT, TOKEN_OFFSET, TOKEN_FETCH, TOKEN_UNION, TOKEN_INTERSECT,
		TOKEN_EXCEPT, TOKEN_LEFT, TOKEN_RIGHT, TOKEN_INNER, TOKEN_OUTER,
		TOKEN_FULL, TOKEN_CROSS, TOKEN_JOIN, TOKEN_ON, TOKEN_USING,
		TOKEN_AND, TOKEN_OR, TOKEN_WHEN, TOKEN_THEN, TOKEN_ELSE, TOKEN_END:
		return true
	}
	return false
}

// startsJoin returns true if the token begins a JOIN clause.
func (p *Parser) startsJoin(tok Token) bool {
	switch tok.Type {
	case TOKEN_JOIN, TOKEN_LEFT, TOKEN_RIGHT, TOKEN_INNER, TOKEN_FULL, TOKEN_CROSS:
		return true
	}
	return false
}
