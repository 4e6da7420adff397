package sql

import "testing"

func TestLexer_Operators(t *testing.T) {
	input := `+ - * / % = <> != < <= > >= || :: ; . ,`
	expected := []TokenType{
		TOKEN_PLUS, TOKEN_MINUS, TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT,
		TOKEN_EQ, TOKEN_NE, TOKEN_NE, TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE,
		TOKEN_DPIPE, TOKEN_DCOLON, TOKEN_SEMICOLON, TOKEN_DOT, TOKEN_COMMA,
		TOKEN_EOF,
	}

	l := NewLexer(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Errorf("token %d: expected %s, got %s (%q)", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestLexer_KeywordsAreCaseInsensitive(t *testing.T) {
	for _, input := range []string{"SELECT", "select", "Select"} {
		l := NewLexer(input)
		tok := l.NextToken()
		if tok.Type != TOKEN_SELECT {
			t.Errorf("%q: expected TOKEN_SELECT, got %s", input, tok.Type)
		}
	}
}

func TestLexer_UnquotedIdentifiersFoldToLower(t *testing.T) {
	l := NewLexer("OrderID")
	tok := l.NextToken()
	if tok.Type != TOKEN_IDENT || tok.Literal != "orderid" {
		t.Errorf("expected ident %q, got %s %q", "orderid", tok.Type, tok.Literal)
	}
	if tok.Quoted {
		t.Error("unquoted identifier should not be marked quoted")
	}
}

func TestLexer_QuotedIdentifierKeepsCase(t *testing.T) {
	l := NewLexer(`"OrderID"`)
	tok := l.NextToken()
	if tok.Type != TOKEN_IDENT || tok.Literal != "OrderID" {
		t.Errorf("expected ident %q, got %s %q", "OrderID", tok.Type, tok.Literal)
	}
	if !tok.Quoted {
		t.Error("quoted identifier should be marked quoted")
	}
}

func TestLexer_QuotedIdentifierEscapes(t *testing.T) {
	l := NewLexer(`"col""name"`)
	tok := l.NextToken()
	if tok.Literal != `col"name` {
		t.Errorf("expected %q, got %q", `col"name`, tok.Literal)
	}
}

func TestLexer_StringEscapes(t *testing.T) {
	l := NewLexer(`'it''s'`)
	tok := l.NextToken()
	if tok.Type != TOKEN_STRING || tok.Literal != "it's" {
		t.Errorf("expected string %q, got %s %q", "it's", tok.Type, tok.Literal)
	}
}

func TestLexer_Numbers(t *testing.T) {
	tests := []string{"42", "3.14", "1e10", "2.5e-3"}
	for _, input := range tests {
		l := NewLexer(input)
		tok := l.NextToken()
		if tok.Type != TOKEN_NUMBER || tok.Literal != input {
			t.Errorf("%q: got %s %q", input, tok.Type, tok.Literal)
		}
	}
}

func TestLexer_Placeholder(t *testing.T) {
	l := NewLexer("${this}")
	tok := l.NextToken()
	if tok.Type != TOKEN_PLACEHOLDER {
		t.Fatalf("expected TOKEN_PLACEHOLDER, got %s", tok.Type)
	}
	if tok.Literal != "${this}" {
		t.Errorf("placeholder text should be preserved, got %q", tok.Literal)
	}
}

func TestLexer_Comments(t *testing.T) {
	input := `-- leading comment
select /* inline */ 1`
	l := NewLexer(input)

	if tok := l.NextToken(); tok.Type != TOKEN_SELECT {
		t.Errorf("expected TOKEN_SELECT, got %s", tok.Type)
	}
	if tok := l.NextToken(); tok.Type != TOKEN_NUMBER {
		t.Errorf("expected TOKEN_NUMBER, got %s", tok.Type)
	}
	if tok := l.NextToken(); tok.Type != TOKEN_EOF {
		t.Errorf("expected TOKEN_EOF, got %s", tok.Type)
	}
}

func TestLexer_Positions(t *testing.T) {
	l := NewLexer("select\n  id")
	l.NextToken() // select
	tok := l.NextToken()
	if tok.Pos.Line != 2 {
		t.Errorf("expected line 2, got %d", tok.Pos.Line)
	}
	if tok.Pos.Column != 3 {
		t.Errorf("expected column 3, got %d", tok.Pos.Column)
	}
}
