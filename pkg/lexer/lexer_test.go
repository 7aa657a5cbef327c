package lexer

import (
	"testing"

	"github.com/kristofer/loxvm/pkg/token"
)

func TestNextTokenPunctuationAndOperators(t *testing.T) {
	input := `(){},.-+;*/!= == <= >= < >`
	want := []token.Type{
		token.LeftParen, token.RightParen, token.LeftBrace, token.RightBrace,
		token.Comma, token.Dot, token.Minus, token.Plus, token.Semicolon,
		token.Star, token.Slash, token.BangEqual, token.EqualEqual,
		token.LessEqual, token.GreaterEqual, token.Less, token.Greater, token.EOF,
	}
	l := New(input)
	for i, wantType := range want {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("token %d: unexpected error: %v", i, err)
		}
		if tok.Type != wantType {
			t.Fatalf("token %d: got %s, want %s", i, tok.Type, wantType)
		}
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	input := "var x = foo and bar or baz"
	l := New(input)
	types := []token.Type{token.Var, token.Identifier, token.Equal, token.Identifier,
		token.And, token.Identifier, token.Or, token.Identifier, token.EOF}
	for i, wantType := range types {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("token %d: unexpected error: %v", i, err)
		}
		if tok.Type != wantType {
			t.Fatalf("token %d (%q): got %s, want %s", i, tok.Lexeme, tok.Type, wantType)
		}
	}
}

func TestStringLiteral(t *testing.T) {
	l := New(`"hello world"`)
	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != token.String || tok.Lexeme != "hello world" {
		t.Fatalf("got %#v", tok)
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"hello`)
	_, err := l.NextToken()
	if err == nil {
		t.Fatal("expected an unterminated string error")
	}
}

func TestNumberLiteral(t *testing.T) {
	cases := []string{"123", "3.14", "0"}
	for _, src := range cases {
		l := New(src)
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", src, err)
		}
		if tok.Type != token.Number || tok.Lexeme != src {
			t.Fatalf("%q: got %#v", src, tok)
		}
	}
}

func TestLineTracking(t *testing.T) {
	l := New("var x;\nvar y;\n")
	var lastLine int
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.Type == token.EOF {
			break
		}
		lastLine = tok.Line
	}
	if lastLine != 2 {
		t.Fatalf("expected last token on line 2, got %d", lastLine)
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	l := New("// a comment\nvar x;")
	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != token.Var {
		t.Fatalf("expected VAR, got %s", tok.Type)
	}
	if tok.Line != 2 {
		t.Fatalf("expected line 2, got %d", tok.Line)
	}
}

func TestTokenize(t *testing.T) {
	toks, err := New("1 + 2;").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 5 { // NUMBER PLUS NUMBER SEMICOLON EOF
		t.Fatalf("got %d tokens, want 5: %#v", len(toks), toks)
	}
	if toks[len(toks)-1].Type != token.EOF {
		t.Fatalf("expected trailing EOF token")
	}
}
