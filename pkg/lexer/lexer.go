// Package lexer implements the lexical analyzer (tokenizer) for loxvm.
package lexer

import (
	"unicode"

	"github.com/kristofer/loxvm/pkg/core"
	"github.com/kristofer/loxvm/pkg/token"
)

// Lexer scans source text into a stream of tokens.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int
}

// New creates a new lexer for the given input.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() (token.Token, error) {
	l.skipWhitespaceAndComments()

	line := l.line
	var tok token.Token
	tok.Line = line

	switch l.ch {
	case 0:
		tok.Type = token.EOF
	case '(':
		tok.Type, tok.Lexeme = token.LeftParen, "("
		l.readChar()
	case ')':
		tok.Type, tok.Lexeme = token.RightParen, ")"
		l.readChar()
	case '{':
		tok.Type, tok.Lexeme = token.LeftBrace, "{"
		l.readChar()
	case '}':
		tok.Type, tok.Lexeme = token.RightBrace, "}"
		l.readChar()
	case ',':
		tok.Type, tok.Lexeme = token.Comma, ","
		l.readChar()
	case '.':
		tok.Type, tok.Lexeme = token.Dot, "."
		l.readChar()
	case '-':
		tok.Type, tok.Lexeme = token.Minus, "-"
		l.readChar()
	case '+':
		tok.Type, tok.Lexeme = token.Plus, "+"
		l.readChar()
	case ';':
		tok.Type, tok.Lexeme = token.Semicolon, ";"
		l.readChar()
	case '*':
		tok.Type, tok.Lexeme = token.Star, "*"
		l.readChar()
	case '/':
		tok.Type, tok.Lexeme = token.Slash, "/"
		l.readChar()
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Lexeme = token.BangEqual, "!="
		} else {
			tok.Type, tok.Lexeme = token.Bang, "!"
		}
		l.readChar()
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Lexeme = token.EqualEqual, "=="
		} else {
			tok.Type, tok.Lexeme = token.Equal, "="
		}
		l.readChar()
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Lexeme = token.LessEqual, "<="
		} else {
			tok.Type, tok.Lexeme = token.Less, "<"
		}
		l.readChar()
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Lexeme = token.GreaterEqual, ">="
		} else {
			tok.Type, tok.Lexeme = token.Greater, ">"
		}
		l.readChar()
	case '"':
		lexeme, err := l.readString()
		if err != nil {
			return token.Token{}, err
		}
		tok.Type, tok.Lexeme = token.String, lexeme
	default:
		if isDigit(l.ch) {
			tok.Type, tok.Lexeme = token.Number, l.readNumber()
			return tok, nil
		} else if isAlpha(l.ch) {
			lexeme := l.readIdentifier()
			if kw, ok := token.Keywords[lexeme]; ok {
				tok.Type = kw
			} else {
				tok.Type = token.Identifier
			}
			tok.Lexeme = lexeme
			return tok, nil
		}
		tok.Type, tok.Lexeme = token.Illegal, string(l.ch)
		l.readChar()
	}

	return tok, nil
}

// skipWhitespaceAndComments skips spaces, tabs, newlines, and `//` line
// comments, tracking line numbers.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch l.ch {
		case ' ', '\t', '\r':
			l.readChar()
		case '\n':
			l.line++
			l.readChar()
		case '/':
			if l.peekChar() == '/' {
				for l.ch != '\n' && l.ch != 0 {
					l.readChar()
				}
				continue
			}
			return
		default:
			return
		}
	}
}

// readString consumes a double-quoted string literal, returning its
// contents without the surrounding quotes.
func (l *Lexer) readString() (string, error) {
	startLine := l.line
	l.readChar() // consume opening quote
	start := l.position
	for l.ch != '"' && l.ch != 0 {
		if l.ch == '\n' {
			l.line++
		}
		l.readChar()
	}
	if l.ch == 0 {
		return "", core.NewUnterminatedString(startLine)
	}
	s := l.input[start:l.position]
	l.readChar() // consume closing quote
	return s, nil
}

func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.position]
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isAlpha(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch byte) bool {
	return ch == '_' || unicode.IsLetter(rune(ch))
}

// Tokenize scans the entire input and returns every token, including a
// trailing EOF. It stops at the first lexical error.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var tokens []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, nil
		}
	}
}
