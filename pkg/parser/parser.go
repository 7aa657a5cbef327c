// Package parser implements a recursive-descent parser that turns a
// token stream from pkg/lexer into the pkg/ast tree the compiler
// consumes.
//
// Parser Architecture:
//
// The parser uses a recursive descent strategy with one token of
// lookahead (curTok, peekTok) for a C-like expression grammar: each
// precedence level gets its own parse function, calling down to the
// next-tighter level until parsePrimary bottoms out.
//
// Precedence (loosest to tightest):
//
//	assignment -> or -> and -> equality -> comparison -> term -> factor
//	-> unary -> call -> primary
//
// Error Handling:
//
// Errors are accumulated rather than aborting parsing on the first
// one; Parse resynchronizes at the next statement boundary (discarding
// tokens until a `;` or a statement keyword) so later, independent
// errors can still be reported.
package parser

import (
	"strconv"

	"github.com/kristofer/loxvm/pkg/ast"
	"github.com/kristofer/loxvm/pkg/core"
	"github.com/kristofer/loxvm/pkg/lexer"
	"github.com/kristofer/loxvm/pkg/token"
)

// Parser converts a token stream into an AST.
type Parser struct {
	l       *lexer.Lexer
	curTok  token.Token
	peekTok token.Token
	prevTok token.Token // token just consumed by the last advance()
	errors  []error
}

// New creates a Parser over source, primed with the first two tokens.
func New(source string) *Parser {
	p := &Parser{l: lexer.New(source)}
	p.advance()
	p.advance()
	return p
}

// advance shifts the lookahead window forward by one token. A lexical
// error surfaces as an Illegal token with the error already recorded.
func (p *Parser) advance() {
	p.prevTok = p.curTok
	p.curTok = p.peekTok
	tok, err := p.l.NextToken()
	if err != nil {
		p.errors = append(p.errors, err)
		tok = token.Token{Type: token.Illegal, Line: p.curTok.Line}
	}
	p.peekTok = tok
}

func (p *Parser) check(t token.Type) bool { return p.curTok.Type == t }

func (p *Parser) match(types ...token.Type) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes curTok if it has type t, else returns a SyntaxError
// and leaves curTok in place for resynchronization.
func (p *Parser) expect(t token.Type, context string) (token.Token, error) {
	if p.check(t) {
		tok := p.curTok
		p.advance()
		return tok, nil
	}
	return token.Token{}, core.NewExpectedChar(p.curTok.Line, t.String(), context)
}

// Parse parses the entire token stream into a list of top-level
// statements, resynchronizing after each statement-level error so that
// independent errors in later statements are still collected.
func (p *Parser) Parse() ([]ast.Stmt, []error) {
	var stmts []ast.Stmt
	for !p.check(token.EOF) {
		stmt, err := p.declaration()
		if err != nil {
			p.errors = append(p.errors, err)
			p.synchronize()
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts, p.errors
}

// synchronize discards tokens until it reaches what looks like the next
// statement boundary: just past a `;`, or just before a keyword that
// starts a new statement.
func (p *Parser) synchronize() {
	for !p.check(token.EOF) {
		if p.curTok.Type == token.Semicolon {
			p.advance()
			return
		}
		switch p.curTok.Type {
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		p.advance()
	}
}

func (p *Parser) declaration() (ast.Stmt, error) {
	switch {
	case p.match(token.Class):
		return p.classDeclaration()
	case p.match(token.Fun):
		return p.funcDeclaration("function")
	case p.match(token.Var):
		return p.varDeclaration()
	default:
		return p.statement()
	}
}

func (p *Parser) classDeclaration() (ast.Stmt, error) {
	name, err := p.expect(token.Identifier, "class name")
	if err != nil {
		return nil, err
	}
	var superclass *ast.Variable
	if p.match(token.Less) {
		superName, err := p.expect(token.Identifier, "superclass name")
		if err != nil {
			return nil, err
		}
		superclass = &ast.Variable{Name: superName}
	}
	if _, err := p.expect(token.LeftBrace, "before class body"); err != nil {
		return nil, err
	}
	var methods []*ast.DeclareFunc
	for !p.check(token.RightBrace) && !p.check(token.EOF) {
		method, err := p.funcDeclaration("method")
		if err != nil {
			return nil, err
		}
		methods = append(methods, method.(*ast.DeclareFunc))
	}
	if _, err := p.expect(token.RightBrace, "after class body"); err != nil {
		return nil, err
	}
	return &ast.DeclareClass{Name: name, Superclass: superclass, Methods: methods}, nil
}

func (p *Parser) funcDeclaration(kind string) (ast.Stmt, error) {
	name, err := p.expect(token.Identifier, kind+" name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LeftParen, "after "+kind+" name"); err != nil {
		return nil, err
	}
	var params []token.Token
	if !p.check(token.RightParen) {
		for {
			if len(params) >= 255 {
				return nil, core.NewTooManyParams(p.curTok.Line)
			}
			param, err := p.expect(token.Identifier, "parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	if _, err := p.expect(token.RightParen, "after parameters"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LeftBrace, "before "+kind+" body"); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.DeclareFunc{Name: name, Params: params, Body: body}, nil
}

func (p *Parser) varDeclaration() (ast.Stmt, error) {
	name, err := p.expect(token.Identifier, "variable name")
	if err != nil {
		return nil, err
	}
	var initializer ast.Expr
	if p.match(token.Equal) {
		initializer, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.Semicolon, "after variable declaration"); err != nil {
		return nil, err
	}
	return &ast.DeclareVar{Name: name, Initializer: initializer}, nil
}

func (p *Parser) statement() (ast.Stmt, error) {
	switch {
	case p.match(token.Print):
		return p.printStatement()
	case p.match(token.LeftBrace):
		stmts, err := p.block()
		if err != nil {
			return nil, err
		}
		return &ast.Block{Statements: stmts}, nil
	case p.match(token.If):
		return p.ifStatement()
	case p.match(token.While):
		return p.whileStatement()
	case p.match(token.For):
		return p.forStatement()
	case p.match(token.Return):
		return p.returnStatement()
	default:
		return p.exprStatement()
	}
}

func (p *Parser) printStatement() (ast.Stmt, error) {
	line := p.prevTok.Line
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon, "after value"); err != nil {
		return nil, err
	}
	return &ast.Print{Expression: expr, Line: line}, nil
}

func (p *Parser) exprStatement() (ast.Stmt, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon, "after expression"); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expression: expr}, nil
}

func (p *Parser) block() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.check(token.RightBrace) && !p.check(token.EOF) {
		stmt, err := p.declaration()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(token.RightBrace, "after block"); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) ifStatement() (ast.Stmt, error) {
	if _, err := p.expect(token.LeftParen, "after 'if'"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RightParen, "after if condition"); err != nil {
		return nil, err
	}
	thenBranch, err := p.statement()
	if err != nil {
		return nil, err
	}
	var elseBranch ast.Stmt
	if p.match(token.Else) {
		elseBranch, err = p.statement()
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Condition: cond, Then: thenBranch, Else: elseBranch}, nil
}

func (p *Parser) whileStatement() (ast.Stmt, error) {
	if _, err := p.expect(token.LeftParen, "after 'while'"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RightParen, "after condition"); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &ast.While{Condition: cond, Body: body}, nil
}

// forStatement desugars `for (init; cond; post) body` into a Block
// containing init followed by a While whose body is another Block of
// [body, post] — there is no dedicated For AST node, matching
// spec.md's node set exactly.
func (p *Parser) forStatement() (ast.Stmt, error) {
	if _, err := p.expect(token.LeftParen, "after 'for'"); err != nil {
		return nil, err
	}

	var initializer ast.Stmt
	var err error
	switch {
	case p.match(token.Semicolon):
		initializer = nil
	case p.match(token.Var):
		initializer, err = p.varDeclaration()
	default:
		initializer, err = p.exprStatement()
	}
	if err != nil {
		return nil, err
	}

	var condition ast.Expr
	if !p.check(token.Semicolon) {
		condition, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.Semicolon, "after loop condition"); err != nil {
		return nil, err
	}

	var increment ast.Expr
	if !p.check(token.RightParen) {
		increment, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RightParen, "after for clauses"); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}

	if increment != nil {
		body = &ast.Block{Statements: []ast.Stmt{body, &ast.ExprStmt{Expression: increment}}}
	}
	if condition == nil {
		condition = &ast.Literal{Value: true}
	}
	body = &ast.While{Condition: condition, Body: body}
	if initializer != nil {
		body = &ast.Block{Statements: []ast.Stmt{initializer, body}}
	}
	return body, nil
}

func (p *Parser) returnStatement() (ast.Stmt, error) {
	keyword := p.prevTok
	var value ast.Expr
	var err error
	if !p.check(token.Semicolon) {
		value, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.Semicolon, "after return value"); err != nil {
		return nil, err
	}
	return &ast.Return{Keyword: keyword, Value: value}, nil
}

// --- expressions ---

func (p *Parser) expression() (ast.Expr, error) {
	return p.assignment()
}

func (p *Parser) assignment() (ast.Expr, error) {
	expr, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.match(token.Equal) {
		equals := p.prevTok
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}
		switch target := expr.(type) {
		case *ast.Variable:
			return &ast.Assign{Name: target.Name, Value: value}, nil
		case *ast.Get:
			return &ast.Set{Object: target.Object, Name: target.Name, Value: value}, nil
		default:
			return nil, core.NewInvalidAssignment(equals.Line)
		}
	}
	return expr, nil
}

func (p *Parser) or() (ast.Expr, error) {
	expr, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.match(token.Or) {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		expr = &ast.Or{Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) and() (ast.Expr, error) {
	expr, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.match(token.And) {
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		expr = &ast.And{Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) equality() (ast.Expr, error) {
	expr, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for p.check(token.BangEqual) || p.check(token.EqualEqual) {
		op := p.curTok
		p.advance()
		right, err := p.comparison()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) comparison() (ast.Expr, error) {
	expr, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.check(token.Greater) || p.check(token.GreaterEqual) || p.check(token.Less) || p.check(token.LessEqual) {
		op := p.curTok
		p.advance()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) term() (ast.Expr, error) {
	expr, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.check(token.Plus) || p.check(token.Minus) {
		op := p.curTok
		p.advance()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) factor() (ast.Expr, error) {
	expr, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.check(token.Star) || p.check(token.Slash) {
		op := p.curTok
		p.advance()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.check(token.Bang) || p.check(token.Minus) {
		op := p.curTok
		p.advance()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Operator: op, Right: right}, nil
	}
	return p.call()
}

func (p *Parser) call() (ast.Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.match(token.LeftParen):
			expr, err = p.finishCall(expr)
			if err != nil {
				return nil, err
			}
		case p.match(token.Dot):
			name, err := p.expect(token.Identifier, "after '.'")
			if err != nil {
				return nil, err
			}
			expr = &ast.Get{Object: expr, Name: name}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) (ast.Expr, error) {
	var args []ast.Expr
	if !p.check(token.RightParen) {
		for {
			if len(args) >= 255 {
				return nil, core.NewTooManyArgs(p.curTok.Line)
			}
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	paren, err := p.expect(token.RightParen, "after arguments")
	if err != nil {
		return nil, err
	}
	return &ast.Call{Callee: callee, Paren: paren, Args: args}, nil
}

func (p *Parser) primary() (ast.Expr, error) {
	tok := p.curTok
	switch {
	case p.match(token.False):
		return &ast.Literal{Value: false, Line: tok.Line}, nil
	case p.match(token.True):
		return &ast.Literal{Value: true, Line: tok.Line}, nil
	case p.match(token.Nil):
		return &ast.Literal{Value: nil, Line: tok.Line}, nil
	case p.match(token.Number):
		n, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, core.NewExpectedExpression(tok.Line)
		}
		return &ast.Literal{Value: n, Line: tok.Line}, nil
	case p.match(token.String):
		return &ast.Literal{Value: tok.Lexeme, Line: tok.Line}, nil
	case p.match(token.This):
		return &ast.This{Keyword: tok}, nil
	case p.match(token.Super):
		if _, err := p.expect(token.Dot, "after 'super'"); err != nil {
			return nil, err
		}
		method, err := p.expect(token.Identifier, "superclass method name")
		if err != nil {
			return nil, err
		}
		return &ast.Super{Keyword: tok, Method: method}, nil
	case p.match(token.Identifier):
		return &ast.Variable{Name: tok}, nil
	case p.match(token.LeftParen):
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RightParen, "after expression"); err != nil {
			return nil, err
		}
		return &ast.Grouping{Expression: expr}, nil
	case p.check(token.EOF):
		return nil, core.NewUnexpectedEOF(tok.Line)
	default:
		return nil, core.NewExpectedExpression(tok.Line)
	}
}
