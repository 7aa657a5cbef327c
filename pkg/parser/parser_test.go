package parser

import (
	"testing"

	"github.com/kristofer/loxvm/pkg/ast"
)

func TestParseVarDeclaration(t *testing.T) {
	stmts, errs := New(`var x = 1 + 2;`).Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(stmts))
	}
	decl, ok := stmts[0].(*ast.DeclareVar)
	if !ok {
		t.Fatalf("got %T, want *ast.DeclareVar", stmts[0])
	}
	if decl.Name.Lexeme != "x" {
		t.Fatalf("got name %q", decl.Name.Lexeme)
	}
	if _, ok := decl.Initializer.(*ast.Binary); !ok {
		t.Fatalf("got initializer %T, want *ast.Binary", decl.Initializer)
	}
}

func TestParseIfElse(t *testing.T) {
	stmts, errs := New(`if (x) { print 1; } else { print 2; }`).Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	ifStmt, ok := stmts[0].(*ast.If)
	if !ok {
		t.Fatalf("got %T, want *ast.If", stmts[0])
	}
	if ifStmt.Else == nil {
		t.Fatal("expected an else branch")
	}
}

func TestParseWhile(t *testing.T) {
	stmts, errs := New(`while (x < 10) { x = x + 1; }`).Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if _, ok := stmts[0].(*ast.While); !ok {
		t.Fatalf("got %T, want *ast.While", stmts[0])
	}
}

func TestParseForDesugarsToWhile(t *testing.T) {
	stmts, errs := New(`for (var i = 0; i < 3; i = i + 1) print i;`).Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	block, ok := stmts[0].(*ast.Block)
	if !ok {
		t.Fatalf("got %T, want *ast.Block", stmts[0])
	}
	if len(block.Statements) != 2 {
		t.Fatalf("got %d statements in desugared block, want 2", len(block.Statements))
	}
	if _, ok := block.Statements[1].(*ast.While); !ok {
		t.Fatalf("got %T, want *ast.While", block.Statements[1])
	}
}

func TestParseFunctionDeclaration(t *testing.T) {
	stmts, errs := New(`fun add(a, b) { return a + b; }`).Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fn, ok := stmts[0].(*ast.DeclareFunc)
	if !ok {
		t.Fatalf("got %T, want *ast.DeclareFunc", stmts[0])
	}
	if len(fn.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(fn.Params))
	}
}

func TestParseCallExpression(t *testing.T) {
	stmts, errs := New(`add(1, 2);`).Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	exprStmt := stmts[0].(*ast.ExprStmt)
	call, ok := exprStmt.Expression.(*ast.Call)
	if !ok {
		t.Fatalf("got %T, want *ast.Call", exprStmt.Expression)
	}
	if len(call.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(call.Args))
	}
}

func TestInvalidAssignmentTarget(t *testing.T) {
	_, errs := New(`1 = 2;`).Parse()
	if len(errs) == 0 {
		t.Fatal("expected an invalid-assignment-target error")
	}
}

func TestMissingSemicolonResynchronizes(t *testing.T) {
	stmts, errs := New("var x = 1 print x;").Parse()
	if len(errs) == 0 {
		t.Fatal("expected a syntax error for the missing semicolon")
	}
	// Resynchronization should still let us parse the next statement.
	found := false
	for _, s := range stmts {
		if _, ok := s.(*ast.Print); ok {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected recovery to parse the following print statement, got %#v", stmts)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	stmts, errs := New(`1 + 2 * 3;`).Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	top := stmts[0].(*ast.ExprStmt).Expression.(*ast.Binary)
	if top.Operator.Lexeme != "+" {
		t.Fatalf("expected '+' at the top, got %q", top.Operator.Lexeme)
	}
	right, ok := top.Right.(*ast.Binary)
	if !ok || right.Operator.Lexeme != "*" {
		t.Fatalf("expected '*' nested on the right, got %#v", top.Right)
	}
}
