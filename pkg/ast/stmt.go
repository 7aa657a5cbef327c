package ast

import "github.com/kristofer/loxvm/pkg/token"

// Stmt is implemented by every statement node.
type Stmt interface {
	AcceptStmt(v StmtVisitor) error
}

// StmtVisitor is implemented by anything that walks statement nodes.
type StmtVisitor interface {
	VisitPrint(s *Print) error
	VisitExprStmt(s *ExprStmt) error
	VisitDeclareVar(s *DeclareVar) error
	VisitBlock(s *Block) error
	VisitIf(s *If) error
	VisitWhile(s *While) error
	VisitDeclareFunc(s *DeclareFunc) error
	VisitReturn(s *Return) error
	VisitDeclareClass(s *DeclareClass) error
}

// Print evaluates Expression and writes its value followed by a newline.
type Print struct {
	Expression Expr
	Line       int
}

func (s *Print) AcceptStmt(v StmtVisitor) error { return v.VisitPrint(s) }

// ExprStmt evaluates Expression and discards the result.
type ExprStmt struct {
	Expression Expr
}

func (s *ExprStmt) AcceptStmt(v StmtVisitor) error { return v.VisitExprStmt(s) }

// DeclareVar introduces a new binding named Name, optionally initialized
// by Initializer (nil if the declaration had no initializer).
type DeclareVar struct {
	Name        token.Token
	Initializer Expr
}

func (s *DeclareVar) AcceptStmt(v StmtVisitor) error { return v.VisitDeclareVar(s) }

// Block introduces a new lexical scope containing Statements.
type Block struct {
	Statements []Stmt
}

func (s *Block) AcceptStmt(v StmtVisitor) error { return v.VisitBlock(s) }

// If conditionally executes Then, or Else when present and Condition is
// falsy.
type If struct {
	Condition Expr
	Then      Stmt
	Else      Stmt // nil if there is no else branch
}

func (s *If) AcceptStmt(v StmtVisitor) error { return v.VisitIf(s) }

// While repeats Body while Condition evaluates truthy.
type While struct {
	Condition Expr
	Body      Stmt
}

func (s *While) AcceptStmt(v StmtVisitor) error { return v.VisitWhile(s) }

// DeclareFunc introduces a named function binding.
type DeclareFunc struct {
	Name   token.Token
	Params []token.Token
	Body   []Stmt
}

func (s *DeclareFunc) AcceptStmt(v StmtVisitor) error { return v.VisitDeclareFunc(s) }

// Return exits the enclosing function, optionally with Value (nil
// returns the nil value).
type Return struct {
	Keyword token.Token
	Value   Expr
}

func (s *Return) AcceptStmt(v StmtVisitor) error { return v.VisitReturn(s) }

// DeclareClass introduces a class binding. Parsed but not compiled: the
// compiler rejects it, matching the VM's lack of an instance runtime.
type DeclareClass struct {
	Name       token.Token
	Superclass *Variable // nil if there is no superclass clause
	Methods    []*DeclareFunc
}

func (s *DeclareClass) AcceptStmt(v StmtVisitor) error { return v.VisitDeclareClass(s) }
