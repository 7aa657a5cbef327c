// Package ast defines the Abstract Syntax Tree produced by the parser
// and consumed by the compiler via the visitor pattern.
package ast

import "github.com/kristofer/loxvm/pkg/token"

// Expr is implemented by every expression node. Accept dispatches to the
// matching method of an ExprVisitor, returning whatever that visitor
// produces for this node.
type Expr interface {
	AcceptExpr(v ExprVisitor) (interface{}, error)
}

// ExprVisitor is implemented by anything that walks expression nodes
// (the compiler, a pretty-printer). Each method is named after the node
// it handles.
type ExprVisitor interface {
	VisitLiteral(e *Literal) (interface{}, error)
	VisitUnary(e *Unary) (interface{}, error)
	VisitBinary(e *Binary) (interface{}, error)
	VisitGrouping(e *Grouping) (interface{}, error)
	VisitVariable(e *Variable) (interface{}, error)
	VisitAssign(e *Assign) (interface{}, error)
	VisitAnd(e *And) (interface{}, error)
	VisitOr(e *Or) (interface{}, error)
	VisitCall(e *Call) (interface{}, error)
	VisitGet(e *Get) (interface{}, error)
	VisitSet(e *Set) (interface{}, error)
	VisitThis(e *This) (interface{}, error)
	VisitSuper(e *Super) (interface{}, error)
}

// Literal is a number, string, boolean, or nil constant.
type Literal struct {
	Value interface{} // float64, string, bool, or nil
	Line  int
}

func (e *Literal) AcceptExpr(v ExprVisitor) (interface{}, error) { return v.VisitLiteral(e) }

// Unary is a prefix operator applied to a single operand (`-x`, `!x`).
type Unary struct {
	Operator token.Token
	Right    Expr
}

func (e *Unary) AcceptExpr(v ExprVisitor) (interface{}, error) { return v.VisitUnary(e) }

// Binary is an infix operator applied to two operands.
type Binary struct {
	Left     Expr
	Operator token.Token
	Right    Expr
}

func (e *Binary) AcceptExpr(v ExprVisitor) (interface{}, error) { return v.VisitBinary(e) }

// Grouping is a parenthesized expression. It carries no data of its own
// and is transparent to compilation: only Expression is compiled.
type Grouping struct {
	Expression Expr
}

func (e *Grouping) AcceptExpr(v ExprVisitor) (interface{}, error) { return v.VisitGrouping(e) }

// Variable is a reference to a named binding (local, upvalue, or global).
type Variable struct {
	Name token.Token
}

func (e *Variable) AcceptExpr(v ExprVisitor) (interface{}, error) { return v.VisitVariable(e) }

// Assign stores Value into the binding named Name.
type Assign struct {
	Name  token.Token
	Value Expr
}

func (e *Assign) AcceptExpr(v ExprVisitor) (interface{}, error) { return v.VisitAssign(e) }

// And is a short-circuiting logical conjunction.
type And struct {
	Left  Expr
	Right Expr
}

func (e *And) AcceptExpr(v ExprVisitor) (interface{}, error) { return v.VisitAnd(e) }

// Or is a short-circuiting logical disjunction.
type Or struct {
	Left  Expr
	Right Expr
}

func (e *Or) AcceptExpr(v ExprVisitor) (interface{}, error) { return v.VisitOr(e) }

// Call invokes Callee with Args. Paren records the closing paren's line
// for error reporting.
type Call struct {
	Callee Expr
	Paren  token.Token
	Args   []Expr
}

func (e *Call) AcceptExpr(v ExprVisitor) (interface{}, error) { return v.VisitCall(e) }

// Get reads a property off an object instance. Not executable in this
// build (no instance runtime); the compiler rejects it.
type Get struct {
	Object Expr
	Name   token.Token
}

func (e *Get) AcceptExpr(v ExprVisitor) (interface{}, error) { return v.VisitGet(e) }

// Set writes a property on an object instance. Not executable in this
// build; the compiler rejects it.
type Set struct {
	Object Expr
	Name   token.Token
	Value  Expr
}

func (e *Set) AcceptExpr(v ExprVisitor) (interface{}, error) { return v.VisitSet(e) }

// This refers to the receiver inside a method body. Not executable in
// this build; the compiler rejects it.
type This struct {
	Keyword token.Token
}

func (e *This) AcceptExpr(v ExprVisitor) (interface{}, error) { return v.VisitThis(e) }

// Super refers to a superclass method lookup. Not executable in this
// build; the compiler rejects it.
type Super struct {
	Keyword token.Token
	Method  token.Token
}

func (e *Super) AcceptExpr(v ExprVisitor) (interface{}, error) { return v.VisitSuper(e) }
