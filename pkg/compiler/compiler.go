// Package compiler implements the single-pass bytecode compiler: it
// walks the AST exactly once, resolving local/upvalue/global variable
// bindings and emitting bytecode as it goes, with no separate
// resolution pass.
//
// A Compiler exists per function body. Compiling a `fun` declaration
// creates a nested Compiler sharing the same heap, with its enclosing
// field pointing back to the outer one so resolveUpvalue can walk the
// lexical chain. The outermost Compiler, for the top-level script, has
// no enclosing compiler and rejects `return` at statement level.
package compiler

import (
	"github.com/kristofer/loxvm/pkg/ast"
	"github.com/kristofer/loxvm/pkg/bytecode"
	"github.com/kristofer/loxvm/pkg/core"
	"github.com/kristofer/loxvm/pkg/heap"
	"github.com/kristofer/loxvm/pkg/object"
	"github.com/kristofer/loxvm/pkg/token"
)

// FunctionType distinguishes the implicit top-level script function from
// a real `fun` declaration; only the latter may contain `return`.
type FunctionType int

const (
	TypeScript FunctionType = iota
	TypeFunction
)

// Compiler compiles one function body (the top-level script, or a
// single `fun` declaration) into an *object.Function.
type Compiler struct {
	enclosing    *Compiler
	heap         *heap.Heap
	function     *object.Function
	functionType FunctionType

	locals         []Local
	localsCaptured []bool
	scopeDepth     int
	upvalues       []CompilerUpvalue

	errors []error
}

// New creates a Compiler for a function named name (empty for the
// top-level script). h is shared with every nested Compiler so string
// interning and object allocation stay global.
func New(h *heap.Heap, functionType FunctionType, name string) *Compiler {
	c := &Compiler{
		heap:         h,
		functionType: functionType,
		function: &object.Function{
			Name:  name,
			Chunk: bytecode.NewChunk(),
		},
	}
	// Slot 0 is reserved for the function/closure value itself, so user
	// locals start at slot 1 within a function body.
	c.locals = append(c.locals, Local{Name: "", Depth: 0, Initialized: true})
	c.localsCaptured = append(c.localsCaptured, false)
	return c
}

// Compile compiles every statement in turn, collecting every error
// encountered (rather than stopping at the first) so the caller can
// report them all, then appends the final implicit `return nil` every
// function body gets regardless of its explicit returns. It returns the
// compiled Function only if no error occurred.
func (c *Compiler) Compile(statements []ast.Stmt) (*object.Function, []error) {
	line := 0
	for _, stmt := range statements {
		if err := c.compileStmt(stmt); err != nil {
			c.errors = append(c.errors, err)
		}
	}
	if err := c.emitConstantInstruction(core.OpLoadConstant, core.NilValue, line); err != nil {
		c.errors = append(c.errors, err)
	}
	c.emitByte(byte(core.OpReturn), line)

	if len(c.errors) > 0 {
		return nil, c.errors
	}
	return c.function, nil
}

func (c *Compiler) compileStmt(s ast.Stmt) error {
	return s.AcceptStmt(c)
}

func (c *Compiler) compileExpr(e ast.Expr) error {
	_, err := e.AcceptExpr(c)
	return err
}

// --- StmtVisitor ---

func (c *Compiler) VisitPrint(s *ast.Print) error {
	if err := c.compileExpr(s.Expression); err != nil {
		return err
	}
	c.emitByte(byte(core.OpPrint), s.Line)
	return nil
}

func (c *Compiler) VisitExprStmt(s *ast.ExprStmt) error {
	if err := c.compileExpr(s.Expression); err != nil {
		return err
	}
	c.emitByte(byte(core.OpPop), lineOf(s.Expression))
	return nil
}

func (c *Compiler) VisitDeclareVar(s *ast.DeclareVar) error {
	line := s.Name.Line
	// Declare first so resolveLocal can detect `var x = x;` as reading
	// an uninitialized local, then compile the initializer, then define.
	if err := c.declareLocal(s.Name.Lexeme, line); err != nil {
		return err
	}
	if s.Initializer != nil {
		if err := c.compileExpr(s.Initializer); err != nil {
			return err
		}
	} else {
		if err := c.emitConstantInstruction(core.OpLoadConstant, core.NilValue, line); err != nil {
			return err
		}
	}
	if c.scopeDepth == 0 {
		name := c.heap.PushString(s.Name.Lexeme)
		if err := c.emitConstantInstruction(core.OpDefineGlobal, name, line); err != nil {
			return err
		}
	} else {
		c.defineLocal()
	}
	return nil
}

func (c *Compiler) VisitBlock(s *ast.Block) error {
	line := 0
	if len(s.Statements) > 0 {
		line = lineOfStmt(s.Statements[len(s.Statements)-1])
	}
	c.beginScope()
	for _, stmt := range s.Statements {
		if err := c.compileStmt(stmt); err != nil {
			c.endScope(line)
			return err
		}
	}
	c.endScope(line)
	return nil
}

func (c *Compiler) VisitIf(s *ast.If) error {
	line := lineOf(s.Condition)
	if err := c.compileExpr(s.Condition); err != nil {
		return err
	}
	thenJump := c.emitJumpInstruction(core.OpJumpIfFalse, line)
	c.emitByte(byte(core.OpPop), line)
	if err := c.compileStmt(s.Then); err != nil {
		return err
	}
	elseJump := c.emitJumpInstruction(core.OpJump, line)
	if err := c.patchJumpInstruction(thenJump, line); err != nil {
		return err
	}
	c.emitByte(byte(core.OpPop), line)
	if s.Else != nil {
		if err := c.compileStmt(s.Else); err != nil {
			return err
		}
	}
	return c.patchJumpInstruction(elseJump, line)
}

func (c *Compiler) VisitWhile(s *ast.While) error {
	line := lineOf(s.Condition)
	loopStart := len(c.chunk().Code)
	if err := c.compileExpr(s.Condition); err != nil {
		return err
	}
	exitJump := c.emitJumpInstruction(core.OpJumpIfFalse, line)
	c.emitByte(byte(core.OpPop), line)
	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	if err := c.emitLoopInstruction(loopStart, line); err != nil {
		return err
	}
	if err := c.patchJumpInstruction(exitJump, line); err != nil {
		return err
	}
	c.emitByte(byte(core.OpPop), line)
	return nil
}

func (c *Compiler) VisitDeclareFunc(s *ast.DeclareFunc) error {
	line := s.Name.Line
	// Declare+define the function's own name in the enclosing scope
	// first, so the body can call itself recursively.
	if err := c.declareLocal(s.Name.Lexeme, line); err != nil {
		return err
	}
	c.defineLocal()

	nested := New(c.heap, TypeFunction, s.Name.Lexeme)
	nested.enclosing = c
	nested.function.Arity = len(s.Params)
	// Parameters (and every local the body declares) live in the
	// function's own scope, one level deeper than the reserved slot-0
	// scope New() seeds at depth 0 — without this, declareLocal/
	// defineLocal see scopeDepth == 0 and silently no-op, treating
	// params and body locals as globals. OpReturn unwinds the whole
	// frame, so there's no matching endScope for this scope.
	nested.beginScope()
	for _, param := range s.Params {
		if err := nested.declareLocal(param.Lexeme, param.Line); err != nil {
			nested.errors = append(nested.errors, err)
			continue
		}
		nested.defineLocal()
	}
	fn, errs := nested.Compile(s.Body)
	if len(errs) > 0 {
		c.errors = append(c.errors, errs...)
		return nil
	}

	fnValue := c.heap.Push(fn)
	if err := c.emitConstantInstruction(core.OpClosure, fnValue, line); err != nil {
		return err
	}
	for _, up := range nested.upvalues {
		isLocal := byte(0)
		if up.IsLocal {
			isLocal = 1
		}
		c.emitBytes(isLocal, byte(up.Index), line)
	}

	if c.scopeDepth == 0 {
		name := c.heap.PushString(s.Name.Lexeme)
		return c.emitConstantInstruction(core.OpDefineGlobal, name, line)
	}
	return nil
}

func (c *Compiler) VisitReturn(s *ast.Return) error {
	line := s.Keyword.Line
	if c.functionType == TypeScript {
		return core.NewTopReturn(line)
	}
	if s.Value != nil {
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
	} else {
		if err := c.emitConstantInstruction(core.OpLoadConstant, core.NilValue, line); err != nil {
			return err
		}
	}
	c.emitByte(byte(core.OpReturn), line)
	return nil
}

func (c *Compiler) VisitDeclareClass(s *ast.DeclareClass) error {
	return core.NewUnimplemented(s.Name.Line, "class declarations")
}

// --- ExprVisitor ---

func (c *Compiler) VisitLiteral(e *ast.Literal) (interface{}, error) {
	var v core.Value
	switch val := e.Value.(type) {
	case float64:
		v = core.NumberValue(val)
	case bool:
		v = core.BoolValue(val)
	case nil:
		v = core.NilValue
	case string:
		v = c.heap.PushString(val)
	}
	return nil, c.emitConstantInstruction(core.OpLoadConstant, v, e.Line)
}

func (c *Compiler) VisitUnary(e *ast.Unary) (interface{}, error) {
	if err := c.compileExpr(e.Right); err != nil {
		return nil, err
	}
	switch e.Operator.Type {
	case token.Minus:
		c.emitByte(byte(core.OpNegate), e.Operator.Line)
	case token.Bang:
		c.emitByte(byte(core.OpNot), e.Operator.Line)
	}
	return nil, nil
}

var binaryOpcodes = map[token.Type]core.OpCode{
	token.Plus:         core.OpAdd,
	token.Minus:        core.OpSubtract,
	token.Star:         core.OpMultiply,
	token.Slash:        core.OpDivide,
	token.EqualEqual:   core.OpEqual,
	token.BangEqual:    core.OpNotEqual,
	token.Less:         core.OpLessThan,
	token.LessEqual:    core.OpLessEqual,
	token.Greater:      core.OpGreaterThan,
	token.GreaterEqual: core.OpGreaterEqual,
}

func (c *Compiler) VisitBinary(e *ast.Binary) (interface{}, error) {
	if err := c.compileExpr(e.Left); err != nil {
		return nil, err
	}
	if err := c.compileExpr(e.Right); err != nil {
		return nil, err
	}
	op := binaryOpcodes[e.Operator.Type]
	c.emitByte(byte(op), e.Operator.Line)
	return nil, nil
}

func (c *Compiler) VisitGrouping(e *ast.Grouping) (interface{}, error) {
	return nil, c.compileExpr(e.Expression)
}

func (c *Compiler) VisitVariable(e *ast.Variable) (interface{}, error) {
	return nil, c.compileNamedVariable(e.Name, nil)
}

func (c *Compiler) VisitAssign(e *ast.Assign) (interface{}, error) {
	return nil, c.compileNamedVariable(e.Name, e.Value)
}

// compileNamedVariable emits the read or, if value is non-nil, the
// write sequence for name, resolving it as a local, then an upvalue,
// then a global, in that order.
func (c *Compiler) compileNamedVariable(name token.Token, value ast.Expr) error {
	line := name.Line
	localIndex, err := c.resolveLocal(name.Lexeme, line)
	if err != nil {
		return err
	}
	if localIndex != -1 {
		if value != nil {
			if err := c.compileExpr(value); err != nil {
				return err
			}
			return c.emitOperandInstruction(core.OpSetLocal, localIndex, line)
		}
		return c.emitOperandInstruction(core.OpGetLocal, localIndex, line)
	}

	upvalueIndex, err := c.resolveUpvalue(name.Lexeme, line)
	if err != nil {
		return err
	}
	if upvalueIndex != -1 {
		if value != nil {
			if err := c.compileExpr(value); err != nil {
				return err
			}
			c.emitBytes(byte(core.OpSetUpvalue), byte(upvalueIndex), line)
			return nil
		}
		c.emitBytes(byte(core.OpGetUpvalue), byte(upvalueIndex), line)
		return nil
	}

	nameValue := c.heap.PushString(name.Lexeme)
	if value != nil {
		if err := c.compileExpr(value); err != nil {
			return err
		}
		return c.emitConstantInstruction(core.OpSetGlobal, nameValue, line)
	}
	return c.emitConstantInstruction(core.OpGetGlobal, nameValue, line)
}

func (c *Compiler) VisitAnd(e *ast.And) (interface{}, error) {
	line := lineOf(e.Left)
	if err := c.compileExpr(e.Left); err != nil {
		return nil, err
	}
	endJump := c.emitJumpInstruction(core.OpJumpIfFalse, line)
	c.emitByte(byte(core.OpPop), line)
	if err := c.compileExpr(e.Right); err != nil {
		return nil, err
	}
	return nil, c.patchJumpInstruction(endJump, line)
}

func (c *Compiler) VisitOr(e *ast.Or) (interface{}, error) {
	line := lineOf(e.Left)
	if err := c.compileExpr(e.Left); err != nil {
		return nil, err
	}
	elseJump := c.emitJumpInstruction(core.OpJumpIfFalse, line)
	endJump := c.emitJumpInstruction(core.OpJump, line)
	if err := c.patchJumpInstruction(elseJump, line); err != nil {
		return nil, err
	}
	c.emitByte(byte(core.OpPop), line)
	if err := c.compileExpr(e.Right); err != nil {
		return nil, err
	}
	return nil, c.patchJumpInstruction(endJump, line)
}

func (c *Compiler) VisitCall(e *ast.Call) (interface{}, error) {
	if err := c.compileExpr(e.Callee); err != nil {
		return nil, err
	}
	if len(e.Args) > 255 {
		return nil, core.NewTooManyArgs(e.Paren.Line)
	}
	for _, arg := range e.Args {
		if err := c.compileExpr(arg); err != nil {
			return nil, err
		}
	}
	c.emitBytes(byte(core.OpCall), byte(len(e.Args)), e.Paren.Line)
	return nil, nil
}

func (c *Compiler) VisitGet(e *ast.Get) (interface{}, error) {
	return nil, core.NewUnimplemented(e.Name.Line, "property access")
}

func (c *Compiler) VisitSet(e *ast.Set) (interface{}, error) {
	return nil, core.NewUnimplemented(e.Name.Line, "property assignment")
}

func (c *Compiler) VisitThis(e *ast.This) (interface{}, error) {
	return nil, core.NewUnimplemented(e.Keyword.Line, "'this'")
}

func (c *Compiler) VisitSuper(e *ast.Super) (interface{}, error) {
	return nil, core.NewUnimplemented(e.Keyword.Line, "'super'")
}

// lineOf and lineOfStmt recover the source line of a node for
// instructions (like Pop at statement end or scope-exit) that don't
// otherwise carry one of their own.
func lineOf(e ast.Expr) int {
	switch n := e.(type) {
	case *ast.Literal:
		return n.Line
	case *ast.Unary:
		return n.Operator.Line
	case *ast.Binary:
		return n.Operator.Line
	case *ast.Grouping:
		return lineOf(n.Expression)
	case *ast.Variable:
		return n.Name.Line
	case *ast.Assign:
		return n.Name.Line
	case *ast.And:
		return lineOf(n.Left)
	case *ast.Or:
		return lineOf(n.Left)
	case *ast.Call:
		return n.Paren.Line
	case *ast.Get:
		return n.Name.Line
	case *ast.Set:
		return n.Name.Line
	case *ast.This:
		return n.Keyword.Line
	case *ast.Super:
		return n.Keyword.Line
	default:
		return 0
	}
}

func lineOfStmt(s ast.Stmt) int {
	switch n := s.(type) {
	case *ast.Print:
		return n.Line
	case *ast.ExprStmt:
		return lineOf(n.Expression)
	case *ast.DeclareVar:
		return n.Name.Line
	case *ast.Return:
		return n.Keyword.Line
	case *ast.DeclareFunc:
		return n.Name.Line
	case *ast.DeclareClass:
		return n.Name.Line
	default:
		return 0
	}
}
