package compiler

import (
	"testing"

	"github.com/kristofer/loxvm/pkg/bytecode"
	"github.com/kristofer/loxvm/pkg/core"
	"github.com/kristofer/loxvm/pkg/heap"
	"github.com/kristofer/loxvm/pkg/object"
	"github.com/kristofer/loxvm/pkg/parser"
)

func TestCompileSimpleArithmeticEmitsAddAndPop(t *testing.T) {
	stmts, perrs := parser.New(`1 + 2;`).Parse()
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	h := heap.New()
	fn, errs := New(h, TypeScript, "").Compile(stmts)
	if errs != nil {
		t.Fatalf("compile errors: %v", errs)
	}
	code := fn.Chunk.Code
	found := false
	for _, b := range code {
		if core.OpCode(b) == core.OpAdd {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected OpAdd in %v", code)
	}
}

func TestSelfInitializationIsRejected(t *testing.T) {
	stmts, perrs := parser.New(`{ var x = x; }`).Parse()
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	h := heap.New()
	_, errs := New(h, TypeScript, "").Compile(stmts)
	if len(errs) == 0 {
		t.Fatal("expected a self-initialization error")
	}
}

func TestTopLevelReturnIsRejected(t *testing.T) {
	stmts, perrs := parser.New(`return 1;`).Parse()
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	h := heap.New()
	_, errs := New(h, TypeScript, "").Compile(stmts)
	if len(errs) == 0 {
		t.Fatal("expected a top-level-return error")
	}
}

func TestLocalVariableResolvesToGetLocal(t *testing.T) {
	stmts, perrs := parser.New(`{ var x = 1; print x; }`).Parse()
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	h := heap.New()
	fn, errs := New(h, TypeScript, "").Compile(stmts)
	if errs != nil {
		t.Fatalf("compile errors: %v", errs)
	}
	found := false
	for _, b := range fn.Chunk.Code {
		if core.OpCode(b) == core.OpGetLocal {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected OpGetLocal, got %v", fn.Chunk.Code)
	}
}

func TestGlobalVariableResolvesToGetGlobal(t *testing.T) {
	stmts, perrs := parser.New(`var x = 1; print x;`).Parse()
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	h := heap.New()
	fn, errs := New(h, TypeScript, "").Compile(stmts)
	if errs != nil {
		t.Fatalf("compile errors: %v", errs)
	}
	foundDefine, foundGet := false, false
	for _, b := range fn.Chunk.Code {
		switch core.OpCode(b) {
		case core.OpDefineGlobal:
			foundDefine = true
		case core.OpGetGlobal:
			foundGet = true
		}
	}
	if !foundDefine || !foundGet {
		t.Fatalf("expected OpDefineGlobal and OpGetGlobal, got %v", fn.Chunk.Code)
	}
}

func TestClosureCapturesEnclosingLocal(t *testing.T) {
	src := `
	fun outer() {
		var x = 1;
		fun inner() {
			return x;
		}
		return inner;
	}
	`
	stmts, perrs := parser.New(src).Parse()
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	h := heap.New()
	fn, errs := New(h, TypeScript, "").Compile(stmts)
	if errs != nil {
		t.Fatalf("compile errors: %v", errs)
	}

	// fn is the top-level script; its single OpClosure wraps `outer`.
	// Drill into outer's own chunk, find its OpClosure wrapping `inner`,
	// and confirm the upvalue descriptor byte pair right after it marks
	// index 0 as a captured local (isLocal=1) rather than being absent
	// or pointing at an enclosing upvalue — the exact thing a missing
	// beginScope() on the function body would get wrong, since `x`
	// would resolve as a global instead of a local worth capturing.
	outerFn := findCompiledFunction(t, h, fn.Chunk)
	innerFn := findCompiledFunction(t, h, outerFn.Chunk)

	foundGetUpvalue := false
	for _, b := range innerFn.Chunk.Code {
		if core.OpCode(b) == core.OpGetUpvalue {
			foundGetUpvalue = true
		}
	}
	if !foundGetUpvalue {
		t.Fatalf("expected inner() to read x via OpGetUpvalue, got %v", innerFn.Chunk.Code)
	}

	isLocal, index := findUpvalueDescriptor(t, outerFn.Chunk.Code)
	if isLocal != 1 {
		t.Fatalf("expected x to be captured as a local (isLocal=1), got isLocal=%d", isLocal)
	}
	if index != 1 {
		t.Fatalf("expected x's captured slot to be local slot 1 (slot 0 is reserved), got %d", index)
	}
}

// findCompiledFunction scans chunk for an OpClosure/OpClosureLong
// instruction and returns the *object.Function its operand points at.
func findCompiledFunction(t *testing.T, h *heap.Heap, chunk *bytecode.Chunk) *object.Function {
	t.Helper()
	code := chunk.Code
	for i := 0; i < len(code); {
		op := core.OpCode(code[i])
		switch op {
		case core.OpClosure:
			idx := bytecode.ReadOperand(code, i+1, 1)
			return mustFunction(t, h, chunk.Constants[idx])
		case core.OpClosureLong:
			idx := bytecode.ReadOperand(code, i+1, 3)
			return mustFunction(t, h, chunk.Constants[idx])
		}
		i++
	}
	t.Fatalf("no OpClosure found in chunk %v", code)
	return nil
}

func mustFunction(t *testing.T, h *heap.Heap, v core.Value) *object.Function {
	t.Helper()
	obj, ok := h.Get(v)
	if !ok {
		t.Fatal("OpClosure operand did not resolve to a heap object")
	}
	fn, ok := obj.(*object.Function)
	if !ok {
		t.Fatalf("OpClosure operand resolved to %T, want *object.Function", obj)
	}
	return fn
}

// findUpvalueDescriptor locates the first OpClosure/OpClosureLong in
// code and returns the (isLocal, index) byte pair emitted right after
// its operand.
func findUpvalueDescriptor(t *testing.T, code []byte) (byte, byte) {
	t.Helper()
	for i := 0; i < len(code); {
		switch core.OpCode(code[i]) {
		case core.OpClosure:
			return code[i+2], code[i+3]
		case core.OpClosureLong:
			return code[i+4], code[i+5]
		}
		i++
	}
	t.Fatal("no OpClosure found")
	return 0, 0
}

func TestIfElseEmitsJumpInstructions(t *testing.T) {
	stmts, perrs := parser.New(`if (true) { print 1; } else { print 2; }`).Parse()
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	h := heap.New()
	fn, errs := New(h, TypeScript, "").Compile(stmts)
	if errs != nil {
		t.Fatalf("compile errors: %v", errs)
	}
	foundJumpIfFalse, foundJump := false, false
	for _, b := range fn.Chunk.Code {
		switch core.OpCode(b) {
		case core.OpJumpIfFalse:
			foundJumpIfFalse = true
		case core.OpJump:
			foundJump = true
		}
	}
	if !foundJumpIfFalse || !foundJump {
		t.Fatalf("expected both jump opcodes, got %v", fn.Chunk.Code)
	}
}

func TestWhileLoopEmitsLoopInstruction(t *testing.T) {
	stmts, perrs := parser.New(`while (true) { print 1; }`).Parse()
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	h := heap.New()
	fn, errs := New(h, TypeScript, "").Compile(stmts)
	if errs != nil {
		t.Fatalf("compile errors: %v", errs)
	}
	found := false
	for _, b := range fn.Chunk.Code {
		if core.OpCode(b) == core.OpLoop {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected OpLoop, got %v", fn.Chunk.Code)
	}
}

func TestClassDeclarationIsUnimplemented(t *testing.T) {
	stmts, perrs := parser.New(`class Foo {}`).Parse()
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	h := heap.New()
	_, errs := New(h, TypeScript, "").Compile(stmts)
	if len(errs) == 0 {
		t.Fatal("expected classes to be reported unimplemented")
	}
}
