// Package vm implements the stack-based bytecode interpreter: call
// frames, the value stack, the shared upvalue store, native functions,
// and the main dispatch loop.
//
// Execution Model:
//
// Every call — including running the top-level script — pushes a
// Frame. A Frame tracks its own instruction pointer and its base slot
// (fp) into the single shared value stack; locals and arguments live at
// stack[fp:], with slot 0 always holding the callee (the closure or
// script function itself). Frames link to their caller directly
// (Frame.caller) rather than living in a flat array, so a closure that
// outlives its creating call doesn't need the frame array to still hold
// a slot for it.
//
// Stack Operations:
//
// Values never leave the stack except via push/pop/peek; GetLocal and
// SetLocal address it relative to the current frame's fp. Upvalues that
// outlive their stack slot are promoted ("closed") onto the heap by
// CloseUpvalue, copying the value across — see pkg/vm/upvalue.go.
//
// Error Handling:
//
// Every opcode handler that can fail returns a *core.RuntimeError (or
// lets a Go error from a native call through unchanged), tagged with
// the source line of the failing instruction. run() stops and returns
// the first error encountered; it does not attempt to recover mid-chunk.
package vm

import (
	"fmt"
	"io"

	"github.com/kristofer/loxvm/pkg/bytecode"
	"github.com/kristofer/loxvm/pkg/core"
	"github.com/kristofer/loxvm/pkg/heap"
	"github.com/kristofer/loxvm/pkg/object"
)

const frameMax = 64

// VM executes compiled Chunks.
type VM struct {
	stack    []core.Value
	heap     *heap.Heap
	globals  map[uint64]core.Value
	upvalues []upvalueSlot
	frame    *Frame

	out io.Writer

	// TraceEnabled prints each instruction and the stack contents
	// before it executes.
	TraceEnabled bool
}

// New creates a VM writing `print` output to out and installs the
// builtin native functions.
func New(out io.Writer) *VM {
	vm := &VM{
		stack:   make([]core.Value, 0, stackMax),
		heap:    heap.New(),
		globals: make(map[uint64]core.Value),
		out:     out,
	}
	vm.registerNatives()
	return vm
}

// Heap exposes the VM's object heap so the compiler (which must share
// it for string interning) can use the same instance; Interpret hands
// it to each new Compiler.
func (vm *VM) Heap() *heap.Heap { return vm.heap }

// Run executes a freshly compiled top-level script function to
// completion.
func (vm *VM) Run(script *object.Function) error {
	closure := &object.Closure{Function: script}
	closureValue := vm.heap.Push(closure)
	vm.push(closureValue)
	vm.frame = &Frame{fp: 0, closure: closure}
	return vm.run()
}

func (vm *VM) currentLine() int {
	return vm.frame.closure.Function.Chunk.GetLine(vm.frame.ip - 1)
}

func (vm *VM) readByte() byte {
	b := vm.frame.closure.Function.Chunk.Code[vm.frame.ip]
	vm.frame.ip++
	return b
}

func (vm *VM) readOperand(width int) int {
	chunk := vm.frame.closure.Function.Chunk
	value := bytecode.ReadOperand(chunk.Code, vm.frame.ip, width)
	vm.frame.ip += width
	return value
}

// run is the main dispatch loop. It returns when the outermost frame
// executes OpReturn, or the first time any instruction errors.
func (vm *VM) run() error {
	for {
		if vm.TraceEnabled {
			vm.trace()
		}
		op := core.OpCode(vm.readByte())
		switch op {
		case core.OpLoadConstant:
			vm.push(vm.frame.closure.Function.Chunk.Constants[vm.readOperand(1)])
		case core.OpLoadConstantLong:
			vm.push(vm.frame.closure.Function.Chunk.Constants[vm.readOperand(3)])

		case core.OpNegate:
			v := vm.pop()
			if !v.IsNumber() {
				return core.NewOperandMismatch(vm.currentLine(), "number")
			}
			vm.push(core.NumberValue(-v.AsNumber()))
		case core.OpNot:
			vm.push(core.BoolValue(vm.pop().IsFalsey()))

		case core.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case core.OpSubtract:
			if err := vm.numericBinary(func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}
		case core.OpMultiply:
			if err := vm.numericBinary(func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}
		case core.OpDivide:
			if err := vm.numericBinary(func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}

		case core.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(core.BoolValue(a.Equal(b)))
		case core.OpNotEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(core.BoolValue(!a.Equal(b)))
		case core.OpLessThan:
			if err := vm.compare(func(a, b float64) bool { return a < b }); err != nil {
				return err
			}
		case core.OpLessEqual:
			if err := vm.compare(func(a, b float64) bool { return a <= b }); err != nil {
				return err
			}
		case core.OpGreaterThan:
			if err := vm.compare(func(a, b float64) bool { return a > b }); err != nil {
				return err
			}
		case core.OpGreaterEqual:
			if err := vm.compare(func(a, b float64) bool { return a >= b }); err != nil {
				return err
			}

		case core.OpPrint:
			fmt.Fprintln(vm.out, vm.heap.Format(vm.pop()))
		case core.OpPop:
			vm.pop()

		case core.OpDefineGlobal:
			vm.defineGlobal(vm.readOperand(1))
		case core.OpDefineGlobalLong:
			vm.defineGlobal(vm.readOperand(3))
		case core.OpGetGlobal:
			if err := vm.getGlobal(vm.readOperand(1)); err != nil {
				return err
			}
		case core.OpGetGlobalLong:
			if err := vm.getGlobal(vm.readOperand(3)); err != nil {
				return err
			}
		case core.OpSetGlobal:
			if err := vm.setGlobal(vm.readOperand(1)); err != nil {
				return err
			}
		case core.OpSetGlobalLong:
			if err := vm.setGlobal(vm.readOperand(3)); err != nil {
				return err
			}

		case core.OpGetLocal:
			vm.push(vm.getSlot(vm.frame, vm.readOperand(1)))
		case core.OpGetLocalLong:
			vm.push(vm.getSlot(vm.frame, vm.readOperand(3)))
		case core.OpSetLocal:
			vm.setSlot(vm.frame, vm.readOperand(1), vm.peek(0))
		case core.OpSetLocalLong:
			vm.setSlot(vm.frame, vm.readOperand(3), vm.peek(0))

		case core.OpGetUpvalue:
			index := vm.frame.closure.UpvalueIndices[vm.readOperand(1)]
			vm.push(vm.getUpvalue(index))
		case core.OpSetUpvalue:
			index := vm.frame.closure.UpvalueIndices[vm.readOperand(1)]
			vm.setUpvalue(index, vm.peek(0))

		case core.OpJump:
			vm.frame.ip += vm.readOperand(2)
		case core.OpJumpIfFalse:
			distance := vm.readOperand(2)
			if vm.peek(0).IsFalsey() {
				vm.frame.ip += distance
			}
		case core.OpLoop:
			vm.frame.ip -= vm.readOperand(2)

		case core.OpCall:
			argCount := vm.readOperand(1)
			if err := vm.call(argCount); err != nil {
				return err
			}

		case core.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(vm.frame.fp)
			caller := vm.frame.caller
			vm.stack = vm.stack[:vm.frame.fp]
			if caller == nil {
				return nil
			}
			vm.frame = caller
			vm.push(result)

		case core.OpClosure:
			if err := vm.makeClosure(vm.readOperand(1)); err != nil {
				return err
			}
		case core.OpClosureLong:
			if err := vm.makeClosure(vm.readOperand(3)); err != nil {
				return err
			}

		case core.OpCloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()

		case core.OpNop:
			// placeholder byte from an unpatched jump; never reached in
			// a correctly compiled chunk.

		default:
			return core.NewDeallocatedObject()
		}
	}
}

func (vm *VM) add() error {
	b, a := vm.pop(), vm.pop()
	if a.IsNumber() && b.IsNumber() {
		vm.push(core.NumberValue(a.AsNumber() + b.AsNumber()))
		return nil
	}
	aObj, aOK := vm.heap.Get(a)
	bObj, bOK := vm.heap.Get(b)
	if aOK && bOK {
		aStr, aIsStr := aObj.(*object.String)
		bStr, bIsStr := bObj.(*object.String)
		if aIsStr && bIsStr {
			vm.push(vm.heap.PushString(aStr.Value + bStr.Value))
			return nil
		}
	}
	return core.NewOperandMismatch(vm.currentLine(), "number or string")
}

func (vm *VM) numericBinary(op func(a, b float64) float64) error {
	b, a := vm.pop(), vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return core.NewOperandMismatch(vm.currentLine(), "number")
	}
	vm.push(core.NumberValue(op(a.AsNumber(), b.AsNumber())))
	return nil
}

func (vm *VM) compare(op func(a, b float64) bool) error {
	b, a := vm.pop(), vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return core.NewOperandMismatch(vm.currentLine(), "number")
	}
	vm.push(core.BoolValue(op(a.AsNumber(), b.AsNumber())))
	return nil
}

func (vm *VM) defineGlobal(constIndex int) {
	name := vm.frame.closure.Function.Chunk.Constants[constIndex]
	vm.globals[name.Bits()] = vm.pop()
}

func (vm *VM) getGlobal(constIndex int) error {
	name := vm.frame.closure.Function.Chunk.Constants[constIndex]
	v, ok := vm.globals[name.Bits()]
	if !ok {
		return core.NewUndefinedVariable(vm.currentLine(), vm.heap.Format(name))
	}
	vm.push(v)
	return nil
}

func (vm *VM) setGlobal(constIndex int) error {
	name := vm.frame.closure.Function.Chunk.Constants[constIndex]
	if _, ok := vm.globals[name.Bits()]; !ok {
		return core.NewUndefinedVariable(vm.currentLine(), vm.heap.Format(name))
	}
	vm.globals[name.Bits()] = vm.peek(0)
	return nil
}

// call dispatches OpCall: the callee sits argCount slots below the top
// of the stack, with its arguments above it.
func (vm *VM) call(argCount int) error {
	callee := vm.peek(argCount)
	obj, ok := vm.heap.Get(callee)
	if !ok {
		return core.NewInvalidCall(vm.currentLine())
	}
	switch fn := obj.(type) {
	case *object.Closure:
		return vm.callClosure(fn, argCount)
	case *object.Native:
		return vm.callNative(fn, argCount)
	default:
		return core.NewInvalidCall(vm.currentLine())
	}
}

func (vm *VM) callClosure(closure *object.Closure, argCount int) error {
	if argCount != closure.Function.Arity {
		return core.NewArityMismatch(vm.currentLine(), closure.Function.Arity, argCount)
	}
	if vm.frameCount() >= frameMax {
		return core.NewStackOverflow(vm.currentLine())
	}
	frame := &Frame{
		fp:      len(vm.stack) - argCount - 1,
		closure: closure,
		caller:  vm.frame,
	}
	vm.frame = frame
	return nil
}

func (vm *VM) callNative(native *object.Native, argCount int) error {
	if argCount != native.Arity {
		return core.NewArityMismatch(vm.currentLine(), native.Arity, argCount)
	}
	args := make([]core.Value, argCount)
	copy(args, vm.stack[len(vm.stack)-argCount:])
	result, err := native.Call(args)
	if err != nil {
		return err
	}
	vm.stack = vm.stack[:len(vm.stack)-argCount-1]
	vm.push(result)
	return nil
}

func (vm *VM) frameCount() int {
	n := 0
	for f := vm.frame; f != nil; f = f.caller {
		n++
	}
	return n
}

func (vm *VM) makeClosure(constIndex int) error {
	fnValue := vm.frame.closure.Function.Chunk.Constants[constIndex]
	obj, ok := vm.heap.Get(fnValue)
	if !ok {
		return core.NewDeallocatedObject()
	}
	fn, ok := obj.(*object.Function)
	if !ok {
		return core.NewDeallocatedObject()
	}

	closure := &object.Closure{Function: fn, UpvalueIndices: make([]int, fn.UpvalueCount)}
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := vm.readByte()
		index := int(vm.readByte())
		if isLocal != 0 {
			closure.UpvalueIndices[i] = vm.captureUpvalue(vm.frame.fp + index)
		} else {
			closure.UpvalueIndices[i] = vm.frame.closure.UpvalueIndices[index]
		}
	}

	vm.push(vm.heap.Push(closure))
	return nil
}

func (vm *VM) trace() {
	var sb []string
	for _, v := range vm.stack {
		sb = append(sb, "["+vm.heap.Format(v)+"]")
	}
	line, _ := vm.frame.closure.Function.Chunk.DisassembleInstruction(vm.frame.ip, vm.heap)
	fmt.Fprintln(vm.out, "        ", sb)
	fmt.Fprintln(vm.out, line)
}
