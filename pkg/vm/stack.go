package vm

import "github.com/kristofer/loxvm/pkg/core"

// stackMax is the initial capacity reserved for the value stack so the
// common case never reallocates; the stack still grows past it for
// deep expressions, since frame-depth (frameMax) is what actually
// bounds recursion.
const stackMax = 256

// push appends v to the value stack.
func (vm *VM) push(v core.Value) {
	vm.stack = append(vm.stack, v)
}

// pop removes and returns the top of the value stack. Returns nil if
// the stack is empty rather than panicking, matching the original's
// defensive pop — the compiler's own Pop-balancing should make this
// unreachable, but a malformed chunk shouldn't crash the host process.
func (vm *VM) pop() core.Value {
	if len(vm.stack) == 0 {
		return core.NilValue
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

// peek returns the value distance slots from the top (0 = top) without
// popping it.
func (vm *VM) peek(distance int) core.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

// getSlot/setSlot address the stack relative to the current frame's fp,
// the addressing scheme GetLocal/SetLocal operands use.
func (vm *VM) getSlot(frame *Frame, slot int) core.Value {
	return vm.stack[frame.fp+slot]
}

func (vm *VM) setSlot(frame *Frame, slot int, v core.Value) {
	vm.stack[frame.fp+slot] = v
}
