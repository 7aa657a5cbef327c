package vm

import (
	"github.com/kristofer/loxvm/pkg/core"
	"github.com/kristofer/loxvm/pkg/object"
)

// upvalueSlot is one entry in the VM's shared upvalue store. While Open
// it aliases a live stack slot (StackIndex); once Closed the value has
// been copied onto the heap as an object.UpValue and HeapIndex points
// there instead. Closures reference upvalues by their index into this
// slice (see object.Closure.UpvalueIndices), not by stack position,
// so the reference stays valid after the stack slot is popped.
type upvalueSlot struct {
	Open       bool
	StackIndex int
	HeapIndex  int
}

// captureUpvalue returns the index of the open upvalue aliasing
// stackIndex, creating one if none exists yet. Reusing an existing open
// upvalue for the same stack slot is what lets two closures created in
// the same scope share state through one variable.
func (vm *VM) captureUpvalue(stackIndex int) int {
	for i, up := range vm.upvalues {
		if up.Open && up.StackIndex == stackIndex {
			return i
		}
	}
	vm.upvalues = append(vm.upvalues, upvalueSlot{Open: true, StackIndex: stackIndex})
	return len(vm.upvalues) - 1
}

// closeUpvalues promotes every open upvalue whose stack index is at or
// above fromStackIndex to a heap-resident object.UpValue, copying its
// current stack value across. Called when a scope (or a whole call
// frame) exits and its locals are about to disappear from the stack but
// a closure may still reference them.
func (vm *VM) closeUpvalues(fromStackIndex int) {
	for i := range vm.upvalues {
		up := &vm.upvalues[i]
		if !up.Open || up.StackIndex < fromStackIndex {
			continue
		}
		value := vm.stack[up.StackIndex]
		heapValue := vm.heap.Push(&object.UpValue{Value: value})
		up.Open = false
		up.HeapIndex = int(heapValue.AsObject())
	}
}

// getUpvalue reads the current value of upvalue index, whether it's
// still open (reads the live stack slot) or closed (reads the heap
// cell).
func (vm *VM) getUpvalue(index int) core.Value {
	up := vm.upvalues[index]
	if up.Open {
		return vm.stack[up.StackIndex]
	}
	obj, _ := vm.heap.GetAt(up.HeapIndex)
	return obj.(*object.UpValue).Value
}

// setUpvalue writes v through upvalue index, whether open or closed.
func (vm *VM) setUpvalue(index int, v core.Value) {
	up := vm.upvalues[index]
	if up.Open {
		vm.stack[up.StackIndex] = v
		return
	}
	vm.heap.SetUpvalue(up.HeapIndex, v)
}
