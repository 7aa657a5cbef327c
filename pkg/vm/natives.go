package vm

import (
	"math"
	"time"

	"github.com/kristofer/loxvm/pkg/core"
	"github.com/kristofer/loxvm/pkg/object"
)

// registerNatives installs the builtin functions every VM starts with.
func (vm *VM) registerNatives() {
	vm.defineNative("clock", 0, nativeClock)
	vm.defineNative("sqrt", 1, nativeSqrt)
	vm.defineNative("str", 1, vm.nativeStr)
	vm.defineNative("len", 1, vm.nativeLen)
	vm.defineNative("now", 0, nativeNow)
}

func (vm *VM) defineNative(name string, arity int, fn object.NativeFn) {
	nameValue := vm.heap.PushString(name)
	native := &object.Native{Name: name, Arity: arity, Call: fn}
	nativeValue := vm.heap.Push(native)
	vm.globals[nameValue.Bits()] = nativeValue
}

func nativeClock(args []core.Value) (core.Value, error) {
	return core.NumberValue(math.Trunc(float64(time.Now().Unix()))), nil
}

func nativeNow(args []core.Value) (core.Value, error) {
	return core.NumberValue(float64(time.Now().UnixMilli())), nil
}

func nativeSqrt(args []core.Value) (core.Value, error) {
	if !args[0].IsNumber() {
		return core.NilValue, core.NewOperandMismatch(0, "number")
	}
	return core.NumberValue(math.Sqrt(args[0].AsNumber())), nil
}

func (vm *VM) nativeStr(args []core.Value) (core.Value, error) {
	return vm.heap.PushString(vm.heap.Format(args[0])), nil
}

func (vm *VM) nativeLen(args []core.Value) (core.Value, error) {
	obj, ok := vm.heap.Get(args[0])
	if !ok {
		return core.NilValue, core.NewOperandMismatch(0, "string")
	}
	str, ok := obj.(*object.String)
	if !ok {
		return core.NilValue, core.NewOperandMismatch(0, "string")
	}
	return core.NumberValue(float64(len(str.Value))), nil
}
