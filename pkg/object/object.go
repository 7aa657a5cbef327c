// Package object defines the heap-allocated object variants: strings,
// compiled functions, closures, natives, and upvalue cells. A Value
// (pkg/core) that IsObject refers to one of these by heap index.
package object

import (
	"github.com/kristofer/loxvm/pkg/bytecode"
	"github.com/kristofer/loxvm/pkg/core"
)

// Object is implemented by every heap-allocated variant. Format renders
// the value the way `print` and the disassembler do.
type Object interface {
	Format() string
}

// String is an interned heap string.
type String struct {
	Value string
}

func (s *String) Format() string { return s.Value }

// Function is a compiled function body: its own Chunk plus arity and
// name, produced once by the compiler and shared by every Closure
// wrapping it.
type Function struct {
	Name         string
	Arity        int
	UpvalueCount int
	Chunk        *bytecode.Chunk
}

func (f *Function) Format() string {
	if f.Name == "" {
		return "<script>"
	}
	return "<fn " + f.Name + ">"
}

// NativeFn is the Go function backing a Native object.
type NativeFn func(args []core.Value) (core.Value, error)

// Native is a builtin function implemented in Go rather than compiled
// Lox bytecode.
type Native struct {
	Name  string
	Arity int
	Call  NativeFn
}

func (n *Native) Format() string { return "<native fn " + n.Name + ">" }

// Closure pairs a compiled Function with the upvalue cells it captured
// at creation time. UpvalueIndices holds indices into the VM's shared
// upvalue store (see pkg/vm), one per upvalue the function declares.
type Closure struct {
	Function       *Function
	UpvalueIndices []int
}

func (c *Closure) Format() string { return "<closure " + c.Function.Name + ">" }

// UpValue is a heap cell created when a closed-over local outlives the
// stack frame that declared it. Before closing it aliases a stack slot
// (tracked by the VM's upvalue store, not here); once closed it directly
// holds the value.
type UpValue struct {
	Value core.Value
}

func (u *UpValue) Format() string { return "<upvalue>" }
