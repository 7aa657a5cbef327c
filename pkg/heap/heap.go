// Package heap implements the object heap: a flat slab of heap-allocated
// objects (strings, functions, closures, natives, upvalue cells)
// addressed by index from a NaN-boxed core.Value, plus string interning
// so that equal string contents always resolve to the same slot.
package heap

import (
	"fmt"

	"github.com/kristofer/loxvm/pkg/core"
	"github.com/kristofer/loxvm/pkg/object"
)

// Heap owns every heap-allocated object live in the VM. It never frees
// an entry: this build has no garbage collector (see spec Non-goals),
// so objects accumulate for the lifetime of the process.
type Heap struct {
	objects []object.Object
	interns map[string]uint32
}

// New returns an empty Heap.
func New() *Heap {
	return &Heap{interns: make(map[string]uint32)}
}

// Push allocates obj on the heap and returns a Value referencing it.
func (h *Heap) Push(obj object.Object) core.Value {
	index := uint32(len(h.objects))
	h.objects = append(h.objects, obj)
	return core.ObjectValue(index)
}

// PushString interns s: if an equal string is already on the heap, its
// existing Value is returned; otherwise a new String object is
// allocated and recorded in the intern table.
func (h *Heap) PushString(s string) core.Value {
	if index, ok := h.interns[s]; ok {
		return core.ObjectValue(index)
	}
	v := h.Push(&object.String{Value: s})
	h.interns[s] = v.AsObject()
	return v
}

// Get returns the object v refers to, or false if v is not an object
// reference or its index is out of range.
func (h *Heap) Get(v core.Value) (object.Object, bool) {
	if !v.IsObject() {
		return nil, false
	}
	index := v.AsObject()
	if int(index) >= len(h.objects) {
		return nil, false
	}
	return h.objects[index], true
}

// GetAt returns the object at a raw heap index, used by the VM's
// upvalue store which tracks heap indices directly rather than Values.
func (h *Heap) GetAt(index int) (object.Object, bool) {
	if index < 0 || index >= len(h.objects) {
		return nil, false
	}
	return h.objects[index], true
}

// SetUpvalue overwrites the value held by the UpValue object at index.
// Panics if the slot does not hold an UpValue, mirroring the original
// heap's invariant that Set is never called on any other variant.
func (h *Heap) SetUpvalue(index int, v core.Value) {
	obj, ok := h.GetAt(index)
	if !ok {
		panic("heap: SetUpvalue on out-of-range index")
	}
	up, ok := obj.(*object.UpValue)
	if !ok {
		panic("heap: SetUpvalue on non-UpValue object")
	}
	up.Value = v
}

// Format renders a core.Value as `print` and the disassembler do:
// numbers and booleans/nil print literally, object references
// dereference through the heap (strings print raw, functions/closures/
// natives print their `<...>` banner, upvalues recursively format the
// value they hold).
func (h *Heap) Format(v core.Value) string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		if v.AsBool() {
			return "true"
		}
		return "false"
	case v.IsNumber():
		return formatNumber(v.AsNumber())
	case v.IsObject():
		obj, ok := h.Get(v)
		if !ok {
			return "<invalid>"
		}
		if up, ok := obj.(*object.UpValue); ok {
			return h.Format(up.Value)
		}
		return obj.Format()
	default:
		return "<invalid>"
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}

// FunctionUpvalueCount implements bytecode.ValueFormatter's optional
// upvalue-count extension, so the disassembler can walk past OpClosure's
// variable-length descriptor bytes without importing pkg/object itself.
func (h *Heap) FunctionUpvalueCount(v core.Value) int {
	obj, ok := h.Get(v)
	if !ok {
		return 0
	}
	if fn, ok := obj.(*object.Function); ok {
		return fn.UpvalueCount
	}
	return 0
}
