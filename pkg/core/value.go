// Package core defines the values, opcodes, and error taxonomy shared by
// the compiler and the VM.
//
// Value model
//
// Every Lox value is a float64 under a NaN-boxing scheme: ordinary
// numbers are stored as themselves, while nil, the booleans, and heap
// references are packed into the payload bits of a quiet NaN. This
// keeps the VM's value stack a single, cache-friendly []Value with no
// per-value boxing allocation, at the cost of object references being
// opaque indices into a side heap (see pkg/heap) rather than pointers.
package core

import "math"

// Value is a NaN-boxed runtime value: either an ordinary float64, or one
// of nil/true/false/object packed into the bit pattern of a quiet NaN.
type Value uint64

const (
	signBit  uint64 = 0x8000000000000000
	qnan     uint64 = 0x7ffc000000000000
	tagNil   uint64 = 1
	tagFalse uint64 = 2
	tagTrue  uint64 = 3
)

// NilValue is the canonical nil value.
var NilValue = Value(qnan | tagNil)

// TrueValue and FalseValue are the canonical boolean values.
var (
	TrueValue  = Value(qnan | tagTrue)
	FalseValue = Value(qnan | tagFalse)
)

// NumberValue boxes an ordinary float64.
func NumberValue(n float64) Value {
	if n != n { // canonicalize NaN so it never collides with a tag bit pattern
		return Value(0x7ff8000000000000)
	}
	return Value(math.Float64bits(n))
}

// BoolValue boxes a boolean.
func BoolValue(b bool) Value {
	if b {
		return TrueValue
	}
	return FalseValue
}

// ObjectValue boxes a heap index. index must fit in 48 bits.
func ObjectValue(index uint32) Value {
	return Value(signBit | qnan | uint64(index))
}

// IsNumber reports whether v holds an ordinary float64 (i.e. its bits
// are not a quiet-NaN-tagged payload).
func (v Value) IsNumber() bool {
	return uint64(v)&qnan != qnan
}

// IsNil reports whether v is nil.
func (v Value) IsNil() bool { return v == NilValue }

// IsBool reports whether v is a boolean.
func (v Value) IsBool() bool { return v == TrueValue || v == FalseValue }

// IsObject reports whether v is a heap reference.
func (v Value) IsObject() bool {
	return uint64(v)&(qnan|signBit) == (qnan | signBit)
}

// AsNumber returns the float64 v holds. Callers must check IsNumber first.
func (v Value) AsNumber() float64 {
	return math.Float64frombits(uint64(v))
}

// AsBool returns the boolean v holds. Callers must check IsBool first.
func (v Value) AsBool() bool { return v == TrueValue }

// AsObject returns the heap index v holds. Callers must check IsObject first.
func (v Value) AsObject() uint32 {
	return uint32(uint64(v) &^ (signBit | qnan))
}

// IsFalsey implements Lox truthiness: only nil and false are falsey;
// every other value — including the number 0 and the empty string — is
// truthy.
func (v Value) IsFalsey() bool {
	return v == NilValue || v == FalseValue
}

// Equal implements Lox's `==` without heap access: numbers compare as
// float64, everything else by bit pattern, so objects compare by heap
// slot. Strings are interned (see pkg/heap), so equal string contents
// share a slot and this is also content equality for strings.
func (v Value) Equal(other Value) bool {
	if v.IsNumber() && other.IsNumber() {
		return v.AsNumber() == other.AsNumber()
	}
	return v == other
}

// Bits returns the raw 64-bit representation, used as a map key (e.g.
// interning an identifier name Value to its global slot).
func (v Value) Bits() uint64 { return uint64(v) }
