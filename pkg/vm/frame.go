package vm

import "github.com/kristofer/loxvm/pkg/object"

// Frame is one activation record. Frames form a linked list via caller
// rather than a flat stack vector, mirroring how closures in this VM
// outlive the call that created them: a Frame only needs to know who
// called it, not a fixed array slot.
type Frame struct {
	ip      int
	fp      int // index into VM.stack of this frame's first slot (slot 0 = the callee itself)
	closure *object.Closure
	caller  *Frame
}
