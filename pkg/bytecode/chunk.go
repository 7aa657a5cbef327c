// Package bytecode defines the Chunk: a byte-addressed instruction
// stream paired with its constant pool and a run-length-encoded line
// table, plus a disassembler for tracing and debugging.
//
// A Chunk is written by the compiler one byte at a time (see
// pkg/compiler) and read one byte at a time by the VM's dispatch loop
// (see pkg/vm). Opcodes with a constant-pool or local-slot index
// operand come in a short form, whose operand is a single byte (index
// 0-255), and a long form, whose operand is 3 bytes, little-endian by byte position
// (low, mid, high) — chosen automatically by the emitter when an index
// would overflow a byte.
package bytecode

import (
	"fmt"
	"strings"

	"github.com/kristofer/loxvm/pkg/core"
)

// lineRun records that runLength consecutive bytes of code, starting
// wherever the previous run left off, belong to source line Line. This
// run-length encoding keeps the line table small even though many
// consecutive instructions in a row usually share a line.
type lineRun struct {
	Line      int
	RunLength int
}

// Chunk is a compiled instruction stream.
type Chunk struct {
	Code      []byte
	Constants []core.Value
	lines     []lineRun
}

// NewChunk returns an empty Chunk.
func NewChunk() *Chunk {
	return &Chunk{}
}

// WriteByte appends a single byte belonging to source line, extending
// the line table's final run if line matches it, or starting a new run.
func (c *Chunk) WriteByte(b byte, line int) {
	c.Code = append(c.Code, b)
	if n := len(c.lines); n > 0 && c.lines[n-1].Line == line {
		c.lines[n-1].RunLength++
		return
	}
	c.lines = append(c.lines, lineRun{Line: line, RunLength: 1})
}

// AddConstant appends constant to the constant pool and returns its
// index.
func (c *Chunk) AddConstant(constant core.Value) int {
	c.Constants = append(c.Constants, constant)
	return len(c.Constants) - 1
}

// GetLine returns the source line the byte at offset belongs to, by
// walking the run-length-encoded line table.
func (c *Chunk) GetLine(offset int) int {
	remaining := offset
	for _, run := range c.lines {
		if remaining < run.RunLength {
			return run.Line
		}
		remaining -= run.RunLength
	}
	if len(c.lines) > 0 {
		return c.lines[len(c.lines)-1].Line
	}
	return 0
}

// ReadOperand decodes a 1, 2, or 3-byte little-endian-by-position
// operand starting at offset within operands, returning the decoded
// value. width must be 1, 2, or 3.
func ReadOperand(operands []byte, offset, width int) int {
	value := 0
	for i := 0; i < width; i++ {
		value |= int(operands[offset+i]) << (8 * i)
	}
	return value
}

// ValueFormatter renders a core.Value as text, dereferencing heap
// references where necessary. Supplied by the heap so the disassembler
// doesn't need to import pkg/heap (which imports pkg/object, which
// imports pkg/bytecode — importing pkg/heap here would cycle).
type ValueFormatter interface {
	Format(v core.Value) string
}

// Disassemble renders every instruction in the chunk as text, prefixed
// with name as a header. Intended for debug tracing (VM.TraceEnabled),
// not for any persisted format.
func (c *Chunk) Disassemble(name string, heap ValueFormatter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		next, line := c.disassembleInstruction(&b, offset, heap)
		_ = line
		offset = next
	}
	return b.String()
}

// DisassembleInstruction renders the single instruction at offset and
// returns the rendered line along with the offset of the next
// instruction. Used by the VM's trace mode to print one line per step
// without re-rendering the whole chunk.
func (c *Chunk) DisassembleInstruction(offset int, heap ValueFormatter) (string, int) {
	var b strings.Builder
	next, _ := c.disassembleInstruction(&b, offset, heap)
	return strings.TrimRight(b.String(), "\n"), next
}

func (c *Chunk) disassembleInstruction(b *strings.Builder, offset int, heap ValueFormatter) (int, int) {
	line := c.GetLine(offset)
	fmt.Fprintf(b, "%04d ", offset)
	if offset > 0 && c.GetLine(offset-1) == line {
		fmt.Fprint(b, "   | ")
	} else {
		fmt.Fprintf(b, "%4d ", line)
	}

	op := core.OpCode(c.Code[offset])
	switch op {
	case core.OpLoadConstant, core.OpDefineGlobal, core.OpGetGlobal, core.OpSetGlobal,
		core.OpGetLocal, core.OpSetLocal:
		return c.disassembleIndexed(b, op, offset, 1, heap), line
	case core.OpLoadConstantLong, core.OpDefineGlobalLong, core.OpGetGlobalLong, core.OpSetGlobalLong,
		core.OpGetLocalLong, core.OpSetLocalLong:
		return c.disassembleIndexed(b, op, offset, 3, heap), line
	case core.OpGetUpvalue, core.OpSetUpvalue, core.OpCall:
		return c.disassembleNumeric(b, op, offset, 1), line
	case core.OpJump, core.OpJumpIfFalse:
		return c.disassembleJump(b, op, offset, 1), line
	case core.OpLoop:
		return c.disassembleJump(b, op, offset, -1), line
	case core.OpClosure:
		return c.disassembleClosure(b, op, offset, 1, heap), line
	case core.OpClosureLong:
		return c.disassembleClosure(b, op, offset, 3, heap), line
	default:
		fmt.Fprintf(b, "%s\n", op)
		return offset + 1, line
	}
}

func (c *Chunk) disassembleIndexed(b *strings.Builder, op core.OpCode, offset, width int, heap ValueFormatter) int {
	index := ReadOperand(c.Code, offset+1, width)
	var rendered string
	switch op {
	case core.OpLoadConstant, core.OpLoadConstantLong:
		rendered = heap.Format(c.Constants[index])
	default:
		rendered = fmt.Sprintf("%d", index)
	}
	fmt.Fprintf(b, "%-18s %4d '%s'\n", op, index, rendered)
	return offset + 1 + width
}

func (c *Chunk) disassembleNumeric(b *strings.Builder, op core.OpCode, offset, width int) int {
	operand := ReadOperand(c.Code, offset+1, width)
	fmt.Fprintf(b, "%-18s %4d\n", op, operand)
	return offset + 1 + width
}

func (c *Chunk) disassembleJump(b *strings.Builder, op core.OpCode, offset, sign int) int {
	distance := ReadOperand(c.Code, offset+1, 2)
	target := offset + 3 + sign*distance
	fmt.Fprintf(b, "%-18s %4d -> %d\n", op, offset, target)
	return offset + 3
}

func (c *Chunk) disassembleClosure(b *strings.Builder, op core.OpCode, offset, width int, heap ValueFormatter) int {
	index := ReadOperand(c.Code, offset+1, width)
	next := offset + 1 + width
	fmt.Fprintf(b, "%-18s %4d '%s'\n", op, index, heap.Format(c.Constants[index]))

	upvalueCount := upvalueCountOf(heap, c.Constants[index])
	for i := 0; i < upvalueCount; i++ {
		isLocal := c.Code[next]
		upvalueIndex := c.Code[next+1]
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(b, "%04d      |                     %s %d\n", next, kind, upvalueIndex)
		next += 2
	}
	return next
}

// upvalueCountOf asks the heap how many upvalues the function constant
// at v declares, so the disassembler can walk past OpClosure's
// variable-length descriptor tail. Returns 0 if v isn't a function
// reference the heap recognizes.
func upvalueCountOf(heap ValueFormatter, v core.Value) int {
	type upvalueCounter interface {
		FunctionUpvalueCount(v core.Value) int
	}
	if counter, ok := heap.(upvalueCounter); ok {
		return counter.FunctionUpvalueCount(v)
	}
	return 0
}
