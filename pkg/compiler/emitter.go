package compiler

import (
	"github.com/kristofer/loxvm/pkg/bytecode"
	"github.com/kristofer/loxvm/pkg/core"
)

// chunk returns the Chunk currently being written — the chunk of the
// function this compiler instance is compiling.
func (c *Compiler) chunk() *bytecode.Chunk {
	return c.function.Chunk
}

// emitByte appends a single raw byte attributed to line.
func (c *Compiler) emitByte(b byte, line int) {
	c.chunk().WriteByte(b, line)
}

// emitBytes appends two raw bytes attributed to line.
func (c *Compiler) emitBytes(b1, b2 byte, line int) {
	c.emitByte(b1, line)
	c.emitByte(b2, line)
}

// emitOperandInstruction emits op with index as its operand, switching
// to op's long form (and a 3-byte operand) if index doesn't fit in a
// single byte.
func (c *Compiler) emitOperandInstruction(op core.OpCode, index int, line int) error {
	if index > 255 {
		long, ok := op.ToLong()
		if !ok {
			return core.NewTooManyConstants(line)
		}
		c.emitByte(byte(long), line)
		c.emitByte(byte(index&0xff), line)
		c.emitByte(byte((index>>8)&0xff), line)
		c.emitByte(byte((index>>16)&0xff), line)
		return nil
	}
	c.emitByte(byte(op), line)
	c.emitByte(byte(index), line)
	return nil
}

// emitConstantInstruction adds value to the constant pool and emits op
// with the resulting index as its operand.
func (c *Compiler) emitConstantInstruction(op core.OpCode, value core.Value, line int) error {
	index := c.chunk().AddConstant(value)
	return c.emitOperandInstruction(op, index, line)
}

// emitJumpInstruction emits op followed by a two-byte placeholder,
// returning the offset of the placeholder for a later patchJumpInstruction
// call.
func (c *Compiler) emitJumpInstruction(op core.OpCode, line int) int {
	c.emitByte(byte(op), line)
	c.emitByte(byte(core.OpNop), line)
	c.emitByte(byte(core.OpNop), line)
	return len(c.chunk().Code) - 2
}

// patchJumpInstruction backfills the two-byte placeholder at offset with
// the distance from just past it to the current end of the chunk.
func (c *Compiler) patchJumpInstruction(offset int, line int) error {
	distance := len(c.chunk().Code) - offset - 2
	if distance > 0xffff {
		return core.NewLargeJump(line, distance)
	}
	c.chunk().Code[offset] = byte(distance & 0xff)
	c.chunk().Code[offset+1] = byte((distance >> 8) & 0xff)
	return nil
}

// emitLoopInstruction emits an OpLoop instruction jumping back to
// loopStart.
func (c *Compiler) emitLoopInstruction(loopStart int, line int) error {
	c.emitByte(byte(core.OpLoop), line)
	distance := len(c.chunk().Code) - loopStart + 2
	if distance > 0xffff {
		return core.NewLargeJump(line, distance)
	}
	c.emitByte(byte(distance&0xff), line)
	c.emitByte(byte((distance>>8)&0xff), line)
	return nil
}
