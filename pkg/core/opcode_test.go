package core

import "testing"

func TestToLong(t *testing.T) {
	long, ok := OpLoadConstant.ToLong()
	if !ok || long != OpLoadConstantLong {
		t.Fatalf("got (%v, %v), want (OpLoadConstantLong, true)", long, ok)
	}
	if _, ok := OpAdd.ToLong(); ok {
		t.Fatal("OpAdd should have no long form")
	}
}

func TestOpcodeString(t *testing.T) {
	if OpReturn.String() != "RETURN" {
		t.Fatalf("got %q", OpReturn.String())
	}
	if OpCode(255).String() != "UNKNOWN" {
		t.Fatalf("got %q for an undefined opcode", OpCode(255).String())
	}
}
