package vm

import (
	"strings"
	"testing"
)

func TestChunkEmitKeepsLinesInLockstep(t *testing.T) {
	c := NewChunk()
	c.Emit(LoadConstant(0), 1)
	c.Emit(Simple(OpNegate), 1)
	c.Emit(Simple(OpReturn), 2)

	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	if len(c.Lines()) != c.Len() {
		t.Fatalf("line table length %d != code length %d", len(c.Lines()), c.Len())
	}
	if got := c.LineAt(2); got != 2 {
		t.Errorf("LineAt(2) = %d, want 2", got)
	}
}

func TestChunkAtBounds(t *testing.T) {
	c := NewChunk()
	c.Emit(Simple(OpReturn), 1)

	if _, ok := c.At(0); !ok {
		t.Error("At(0) not ok for non-empty chunk")
	}
	if _, ok := c.At(1); ok {
		t.Error("At(1) ok past the end")
	}
	if _, ok := c.At(-1); ok {
		t.Error("At(-1) ok")
	}
	if got := c.LineAt(99); got != 0 {
		t.Errorf("LineAt out of range = %d, want 0", got)
	}
}

func TestChunkConstantPoolCap(t *testing.T) {
	c := NewChunk()
	for i := 0; i < MaxConstants; i++ {
		idx, ok := c.AddConstant(FromFloat64(float64(i)))
		if !ok {
			t.Fatalf("AddConstant failed at %d, below the cap", i)
		}
		if idx != i {
			t.Fatalf("AddConstant index = %d, want %d", idx, i)
		}
	}
	if _, ok := c.AddConstant(FromFloat64(0)); ok {
		t.Error("AddConstant succeeded past the cap")
	}
	if len(c.Constants()) != MaxConstants {
		t.Errorf("pool size = %d, want %d", len(c.Constants()), MaxConstants)
	}
}

func TestOpcodeNames(t *testing.T) {
	tests := []struct {
		op   Opcode
		want string
	}{
		{OpConstant, "CONSTANT"},
		{OpNotEqual, "NOT_EQUAL"},
		{OpGreaterEqual, "GREATER_EQUAL"},
		{OpDivide, "DIVIDE"},
		{OpReturn, "RETURN"},
	}
	for _, tc := range tests {
		if got := tc.op.Name(); got != tc.want {
			t.Errorf("Name(%d) = %q, want %q", tc.op, got, tc.want)
		}
	}
	if got := Opcode(0xEE).Name(); got != "UNKNOWN_EE" {
		t.Errorf("unknown opcode name = %q", got)
	}
}

func TestOpcodeInfoOperands(t *testing.T) {
	if !OpConstant.Info().HasOperand {
		t.Error("OpConstant should carry an operand")
	}
	if OpAdd.Info().HasOperand {
		t.Error("OpAdd should not carry an operand")
	}
}

func TestDisassembleChunk(t *testing.T) {
	c := NewChunk()
	idx, _ := c.AddConstant(FromFloat64(1.2))
	c.Emit(LoadConstant(idx), 123)
	c.Emit(Simple(OpNegate), 123)
	c.Emit(Simple(OpReturn), 124)

	got := DisassembleChunk(c, "test")
	want := "== test ==\n" +
		"0000  123 CONSTANT 0 '1.2'\n" +
		"0001    | NEGATE\n" +
		"0002  124 RETURN\n"
	if got != want {
		t.Errorf("disassembly:\n%s\nwant:\n%s", got, want)
	}
}

func TestDisassembleInstructionOutOfRange(t *testing.T) {
	c := NewChunk()
	if got := DisassembleInstruction(c, 5); !strings.Contains(got, "out of range") {
		t.Errorf("got %q", got)
	}
}
