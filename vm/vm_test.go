package vm

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// buildChunk assembles a chunk from constants and instructions, all on line 1.
func buildChunk(t *testing.T, constants []Value, instrs ...Instruction) *Chunk {
	t.Helper()
	c := NewChunk()
	for _, v := range constants {
		if _, ok := c.AddConstant(v); !ok {
			t.Fatal("constant pool overflow in test setup")
		}
	}
	for _, instr := range instrs {
		c.Emit(instr, 1)
	}
	return c
}

func TestRunArithmetic(t *testing.T) {
	tests := []struct {
		name   string
		chunk  *Chunk
		want   float64
	}{
		{
			"add",
			buildChunk(t, []Value{FromFloat64(1), FromFloat64(2)},
				LoadConstant(0), LoadConstant(1), Simple(OpAdd), Simple(OpReturn)),
			3,
		},
		{
			"subtract",
			buildChunk(t, []Value{FromFloat64(5), FromFloat64(3)},
				LoadConstant(0), LoadConstant(1), Simple(OpSubtract), Simple(OpReturn)),
			2,
		},
		{
			"multiply",
			buildChunk(t, []Value{FromFloat64(4), FromFloat64(2.5)},
				LoadConstant(0), LoadConstant(1), Simple(OpMultiply), Simple(OpReturn)),
			10,
		},
		{
			"divide",
			buildChunk(t, []Value{FromFloat64(7), FromFloat64(2)},
				LoadConstant(0), LoadConstant(1), Simple(OpDivide), Simple(OpReturn)),
			3.5,
		},
		{
			"negate",
			buildChunk(t, []Value{FromFloat64(9)},
				LoadConstant(0), Simple(OpNegate), Simple(OpReturn)),
			-9,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewVM().Run(tc.chunk)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if !got.IsNumber() || got.Float64() != tc.want {
				t.Errorf("result = %s, want %g", got, tc.want)
			}
		})
	}
}

func TestRunDivideByZero(t *testing.T) {
	chunk := buildChunk(t, []Value{FromFloat64(1), FromFloat64(0)},
		LoadConstant(0), LoadConstant(1), Simple(OpDivide), Simple(OpReturn))
	got, err := NewVM().Run(chunk)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !math.IsInf(got.Float64(), 1) {
		t.Errorf("1 / 0 = %s, want +Inf", got)
	}
}

func TestRunComparisonsAndEquality(t *testing.T) {
	tests := []struct {
		name  string
		op    Opcode
		a, b  Value
		want  bool
	}{
		{"greater", OpGreater, FromFloat64(2), FromFloat64(1), true},
		{"greater-equal", OpGreaterEqual, FromFloat64(2), FromFloat64(2), true},
		{"less", OpLess, FromFloat64(2), FromFloat64(1), false},
		{"less-equal", OpLessEqual, FromFloat64(1), FromFloat64(2), true},
		{"equal-numbers", OpEqual, FromFloat64(3), FromFloat64(3), true},
		{"equal-cross-variant", OpEqual, FromFloat64(1), True, false},
		{"not-equal", OpNotEqual, FromFloat64(1), FromFloat64(2), true},
		{"not-equal-nil", OpNotEqual, Nil, Nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chunk := buildChunk(t, []Value{tc.a, tc.b},
				LoadConstant(0), LoadConstant(1), Simple(tc.op), Simple(OpReturn))
			got, err := NewVM().Run(chunk)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if !got.IsBool() || got.Bool() != tc.want {
				t.Errorf("result = %s, want %v", got, tc.want)
			}
		})
	}
}

func TestRunNotIsTotal(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{Nil, true},
		{False, true},
		{True, false},
		{FromFloat64(0), false},
	}
	for _, tc := range tests {
		chunk := buildChunk(t, []Value{tc.v},
			LoadConstant(0), Simple(OpNot), Simple(OpReturn))
		got, err := NewVM().Run(chunk)
		if err != nil {
			t.Fatalf("Run(!%s): %v", tc.v, err)
		}
		if got.Bool() != tc.want {
			t.Errorf("!%s = %s, want %v", tc.v, got, tc.want)
		}
	}
}

func TestRunLiteralOpcodes(t *testing.T) {
	tests := []struct {
		op   Opcode
		want Value
	}{
		{OpNil, Nil},
		{OpTrue, True},
		{OpFalse, False},
	}
	for _, tc := range tests {
		chunk := buildChunk(t, nil, Simple(tc.op), Simple(OpReturn))
		got, err := NewVM().Run(chunk)
		if err != nil {
			t.Fatalf("Run(%s): %v", tc.op, err)
		}
		if !got.Equals(tc.want) {
			t.Errorf("%s = %s, want %s", tc.op, got, tc.want)
		}
	}
}

func TestRunTypeMismatch(t *testing.T) {
	tests := []struct {
		name  string
		chunk *Chunk
		msg   string
	}{
		{
			"negate-bool",
			buildChunk(t, nil, Simple(OpTrue), Simple(OpNegate), Simple(OpReturn)),
			"Operand must be a number.",
		},
		{
			"add-bool",
			buildChunk(t, []Value{FromFloat64(1)},
				Simple(OpTrue), LoadConstant(0), Simple(OpAdd), Simple(OpReturn)),
			"Operands must be numbers.",
		},
		{
			"compare-nil",
			buildChunk(t, []Value{FromFloat64(1)},
				LoadConstant(0), Simple(OpNil), Simple(OpLess), Simple(OpReturn)),
			"Operands must be numbers.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewVM()
			_, err := m.Run(tc.chunk)
			var re *RuntimeError
			if !errors.As(err, &re) {
				t.Fatalf("error type = %T, want *RuntimeError", err)
			}
			if re.Kind != TypeMismatch {
				t.Errorf("kind = %s, want %s", re.Kind, TypeMismatch)
			}
			if re.Message != tc.msg {
				t.Errorf("message = %q, want %q", re.Message, tc.msg)
			}
			if re.Line != 1 {
				t.Errorf("line = %d, want 1", re.Line)
			}
			if len(m.stack) != 0 {
				t.Errorf("stack not cleared after fault: %d values", len(m.stack))
			}
		})
	}
}

func TestRunFaultLine(t *testing.T) {
	// The fault reports the line of the faulting instruction, not of the
	// operands that fed it.
	c := NewChunk()
	idx, _ := c.AddConstant(FromFloat64(1))
	c.Emit(LoadConstant(idx), 1)
	c.Emit(Simple(OpTrue), 2)
	c.Emit(Simple(OpAdd), 3)
	c.Emit(Simple(OpReturn), 3)

	_, err := NewVM().Run(c)
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("error type = %T, want *RuntimeError", err)
	}
	if re.Line != 3 {
		t.Errorf("line = %d, want 3", re.Line)
	}
}

func TestRunInternalFaults(t *testing.T) {
	tests := []struct {
		name  string
		chunk *Chunk
	}{
		{"empty-chunk", NewChunk()},
		{"missing-return", buildChunk(t, nil, Simple(OpNil))},
		{"return-on-empty-stack", buildChunk(t, nil, Simple(OpReturn))},
		{"bad-constant-index", buildChunk(t, nil, LoadConstant(7), Simple(OpReturn))},
		{
			"leftover-stack-values",
			buildChunk(t, nil, Simple(OpNil), Simple(OpTrue), Simple(OpReturn)),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewVM().Run(tc.chunk)
			var re *RuntimeError
			if !errors.As(err, &re) {
				t.Fatalf("error type = %T, want *RuntimeError", err)
			}
			if re.Kind != InternalFault {
				t.Errorf("kind = %s, want %s", re.Kind, InternalFault)
			}
		})
	}
}

func TestRunOffEndReportsSourceLine(t *testing.T) {
	// A chunk with no return runs off the end; the fault's line comes from
	// the line table, not the instruction offset.
	c := NewChunk()
	c.Emit(Simple(OpNil), 7)

	_, err := NewVM().Run(c)
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("error type = %T, want *RuntimeError", err)
	}
	if re.Kind != InternalFault {
		t.Errorf("kind = %s, want %s", re.Kind, InternalFault)
	}
	if re.Line != 7 {
		t.Errorf("line = %d, want 7", re.Line)
	}
}

func TestRunVMIsReusableAfterFault(t *testing.T) {
	m := NewVM()

	bad := buildChunk(t, nil, Simple(OpTrue), Simple(OpNegate), Simple(OpReturn))
	if _, err := m.Run(bad); err == nil {
		t.Fatal("expected fault")
	}

	good := buildChunk(t, []Value{FromFloat64(6), FromFloat64(7)},
		LoadConstant(0), LoadConstant(1), Simple(OpMultiply), Simple(OpReturn))
	got, err := m.Run(good)
	if err != nil {
		t.Fatalf("Run after fault: %v", err)
	}
	if got.Float64() != 42 {
		t.Errorf("result = %s, want 42", got)
	}
}

func TestRunTrace(t *testing.T) {
	chunk := buildChunk(t, []Value{FromFloat64(1)},
		LoadConstant(0), Simple(OpNegate), Simple(OpReturn))

	var out strings.Builder
	m := NewVM()
	m.SetTrace(&out)
	if _, err := m.Run(chunk); err != nil {
		t.Fatalf("Run: %v", err)
	}

	trace := out.String()
	for _, want := range []string{"Stack:", "CONSTANT 0 '1'", "NEGATE", "RETURN"} {
		if !strings.Contains(trace, want) {
			t.Errorf("trace missing %q:\n%s", want, trace)
		}
	}
}

func TestRuntimeErrorFormat(t *testing.T) {
	err := &RuntimeError{Kind: TypeMismatch, Message: "Operand must be a number.", Line: 4}
	if got := err.Error(); got != "[line 4] Operand must be a number." {
		t.Errorf("Error() = %q", got)
	}
}
