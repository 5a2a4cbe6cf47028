// Package vm holds the fern runtime: the Value representation, the bytecode
// chunk format, and the stack machine that executes chunks.
package vm

import (
	"fmt"
	"io"
)

// VM executes one chunk at a time against an operand stack. The instruction
// pointer is an index into the chunk's code, never a raw address; every
// fetch is bounds-checked.
//
// A VM is single-threaded by construction. Nothing it owns escapes it, and
// callers that share one across goroutines must serialize access themselves.
type VM struct {
	chunk *Chunk
	ip    int
	stack []Value
	trace io.Writer
}

// NewVM creates a VM with an empty operand stack.
func NewVM() *VM {
	return &VM{stack: make([]Value, 0, 16)}
}

// SetTrace directs a per-instruction execution trace (stack contents plus
// disassembly) to w. Pass nil to disable.
func (m *VM) SetTrace(w io.Writer) {
	m.trace = w
}

// Run executes the chunk and returns the program's result value, or a
// *RuntimeError describing the first fault. On a fault the operand stack is
// cleared; there are no partial results.
func (m *VM) Run(chunk *Chunk) (Value, error) {
	m.chunk = chunk
	m.ip = 0
	m.stack = m.stack[:0]

	if chunk.Len() == 0 {
		return Nil, m.internalError(0, "empty chunk")
	}

	for {
		at := m.ip
		instr, ok := chunk.At(at)
		if !ok {
			return Nil, m.internalError(chunk.LineAt(chunk.Len()-1), "instruction pointer out of range")
		}
		line := chunk.LineAt(at)
		m.ip++

		if m.trace != nil {
			m.traceInstruction(at)
		}

		switch instr.Op {
		case OpConstant:
			v, ok := chunk.ConstantAt(instr.Const)
			if !ok {
				return Nil, m.internalError(line, fmt.Sprintf("bad constant index %d", instr.Const))
			}
			m.push(v)

		case OpNil:
			m.push(Nil)
		case OpTrue:
			m.push(True)
		case OpFalse:
			m.push(False)

		case OpNegate:
			v, ok := m.peek(0)
			if !ok {
				return Nil, m.internalError(line, "stack underflow")
			}
			if !v.IsNumber() {
				return Nil, m.typeError(line, "Operand must be a number.")
			}
			m.pop()
			m.push(FromFloat64(-v.Float64()))

		case OpNot:
			v, ok := m.popChecked()
			if !ok {
				return Nil, m.internalError(line, "stack underflow")
			}
			m.push(FromBool(v.IsFalsy()))

		case OpEqual, OpNotEqual:
			b, okB := m.popChecked()
			a, okA := m.popChecked()
			if !okA || !okB {
				return Nil, m.internalError(line, "stack underflow")
			}
			eq := a.Equals(b)
			if instr.Op == OpNotEqual {
				eq = !eq
			}
			m.push(FromBool(eq))

		case OpAdd, OpSubtract, OpMultiply, OpDivide,
			OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
			if err := m.binaryNumeric(instr.Op, line); err != nil {
				return Nil, err
			}

		case OpReturn:
			result, ok := m.popChecked()
			if !ok {
				return Nil, m.internalError(line, "stack underflow")
			}
			if len(m.stack) != 0 {
				return Nil, m.internalError(line, fmt.Sprintf("%d values left on stack at return", len(m.stack)))
			}
			return result, nil

		default:
			return Nil, m.internalError(line, fmt.Sprintf("unknown opcode %s", instr.Op))
		}
	}
}

// binaryNumeric pops two numbers (right first, since it was pushed last) and
// pushes the arithmetic or comparison result. Division by zero follows
// IEEE-754 and is not a fault.
func (m *VM) binaryNumeric(op Opcode, line int) error {
	right, okR := m.peek(0)
	left, okL := m.peek(1)
	if !okR || !okL {
		return m.internalError(line, "stack underflow")
	}
	if !right.IsNumber() || !left.IsNumber() {
		return m.typeError(line, "Operands must be numbers.")
	}

	b := m.pop().Float64()
	a := m.pop().Float64()

	switch op {
	case OpAdd:
		m.push(FromFloat64(a + b))
	case OpSubtract:
		m.push(FromFloat64(a - b))
	case OpMultiply:
		m.push(FromFloat64(a * b))
	case OpDivide:
		m.push(FromFloat64(a / b))
	case OpGreater:
		m.push(FromBool(a > b))
	case OpGreaterEqual:
		m.push(FromBool(a >= b))
	case OpLess:
		m.push(FromBool(a < b))
	case OpLessEqual:
		m.push(FromBool(a <= b))
	default:
		return m.internalError(line, fmt.Sprintf("binaryNumeric: unexpected opcode %s", op))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Operand stack
// ---------------------------------------------------------------------------

func (m *VM) push(v Value) {
	m.stack = append(m.stack, v)
}

// pop removes and returns the top of stack. Callers must have verified
// depth via peek; popChecked is the verifying form.
func (m *VM) pop() Value {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *VM) popChecked() (Value, bool) {
	if len(m.stack) == 0 {
		return Value{}, false
	}
	return m.pop(), true
}

// peek returns the value distance slots down from the top without popping.
func (m *VM) peek(distance int) (Value, bool) {
	idx := len(m.stack) - 1 - distance
	if idx < 0 {
		return Value{}, false
	}
	return m.stack[idx], true
}

func (m *VM) resetStack() {
	m.stack = m.stack[:0]
}

// ---------------------------------------------------------------------------
// Faults
// ---------------------------------------------------------------------------

func (m *VM) typeError(line int, message string) *RuntimeError {
	m.resetStack()
	return &RuntimeError{Kind: TypeMismatch, Message: message, Line: line}
}

func (m *VM) internalError(line int, message string) *RuntimeError {
	m.resetStack()
	return &RuntimeError{Kind: InternalFault, Message: message, Line: line}
}

func (m *VM) traceInstruction(offset int) {
	var stack string
	for _, v := range m.stack {
		stack += "[" + v.String() + "]"
	}
	fmt.Fprintf(m.trace, "   Stack: %s\n%s\n", stack, DisassembleInstruction(m.chunk, offset))
}
