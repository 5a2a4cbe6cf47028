package vm

import "fmt"

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode identifies a single VM operation.
type Opcode byte

// Constants
const (
	OpConstant Opcode = iota // push constants[operand]
	OpNil                    // push nil
	OpTrue                   // push true
	OpFalse                  // push false
)

// Equality and comparison
const (
	OpEqual Opcode = iota + 0x10 // pop 2, push structural equality
	OpNotEqual
	OpGreater // pop 2 numbers, push bool
	OpGreaterEqual
	OpLess
	OpLessEqual
)

// Arithmetic
const (
	OpAdd Opcode = iota + 0x20 // pop 2 numbers, push sum
	OpSubtract
	OpMultiply
	OpDivide
)

// Unary and control
const (
	OpNot    Opcode = iota + 0x30 // pop 1, push logical not via truthiness
	OpNegate                      // pop 1 number, push negation
	OpReturn                      // halt; top of stack is the result
)

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name        string // human-readable name
	HasOperand  bool   // carries a constant-pool index
	StackEffect int    // net effect on stack depth
}

var opcodeTable = map[Opcode]OpcodeInfo{
	OpConstant: {"CONSTANT", true, 1},
	OpNil:      {"NIL", false, 1},
	OpTrue:     {"TRUE", false, 1},
	OpFalse:    {"FALSE", false, 1},

	OpEqual:        {"EQUAL", false, -1},
	OpNotEqual:     {"NOT_EQUAL", false, -1},
	OpGreater:      {"GREATER", false, -1},
	OpGreaterEqual: {"GREATER_EQUAL", false, -1},
	OpLess:         {"LESS", false, -1},
	OpLessEqual:    {"LESS_EQUAL", false, -1},

	OpAdd:      {"ADD", false, -1},
	OpSubtract: {"SUBTRACT", false, -1},
	OpMultiply: {"MULTIPLY", false, -1},
	OpDivide:   {"DIVIDE", false, -1},

	OpNot:    {"NOT", false, 0},
	OpNegate: {"NEGATE", false, 0},
	OpReturn: {"RETURN", false, -1},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// ---------------------------------------------------------------------------
// Instruction: opcode plus inline operand
// ---------------------------------------------------------------------------

// Instruction is one decoded VM operation. Operands ride inside the
// instruction value instead of trailing it in a raw byte stream, so dispatch
// never re-parses operand bytes.
type Instruction struct {
	Op Opcode

	// Const is the constant-pool index. Meaningful only for OpConstant.
	Const int
}

// Simple builds an operand-free instruction.
func Simple(op Opcode) Instruction {
	return Instruction{Op: op}
}

// LoadConstant builds an OpConstant instruction referencing pool slot index.
func LoadConstant(index int) Instruction {
	return Instruction{Op: OpConstant, Const: index}
}

// ---------------------------------------------------------------------------
// Chunk: instructions, constant pool, line table
// ---------------------------------------------------------------------------

// MaxConstants is the size of a chunk's constant pool, fixed by the one-byte
// operand space of the serialized instruction format.
const MaxConstants = 256

// Chunk is one compiled unit: an instruction sequence, its constant pool,
// and a parallel table mapping each instruction to its source line.
type Chunk struct {
	code      []Instruction
	constants []Value
	lines     []int
}

// NewChunk creates an empty chunk.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Emit appends an instruction and its originating source line in lockstep.
func (c *Chunk) Emit(instr Instruction, line int) {
	c.code = append(c.code, instr)
	c.lines = append(c.lines, line)
}

// AddConstant appends v to the constant pool and returns its index.
// ok is false if the pool is full; the caller must fail compilation rather
// than truncate the index.
func (c *Chunk) AddConstant(v Value) (index int, ok bool) {
	if len(c.constants) >= MaxConstants {
		return 0, false
	}
	c.constants = append(c.constants, v)
	return len(c.constants) - 1, true
}

// Len returns the number of instructions.
func (c *Chunk) Len() int {
	return len(c.code)
}

// At returns the instruction at offset, with ok reporting whether the
// offset is in bounds. All VM fetches go through this accessor.
func (c *Chunk) At(offset int) (Instruction, bool) {
	if offset < 0 || offset >= len(c.code) {
		return Instruction{}, false
	}
	return c.code[offset], true
}

// LineAt returns the source line for the instruction at offset, or 0 if the
// offset is out of bounds.
func (c *Chunk) LineAt(offset int) int {
	if offset < 0 || offset >= len(c.lines) {
		return 0
	}
	return c.lines[offset]
}

// ConstantAt returns the pool value at index.
func (c *Chunk) ConstantAt(index int) (Value, bool) {
	if index < 0 || index >= len(c.constants) {
		return Value{}, false
	}
	return c.constants[index], true
}

// Code returns the instruction sequence.
func (c *Chunk) Code() []Instruction {
	return c.code
}

// Constants returns the constant pool.
func (c *Chunk) Constants() []Value {
	return c.constants
}

// Lines returns the per-instruction line table.
func (c *Chunk) Lines() []int {
	return c.lines
}
