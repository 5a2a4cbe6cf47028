package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// DisassembleChunk returns a full listing of the chunk under a header line.
func DisassembleChunk(c *Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := range c.code {
		b.WriteString(DisassembleInstruction(c, offset))
		b.WriteByte('\n')
	}
	return b.String()
}

// DisassembleInstruction renders the instruction at offset as one line:
// the offset, the source line (or "|" when unchanged from the previous
// instruction), the opcode name, and any operand with its resolved value.
func DisassembleInstruction(c *Chunk, offset int) string {
	instr, ok := c.At(offset)
	if !ok {
		return fmt.Sprintf("%04d  <out of range>", offset)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%04d ", offset)

	line := c.LineAt(offset)
	if offset > 0 && line == c.LineAt(offset-1) {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(&b, "%4d ", line)
	}

	if instr.Op == OpConstant {
		if v, ok := c.ConstantAt(instr.Const); ok {
			fmt.Fprintf(&b, "%s %d '%s'", instr.Op.Name(), instr.Const, v)
		} else {
			fmt.Fprintf(&b, "%s %d <bad index>", instr.Op.Name(), instr.Const)
		}
		return b.String()
	}

	b.WriteString(instr.Op.Name())
	return b.String()
}
