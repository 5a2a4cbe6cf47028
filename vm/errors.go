package vm

import "fmt"

// FaultKind classifies a runtime error.
type FaultKind int

const (
	// TypeMismatch is an operator applied to operands of the wrong variant.
	// It is an ordinary user-facing fault.
	TypeMismatch FaultKind = iota

	// InternalFault is a compiler/VM contract breach: a bad constant index,
	// an out-of-range instruction pointer, a wrong final stack depth. It
	// indicates a bug in the pipeline, not a mistake in the program.
	InternalFault
)

// String returns the fault kind's wire name.
func (k FaultKind) String() string {
	switch k {
	case TypeMismatch:
		return "type-mismatch"
	case InternalFault:
		return "internal"
	default:
		return fmt.Sprintf("fault(%d)", int(k))
	}
}

// RuntimeError is a fault raised during execution. Line is the source line
// of the faulting instruction, read from the chunk's line table.
type RuntimeError struct {
	Kind    FaultKind
	Message string
	Line    int
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("[line %d] %s", e.Line, e.Message)
}
