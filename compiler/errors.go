package compiler

import (
	"fmt"
	"strings"
)

// Diagnostic is one compile-time error with its source location.
type Diagnostic struct {
	Message string
	Line    int
	Lexeme  string // offending token text; empty at end of input
}

// String renders the diagnostic the way the CLI reports it.
func (d Diagnostic) String() string {
	if d.Lexeme == "" {
		return fmt.Sprintf("[line %d] Error at end: %s", d.Line, d.Message)
	}
	return fmt.Sprintf("[line %d] Error at '%s': %s", d.Line, d.Lexeme, d.Message)
}

// CompileError aggregates the diagnostics recorded during one compilation.
// It always carries at least one.
type CompileError struct {
	Diagnostics []Diagnostic
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = d.String()
	}
	return strings.Join(msgs, "\n")
}
