package server

// Wire types for the fern.v1.EvalService procedures. Handlers are plain
// structs encoded by the JSON and CBOR codecs; there is no protobuf schema.

// Diagnostic is one compile-time error.
type Diagnostic struct {
	Message string `json:"message"`
	Line    int    `json:"line"`
	Lexeme  string `json:"lexeme,omitempty"`
}

// Fault is a runtime error.
type Fault struct {
	Kind    string `json:"kind"` // "type-mismatch" or "internal"
	Message string `json:"message"`
	Line    int    `json:"line"`
}

// EvaluateRequest asks for a source expression to be compiled and run.
type EvaluateRequest struct {
	Source string `json:"source"`
}

// EvaluateResponse carries the result value, or whichever of the two error
// taxonomies applied. Diagnostics and Fault are mutually exclusive: compile
// errors mean execution was never attempted.
type EvaluateResponse struct {
	Success     bool         `json:"success"`
	Result      string       `json:"result,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	Fault       *Fault       `json:"fault,omitempty"`
}

// CheckSyntaxRequest asks for source to be compiled without running it.
type CheckSyntaxRequest struct {
	Source string `json:"source"`
}

// CheckSyntaxResponse reports whether source compiled cleanly.
type CheckSyntaxResponse struct {
	Valid       bool         `json:"valid"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// DisassembleRequest asks for the bytecode listing of a compiled source.
type DisassembleRequest struct {
	Source string `json:"source"`
}

// DisassembleResponse carries the disassembly, or the compile diagnostics
// that prevented one.
type DisassembleResponse struct {
	Success     bool         `json:"success"`
	Listing     string       `json:"listing,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}
