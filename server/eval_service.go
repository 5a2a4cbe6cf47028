package server

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/fernlang/fern/compiler"
	"github.com/fernlang/fern/history"
	"github.com/fernlang/fern/vm"
)

// Procedure paths for the evaluation service.
const (
	EvaluateProcedure    = "/fern.v1.EvalService/Evaluate"
	CheckSyntaxProcedure = "/fern.v1.EvalService/CheckSyntax"
	DisassembleProcedure = "/fern.v1.EvalService/Disassemble"
)

// EvalService implements the fern.v1.EvalService Connect handlers.
type EvalService struct {
	worker  *Worker
	history *history.Store // may be nil
	log     commonlog.Logger
}

// NewEvalService creates an EvalService. history may be nil to disable
// recording.
func NewEvalService(worker *Worker, store *history.Store) *EvalService {
	return &EvalService{
		worker:  worker,
		history: store,
		log:     commonlog.GetLogger("fern.server"),
	}
}

// Evaluate compiles and executes a fern expression.
func (s *EvalService) Evaluate(
	ctx context.Context,
	req *connect.Request[EvaluateRequest],
) (*connect.Response[EvaluateResponse], error) {
	source := req.Msg.Source
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	result, err := s.worker.Do(func() interface{} {
		return s.evaluate(source)
	})
	if err != nil {
		s.log.Errorf("evaluate: %v", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(result.(*EvaluateResponse)), nil
}

// CheckSyntax validates source code without executing it.
func (s *EvalService) CheckSyntax(
	ctx context.Context,
	req *connect.Request[CheckSyntaxRequest],
) (*connect.Response[CheckSyntaxResponse], error) {
	source := req.Msg.Source
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	result, err := s.worker.Do(func() interface{} {
		if err := compileOnly(source); err != nil {
			return &CheckSyntaxResponse{Valid: false, Diagnostics: diagnosticsFor(err)}
		}
		return &CheckSyntaxResponse{Valid: true}
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(result.(*CheckSyntaxResponse)), nil
}

// Disassemble compiles source and returns its bytecode listing.
func (s *EvalService) Disassemble(
	ctx context.Context,
	req *connect.Request[DisassembleRequest],
) (*connect.Response[DisassembleResponse], error) {
	source := req.Msg.Source
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	result, err := s.worker.Do(func() interface{} {
		chunk, err := compiler.Compile(source)
		if err != nil {
			return &DisassembleResponse{Success: false, Diagnostics: diagnosticsFor(err)}
		}
		return &DisassembleResponse{
			Success: true,
			Listing: vm.DisassembleChunk(chunk, "expression"),
		}
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(result.(*DisassembleResponse)), nil
}

// evaluate compiles and runs source, returning an EvaluateResponse.
// Must be called on the worker goroutine.
func (s *EvalService) evaluate(source string) *EvaluateResponse {
	chunk, err := compiler.Compile(source)
	if err != nil {
		s.record(source, err.Error(), false)
		return &EvaluateResponse{Success: false, Diagnostics: diagnosticsFor(err)}
	}

	value, err := vm.NewVM().Run(chunk)
	if err != nil {
		s.record(source, err.Error(), false)
		return &EvaluateResponse{Success: false, Fault: faultFor(err)}
	}

	display := value.String()
	s.record(source, display, true)
	return &EvaluateResponse{Success: true, Result: display}
}

func (s *EvalService) record(source, result string, ok bool) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(source, result, ok); err != nil {
		s.log.Errorf("history: %v", err)
	}
}

func compileOnly(source string) error {
	_, err := compiler.Compile(source)
	return err
}

// diagnosticsFor converts a compile error into wire diagnostics.
func diagnosticsFor(err error) []Diagnostic {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		diags := make([]Diagnostic, len(ce.Diagnostics))
		for i, d := range ce.Diagnostics {
			diags[i] = Diagnostic{Message: d.Message, Line: d.Line, Lexeme: d.Lexeme}
		}
		return diags
	}
	return []Diagnostic{{Message: err.Error()}}
}

// faultFor converts a runtime error into its wire form.
func faultFor(err error) *Fault {
	var re *vm.RuntimeError
	if errors.As(err, &re) {
		return &Fault{Kind: re.Kind.String(), Message: re.Message, Line: re.Line}
	}
	return &Fault{Kind: vm.InternalFault.String(), Message: err.Error()}
}
