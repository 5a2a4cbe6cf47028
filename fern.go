// Package fern is a small expression language compiled to bytecode and run
// on a stack machine. The pipeline is scanner → Pratt compiler → chunk → VM;
// this package ties the two entry points together for callers that just
// want a result.
package fern

import (
	"github.com/fernlang/fern/compiler"
	"github.com/fernlang/fern/vm"
)

// Eval compiles and runs source, returning the expression's value. The
// error is a *compiler.CompileError or a *vm.RuntimeError; compile errors
// mean execution was never attempted.
func Eval(source string) (vm.Value, error) {
	chunk, err := compiler.Compile(source)
	if err != nil {
		return vm.Nil, err
	}
	return vm.NewVM().Run(chunk)
}

// Check compiles source without running it, returning any compile error.
func Check(source string) error {
	_, err := compiler.Compile(source)
	return err
}
