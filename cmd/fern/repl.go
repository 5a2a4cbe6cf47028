package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fernlang/fern/compiler"
	"github.com/fernlang/fern/config"
	"github.com/fernlang/fern/history"
	"github.com/fernlang/fern/vm"
)

// runREPL reads expressions a line at a time, evaluating each and printing
// the result or diagnostic. Lines starting with ':' are REPL commands.
func runREPL(cfg *config.Config, store *history.Store, trace bool) {
	fmt.Println("fern REPL - expressions only; Ctrl-D or :quit to exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(cfg.REPL.Prompt)
		if !scanner.Scan() {
			fmt.Println()
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			if replCommand(line, store) {
				return
			}
			continue
		}

		evalLine(line, store, trace)
	}
}

// replCommand handles a ':' command, returning true if the REPL should
// exit.
func replCommand(line string, store *history.Store) bool {
	switch line {
	case ":quit", ":q":
		return true
	case ":history":
		printHistory(store)
	case ":help":
		fmt.Println("Commands: :history  :quit  :help")
	default:
		fmt.Printf("Unknown command %s (try :help)\n", line)
	}
	return false
}

func evalLine(line string, store *history.Store, trace bool) {
	chunk, err := compiler.Compile(line)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		record(store, line, err.Error(), false)
		return
	}

	machine := vm.NewVM()
	if trace {
		fmt.Fprint(os.Stderr, vm.DisassembleChunk(chunk, "repl"))
		machine.SetTrace(os.Stderr)
	}

	value, err := machine.Run(chunk)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		record(store, line, err.Error(), false)
		return
	}

	fmt.Println(value)
	record(store, line, value.String(), true)
}

func record(store *history.Store, source, result string, ok bool) {
	if store == nil {
		return
	}
	if err := store.Record(source, result, ok); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func printHistory(store *history.Store) {
	if store == nil {
		fmt.Println("History is disabled")
		return
	}
	entries, err := store.Recent(10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("No history yet")
		return
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		marker := " "
		if !e.OK {
			marker = "!"
		}
		fmt.Printf("%s %s  =>  %s\n", marker, e.Source, e.Result)
	}
}
