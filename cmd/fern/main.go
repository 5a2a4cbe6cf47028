// Fern CLI - the main entry point for evaluating fern expressions
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/fernlang/fern/compiler"
	"github.com/fernlang/fern/config"
	"github.com/fernlang/fern/history"
	"github.com/fernlang/fern/server"
	"github.com/fernlang/fern/vm"

	_ "github.com/tliron/commonlog/simple"
)

// Exit codes follow the sysexits convention: 65 for malformed input
// (compile error), 70 for an internal software fault (runtime error),
// 74 for an I/O error reading the source file.
const (
	exitUsage   = 64
	exitCompile = 65
	exitRuntime = 70
	exitIO      = 74
)

func main() {
	expr := flag.String("e", "", "Evaluate the given expression and exit")
	interactive := flag.Bool("i", false, "Start interactive REPL")
	serveMode := flag.Bool("serve", false, "Start the evaluation server (Connect HTTP, JSON/CBOR)")
	serveAddr := flag.String("addr", "", "Evaluation server address (overrides fern.toml)")
	lspMode := flag.Bool("lsp", false, "Start the LSP server on stdio")
	trace := flag.Bool("trace", false, "Print disassembly and trace execution to stderr")
	noConfig := flag.Bool("no-config", false, "Skip loading fern.toml")
	verbosity := flag.Int("v", 0, "Log verbosity")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fern [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles and evaluates a fern expression from a file, -e, or the REPL.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  fern                       # Start REPL\n")
		fmt.Fprintf(os.Stderr, "  fern -e '(1 + 2) * 3'      # Evaluate an expression\n")
		fmt.Fprintf(os.Stderr, "  fern expr.fern --trace     # Run a file with execution tracing\n")
		fmt.Fprintf(os.Stderr, "  fern --serve --addr :8080  # Start the evaluation server\n")
		fmt.Fprintf(os.Stderr, "  fern --lsp                 # Start the LSP server on stdio\n")
	}
	flag.Parse()

	cfg := config.Default()
	if !*noConfig {
		loaded, err := config.FindAndLoad(".")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			cfg = loaded
		}
	}

	level := *verbosity
	if level == 0 {
		level = cfg.Log.Verbosity
	}
	commonlog.Configure(level, nil)

	switch {
	case *expr != "":
		os.Exit(runSource(*expr, *trace))

	case *lspMode:
		if err := server.NewLSP().Run(); err != nil {
			fmt.Fprintf(os.Stderr, "LSP error: %v\n", err)
			os.Exit(1)
		}

	case *serveMode:
		addr := cfg.Server.Addr
		if *serveAddr != "" {
			addr = *serveAddr
		}
		store := openHistory(cfg)
		var opts []server.Option
		if store != nil {
			defer store.Close()
			opts = append(opts, server.WithHistory(store))
		}
		srv := server.New(opts...)
		defer srv.Stop()
		if err := srv.ListenAndServe(addr); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}

	case flag.NArg() > 0:
		if flag.NArg() > 1 {
			flag.Usage()
			os.Exit(exitUsage)
		}
		data, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitIO)
		}
		os.Exit(runSource(string(data), *trace))

	default:
		_ = interactive // REPL is also the no-argument default
		store := openHistory(cfg)
		if store != nil {
			defer store.Close()
		}
		runREPL(cfg, store, *trace)
	}
}

// runSource compiles and runs one expression, printing the result or the
// diagnostic, and returns the process exit code.
func runSource(source string, trace bool) int {
	chunk, err := compiler.Compile(source)
	if err != nil {
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			for _, d := range ce.Diagnostics {
				fmt.Fprintln(os.Stderr, d)
			}
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return exitCompile
	}

	if trace {
		fmt.Fprint(os.Stderr, vm.DisassembleChunk(chunk, "expression"))
	}

	machine := vm.NewVM()
	if trace {
		machine.SetTrace(os.Stderr)
	}

	value, err := machine.Run(chunk)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitRuntime
	}

	fmt.Println(value)
	return 0
}

// openHistory opens the history store from the config, or returns nil with
// a warning if it cannot be opened. History is a convenience, not a
// requirement.
func openHistory(cfg *config.Config) *history.Store {
	path := cfg.HistoryPath()
	if path == "" {
		return nil
	}
	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: history disabled: %v\n", err)
		return nil
	}
	return store
}
