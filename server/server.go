// Package server wraps the interpreter in two tooling surfaces: a Connect
// RPC evaluation service and an LSP server for editor diagnostics. All
// interpreter work is serialized through a single worker goroutine.
package server

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/fernlang/fern/history"

	_ "github.com/tliron/commonlog/simple"
)

// Server is the fern evaluation server. It serves the EvalService
// procedures over Connect, speaking JSON or CBOR depending on the
// client's content type.
type Server struct {
	worker  *Worker
	mux     *http.ServeMux
	log     commonlog.Logger
	history *history.Store
}

// Option configures a Server.
type Option func(*Server)

// WithHistory records every evaluation in the given store.
func WithHistory(store *history.Store) Option {
	return func(s *Server) { s.history = store }
}

// New creates a Server with its handlers registered.
func New(opts ...Option) *Server {
	s := &Server{
		worker: NewWorker(),
		mux:    http.NewServeMux(),
		log:    commonlog.GetLogger("fern.server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	svc := NewEvalService(s.worker, s.history)
	codecs := []connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithCodec(newCBORCodec()),
	}

	s.mux.Handle(EvaluateProcedure, connect.NewUnaryHandler(
		EvaluateProcedure, svc.Evaluate, codecs...,
	))
	s.mux.Handle(CheckSyntaxProcedure, connect.NewUnaryHandler(
		CheckSyntaxProcedure, svc.CheckSyntax, codecs...,
	))
	s.mux.Handle(DisassembleProcedure, connect.NewUnaryHandler(
		DisassembleProcedure, svc.Disassemble, codecs...,
	))

	return s
}

// Handler returns the HTTP handler serving all procedures. Exposed so
// tests can mount it on an httptest server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address. The address
// should be in the form "host:port" or ":port".
func (s *Server) ListenAndServe(addr string) error {
	s.log.Noticef("fern evaluation server listening on %s", addr)
	s.log.Infof("  Evaluate: http://%s%s", addr, EvaluateProcedure)
	return http.ListenAndServe(addr, s.mux)
}

// Stop shuts down the worker.
func (s *Server) Stop() {
	s.worker.Stop()
}
