package server

import "fmt"

// evalRequest represents a unit of work to be executed on the interpreter
// goroutine.
type evalRequest struct {
	fn   func() interface{}
	done chan evalResult
}

// evalResult holds the return value from an interpreter operation.
type evalResult struct {
	value interface{}
	err   error
}

// Worker serializes compile-and-run work through a single goroutine. The
// interpreter pipeline is single-threaded by contract; every RPC and LSP
// handler must go through the worker so concurrent requests never overlap,
// and so internal panics surface as errors instead of killing the server.
type Worker struct {
	requests chan evalRequest
	quit     chan struct{}
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker() *Worker {
	w := &Worker{
		requests: make(chan evalRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs a function, recovering from panics.
func (w *Worker) execute(fn func() interface{}) evalResult {
	var result evalResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("%v", r)
			}
		}()
		result.value = fn()
	}()
	return result
}

// Do submits a function for execution on the worker goroutine and blocks
// until it completes. Returns the result and any error (including panics).
func (w *Worker) Do(fn func() interface{}) (interface{}, error) {
	req := evalRequest{
		fn:   fn,
		done: make(chan evalResult, 1),
	}
	w.requests <- req
	result := <-req.done
	return result.value, result.err
}

// Stop shuts down the worker goroutine.
func (w *Worker) Stop() {
	close(w.quit)
}
