package server

import (
	"sync"
	"testing"
)

func TestWorkerDo(t *testing.T) {
	w := NewWorker()
	defer w.Stop()

	result, err := w.Do(func() interface{} { return 42 })
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if result.(int) != 42 {
		t.Errorf("result = %v, want 42", result)
	}
}

func TestWorkerRecoversPanic(t *testing.T) {
	w := NewWorker()
	defer w.Stop()

	_, err := w.Do(func() interface{} { panic("boom") })
	if err == nil {
		t.Fatal("expected error from panicking function")
	}
	if err.Error() != "boom" {
		t.Errorf("err = %q, want %q", err.Error(), "boom")
	}

	// The worker survives the panic and keeps serving
	result, err := w.Do(func() interface{} { return "ok" })
	if err != nil {
		t.Fatalf("Do after panic: %v", err)
	}
	if result.(string) != "ok" {
		t.Errorf("result = %v", result)
	}
}

func TestWorkerSerializes(t *testing.T) {
	w := NewWorker()
	defer w.Stop()

	// Concurrent submissions must never overlap on the worker goroutine.
	var active, peak int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = w.Do(func() interface{} {
				mu.Lock()
				active++
				if active > peak {
					peak = active
				}
				mu.Unlock()

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Errorf("peak concurrency on worker = %d, want 1", peak)
	}
}
