// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package parallel

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
)

// =============================================================================
// WorkerPool Creation Tests
// =============================================================================

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
}

func TestWorkerPool_CreateZeroWorkers(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := NewWorkerPool(n)
		if got, want := pool.Workers(), runtime.GOMAXPROCS(0); got != want {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d (GOMAXPROCS)", n, got, want)
		}
		pool.Close()
	}
}

// =============================================================================
// Submit / Wait Tests
// =============================================================================

func TestWorkerPool_RunsEveryJob(t *testing.T) {
	pool := NewWorkerPool(3)

	var counter atomic.Int64
	const jobs = 50
	for range jobs {
		if err := pool.Submit(func() error {
			counter.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	if err := pool.Wait(); err != nil {
		t.Fatalf("Wait returned %v", err)
	}
	if counter.Load() != jobs {
		t.Errorf("ran %d jobs, want %d", counter.Load(), jobs)
	}
	if pool.Completed() != jobs {
		t.Errorf("Completed() = %d, want %d", pool.Completed(), jobs)
	}
}

func TestWorkerPool_CollectsErrors(t *testing.T) {
	pool := NewWorkerPool(2)
	errA := errors.New("a")
	errB := errors.New("b")

	_ = pool.Submit(func() error { return errA })
	_ = pool.Submit(func() error { return nil })
	_ = pool.Submit(func() error { return errB })

	err := pool.Wait()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Wait() = %v, want both job errors", err)
	}
	if pool.Completed() != 3 {
		t.Errorf("Completed() = %d, want 3", pool.Completed())
	}
}

func TestWorkerPool_SubmitAfterWait(t *testing.T) {
	pool := NewWorkerPool(1)
	if err := pool.Wait(); err != nil {
		t.Fatal(err)
	}
	if err := pool.Submit(func() error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit after Wait = %v, want ErrClosed", err)
	}
	// Second Wait must not panic on a closed queue.
	if err := pool.Wait(); err != nil {
		t.Errorf("second Wait = %v", err)
	}
}

func TestWorkerPool_NilJob(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()
	if err := pool.Submit(nil); err != nil {
		t.Errorf("Submit(nil) = %v, want nil", err)
	}
}

func BenchmarkWorkerPool_Submit(b *testing.B) {
	pool := NewWorkerPool(0)
	defer pool.Close()
	for b.Loop() {
		_ = pool.Submit(func() error { return nil })
	}
}
