// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package parallel runs independent jobs on a fixed set of goroutines.
//
// The demo renders frames one at a time on the GPU, then hands the CPU side
// (downsampling, encoding, writing) to a WorkerPool so files are written
// while the next frame renders.
//
// Thread safety: WorkerPool is safe for concurrent use.
package parallel

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Submit after Close or Wait.
var ErrClosed = errors.New("parallel: pool closed")

// WorkerPool executes submitted jobs and collects their errors.
type WorkerPool struct {
	workers int
	queue   chan func() error

	wg sync.WaitGroup

	// sendMu guards queue against a send racing its close.
	sendMu sync.RWMutex
	closed bool

	mu   sync.Mutex
	errs []error

	done atomic.Int64
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &WorkerPool{
		workers: workers,
		// 2x workers keeps producers from stalling on short jobs.
		queue: make(chan func() error, workers*2),
	}
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for job := range p.queue {
		if err := job(); err != nil {
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()
		}
		p.done.Add(1)
	}
}

// Submit queues job, blocking while every worker is busy and the queue is
// full.
func (p *WorkerPool) Submit(job func() error) error {
	if job == nil {
		return nil
	}
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	p.queue <- job
	return nil
}

// Wait stops accepting work, waits for queued jobs and returns their errors
// joined in completion order. Wait is safe to call more than once.
func (p *WorkerPool) Wait() error {
	p.sendMu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.sendMu.Unlock()
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.errs...)
}

// Close is Wait without the error.
func (p *WorkerPool) Close() { _ = p.Wait() }

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int { return p.workers }

// Completed returns the number of jobs that have finished.
func (p *WorkerPool) Completed() int { return int(p.done.Load()) }
