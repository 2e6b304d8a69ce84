package engine

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs ray tasks on a fixed set of goroutines, so a batch of a
// million rays does not start a million goroutines.
type WorkerPool struct {
	workers int
	tasks   chan func()

	mu     sync.RWMutex // held for reading while sending on tasks
	closed atomic.Bool
	wg     sync.WaitGroup

	completed atomic.Int64
	panics    atomic.Int64
}

// NewWorkerPool starts a pool with the given number of goroutines, or
// GOMAXPROCS for workers <= 0. The queue holds two tasks per worker.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	wp := &WorkerPool{
		workers: workers,
		tasks:   make(chan func(), 2*workers),
	}

	wp.wg.Add(workers)
	for range workers {
		go wp.loop()
	}

	return wp
}

func (wp *WorkerPool) loop() {
	defer wp.wg.Done()

	for task := range wp.tasks {
		wp.run(task)
	}
}

// run executes task. A panicking task is counted and does not take the
// worker down.
func (wp *WorkerPool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			wp.panics.Add(1)
		}
		wp.completed.Add(1)
	}()

	task()
}

// Submit queues task, blocking while the queue is full. It fails with
// ErrClosed after Close, or with the context error if ctx is done before the
// task is queued.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed.Load() {
		return ErrClosed
	}

	select {
	case wp.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int { return wp.workers }

// Completed returns the number of tasks that have finished, including
// those that panicked.
func (wp *WorkerPool) Completed() int64 { return wp.completed.Load() }

// Panics returns the number of tasks that panicked.
func (wp *WorkerPool) Panics() int64 { return wp.panics.Load() }

// Close stops accepting tasks, runs the ones already queued and waits for
// the workers to exit. It is idempotent.
func (wp *WorkerPool) Close() {
	if !wp.closed.CompareAndSwap(false, true) {
		return
	}

	wp.mu.Lock()
	close(wp.tasks)
	wp.mu.Unlock()

	wp.wg.Wait()
}
