// Package resource bounds the memory, concurrency and ray throughput used by
// index builds and batch queries.
//
// One Controller is typically shared by every engine of a process so that
// concurrent snapshot loads compete for the same memory budget.
package resource

import (
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimit is returned when a reservation would exceed the configured
// memory limit.
var ErrMemoryLimit = errors.New("memory limit exceeded")

// Config holds resource limits. Zero values mean "unlimited" except for
// MaxWorkers, which defaults to 1.
type Config struct {
	MemoryLimitBytes int64   // hard cap on reserved index memory
	MaxWorkers       int64   // build and batch worker slots
	RaysPerSecond    float64 // batch throughput cap

	// RayBurst is the burst size of the ray limiter. Defaults to
	// max(1, RaysPerSecond).
	RayBurst int
}

// Controller tracks shared resources. A nil *Controller imposes no limits,
// so callers never need to check for one.
type Controller struct {
	memLimit int64
	mem      *semaphore.Weighted // nil when unlimited
	memUsed  atomic.Int64

	workers int64
	slots   *semaphore.Weighted

	rays *rate.Limiter // nil when unlimited
}

// NewController creates a controller enforcing cfg.
func NewController(cfg Config) *Controller {
	c := &Controller{
		memLimit: max(cfg.MemoryLimitBytes, 0),
		workers:  max(cfg.MaxWorkers, 1),
	}
	c.slots = semaphore.NewWeighted(c.workers)

	if c.memLimit > 0 {
		c.mem = semaphore.NewWeighted(c.memLimit)
	}

	if cfg.RaysPerSecond > 0 {
		burst := cfg.RayBurst
		if burst <= 0 {
			burst = max(1, int(cfg.RaysPerSecond))
		}
		c.rays = rate.NewLimiter(rate.Limit(cfg.RaysPerSecond), burst)
	}

	return c
}

// ReserveMemory books n bytes without blocking. It fails with
// ErrMemoryLimit when the reservation does not fit the remaining budget.
func (c *Controller) ReserveMemory(n int64) error {
	if c == nil || n <= 0 {
		return nil
	}
	if c.mem != nil && !c.mem.TryAcquire(n) {
		return fmt.Errorf("%w: %d bytes requested, %d of %d in use",
			ErrMemoryLimit, n, c.memUsed.Load(), c.memLimit)
	}
	c.memUsed.Add(n)
	return nil
}

// ReleaseMemory returns n bytes booked by ReserveMemory.
func (c *Controller) ReleaseMemory(n int64) {
	if c == nil || n <= 0 {
		return
	}
	if c.mem != nil {
		c.mem.Release(n)
	}
	c.memUsed.Add(-n)
}

// MemoryUsage returns the bytes currently reserved.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured cap, or 0 when memory is unlimited.
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.memLimit
}

// MaxWorkers returns the worker slot count, or 0 for a nil controller.
func (c *Controller) MaxWorkers() int {
	if c == nil {
		return 0
	}
	return int(c.workers)
}

// TryAcquireWorker claims a worker slot if one is free. Parallel builds use
// it to decide whether a subtree may run on its own goroutine.
func (c *Controller) TryAcquireWorker() bool {
	if c == nil {
		return true
	}
	return c.slots.TryAcquire(1)
}

// ReleaseWorker frees a slot claimed by TryAcquireWorker.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.slots.Release(1)
}
