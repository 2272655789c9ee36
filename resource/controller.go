// Package resource bounds the cost of batch analysis: memory reserved for
// solver state, concurrent workers, method throughput and snapshot IO.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for estimated solver memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxWorkers is the maximum number of methods solved concurrently.
	// If 0, defaults to 1.
	MaxWorkers int64

	// MethodsPerSec throttles how fast methods are started. If 0, unlimited.
	MethodsPerSec float64

	// IOLimitBytesPerSec is the maximum snapshot throughput. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller hands out memory, worker slots and rate budget.
// A nil *Controller grants everything.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	workers *semaphore.Weighted

	methodLimiter *rate.Limiter
	ioLimiter     *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	c := &Controller{
		cfg:     cfg,
		workers: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.MethodsPerSec > 0 {
		c.methodLimiter = rate.NewLimiter(rate.Limit(cfg.MethodsPerSec), max(1, int(cfg.MethodsPerSec)))
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the limits the controller was built with.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{MaxWorkers: 1}
	}
	return c.cfg
}

// clamp caps a reservation at the hard limit so that a single oversized
// method can still run alone.
func (c *Controller) clamp(bytes int64) int64 {
	if c.memSem != nil && bytes > c.cfg.MemoryLimitBytes {
		return c.cfg.MemoryLimitBytes
	}
	return bytes
}

// AcquireMemory reserves bytes and returns the amount actually reserved,
// which must be passed to ReleaseMemory. It blocks until the reservation
// fits or ctx is canceled.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) (int64, error) {
	if c == nil || bytes <= 0 {
		return 0, nil
	}

	bytes = c.clamp(bytes)
	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return 0, err
		}
	}

	c.memUsed.Add(bytes)
	return bytes, nil
}

// TryAcquireMemory reserves bytes without blocking.
func (c *Controller) TryAcquireMemory(bytes int64) (int64, bool) {
	if c == nil || bytes <= 0 {
		return 0, true
	}

	bytes = c.clamp(bytes)
	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return 0, false
	}

	c.memUsed.Add(bytes)
	return bytes, true
}

// ReleaseMemory returns a reservation.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the currently reserved bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireWorker reserves a worker slot, blocking while all are busy.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.workers.Acquire(ctx, 1)
}

// TryAcquireWorker reserves a worker slot without blocking.
func (c *Controller) TryAcquireWorker() bool {
	if c == nil {
		return true
	}
	return c.workers.TryAcquire(1)
}

// ReleaseWorker frees a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workers.Release(1)
}

// WaitMethod blocks until the method rate allows one more method.
func (c *Controller) WaitMethod(ctx context.Context) error {
	if c == nil || c.methodLimiter == nil {
		return nil
	}
	return c.methodLimiter.Wait(ctx)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the burst are split.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
