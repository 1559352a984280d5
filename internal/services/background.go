package services

import (
	"context"
	"fmt"
	"leadchat-backend/internal/metrics"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Background runs detached tasks that must outlive the request that spawned them.
// Each task gets its own deadline, at most `workers` run at once, and errors or
// panics end only that task.
type Background struct {
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewBackground(workers int, logger *slog.Logger) *Background {
	if workers < 1 {
		workers = 1
	}
	return &Background{
		sem:    semaphore.NewWeighted(int64(workers)),
		logger: logger.With("component", "Background"),
	}
}

// Go starts fn on a fresh context bounded by timeout. It never blocks the caller.
// The timeout also covers time spent waiting for a free worker.
func (b *Background) Go(name string, timeout time.Duration, fn func(ctx context.Context) error) {
	b.wg.Add(1)
	metrics.BackgroundTaskStarted()
	go func() {
		defer b.wg.Done()
		defer metrics.BackgroundTaskFinished()

		var ctx context.Context
		var cancel context.CancelFunc
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(context.Background(), timeout)
		} else {
			ctx, cancel = context.WithCancel(context.Background())
		}
		defer cancel()

		if err := b.sem.Acquire(ctx, 1); err != nil {
			b.logger.Warn("Background task dropped before start", "task", name, "error", err)
			return
		}
		defer b.sem.Release(1)

		if err := b.run(ctx, name, fn); err != nil {
			b.logger.Warn("Background task failed", "task", name, "error", err)
		}
	}()
}

func (b *Background) run(ctx context.Context, name string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Background task panicked", "task", name, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic in %s: %v", name, r)
		}
	}()
	return fn(ctx)
}

// Wait blocks until every started task has finished or ctx ends.
func (b *Background) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
	}
}
