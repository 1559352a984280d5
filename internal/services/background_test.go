package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackgroundRecoversFromPanic(t *testing.T) {
	bg := NewBackground(1, testLogger())
	var ran atomic.Int32

	bg.Go("explode", time.Second, func(ctx context.Context) error {
		panic("boom")
	})
	bg.Go("after", time.Second, func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, bg.Wait(ctx))
	assert.Equal(t, int32(1), ran.Load())
}

func TestBackgroundBoundsConcurrency(t *testing.T) {
	bg := NewBackground(2, testLogger())
	var active, peak atomic.Int32

	for i := 0; i < 6; i++ {
		bg.Go("work", time.Second, func(ctx context.Context) error {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return nil
		})
	}

	require.NoError(t, bg.Wait(context.Background()))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestBackgroundTaskTimeout(t *testing.T) {
	bg := NewBackground(1, testLogger())
	var sawDeadline atomic.Bool

	bg.Go("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		sawDeadline.Store(true)
		return ctx.Err()
	})

	require.NoError(t, bg.Wait(context.Background()))
	assert.True(t, sawDeadline.Load())
}

func TestBackgroundDeadlineFollowsTimeout(t *testing.T) {
	bg := NewBackground(2, testLogger())
	var bounded, unbounded atomic.Bool

	bg.Go("bounded", time.Minute, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		bounded.Store(ok)
		return nil
	})
	bg.Go("unbounded", 0, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		unbounded.Store(!ok && ctx.Err() == nil)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, bg.Wait(ctx))
	assert.True(t, bounded.Load())
	assert.True(t, unbounded.Load())
}
