package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
)

func TestJobsRunAndDrainOnShutdown(t *testing.T) {
	p := NewPool(2, 16, logger.NewNop())

	var ran atomic.Int64
	for i := 0; i < 10; i++ {
		err := p.Submit(Job{
			Name: "count",
			Run: func(ctx context.Context) error {
				ran.Add(1)
				return nil
			},
		})
		require.NoError(t, err)
	}

	p.Shutdown()
	assert.Equal(t, int64(10), ran.Load(), "shutdown must drain queued jobs")
}

func TestFullQueueRejectsInsteadOfBlocking(t *testing.T) {
	p := NewPool(1, 1, logger.NewNop())
	defer p.Shutdown()

	block := make(chan struct{})
	var once sync.Once
	defer once.Do(func() { close(block) })

	// Occupy the single worker.
	require.NoError(t, p.Submit(Job{Name: "blocker", Run: func(ctx context.Context) error {
		<-block
		return nil
	}}))

	// Fill the queue, then expect rejection. The blocker may or may not
	// have been dequeued yet, so accept one or two successful submits.
	var rejected bool
	for i := 0; i < 3; i++ {
		if err := p.Submit(Job{Name: "filler", Run: func(ctx context.Context) error { return nil }}); err != nil {
			assert.ErrorIs(t, err, ErrQueueFull)
			rejected = true
			break
		}
	}
	assert.True(t, rejected, "a bounded queue must eventually reject")

	once.Do(func() { close(block) })
}

func TestFailedJobDoesNotStopWorkers(t *testing.T) {
	p := NewPool(1, 8, logger.NewNop())

	var succeeded atomic.Bool
	require.NoError(t, p.Submit(Job{Name: "boom", Run: func(ctx context.Context) error {
		return errors.New("boom")
	}}))
	require.NoError(t, p.Submit(Job{Name: "after", Run: func(ctx context.Context) error {
		succeeded.Store(true)
		return nil
	}}))

	p.Shutdown()
	assert.True(t, succeeded.Load())
}

func TestSubmitAfterShutdown(t *testing.T) {
	p := NewPool(1, 1, logger.NewNop())
	p.Shutdown()

	err := p.Submit(Job{Name: "late", Run: func(ctx context.Context) error { return nil }})
	assert.Error(t, err)
}
