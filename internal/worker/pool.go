// Package worker runs background jobs on a small bounded pool.
package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
	"github.com/localfirst-ai/hybrid-assistant/pkg/metrics"
)

// ErrQueueFull is returned when the job queue cannot accept more work.
var ErrQueueFull = errors.New("worker queue is full")

// Job is a unit of background work. Jobs receive the pool's base context,
// which is cancelled on shutdown.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool is a fixed-size worker pool over a bounded queue. Submission never
// blocks: a full queue rejects the job so request handlers can answer 503
// instead of hanging.
type Pool struct {
	jobs    chan Job
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	logger  *logger.Logger
	started bool
	mu      sync.Mutex
}

// NewPool creates a pool with the given worker count and queue depth.
func NewPool(workers, queueDepth int, log *logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 1 {
		queueDepth = 1
	}
	p := &Pool{
		jobs:   make(chan Job, queueDepth),
		logger: log,
	}
	p.start(workers)
	return p
}

func (p *Pool) start(workers int) {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.started = true

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		if ctx.Err() != nil {
			metrics.MediaJobsTotal.WithLabelValues("dropped").Inc()
			continue
		}
		if err := job.Run(ctx); err != nil {
			metrics.MediaJobsTotal.WithLabelValues("failed").Inc()
			p.logger.Error("background job failed",
				zap.String("job", job.Name),
				zap.Int("worker", id),
				zap.Error(err),
			)
			continue
		}
		metrics.MediaJobsTotal.WithLabelValues("completed").Inc()
	}
}

// Submit enqueues a job without blocking.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return errors.New("pool is shut down")
	}

	select {
	case p.jobs <- job:
		metrics.MediaJobsTotal.WithLabelValues("queued").Inc()
		return nil
	default:
		metrics.MediaJobsTotal.WithLabelValues("rejected").Inc()
		return ErrQueueFull
	}
}

// Shutdown stops accepting work, lets queued jobs drain, and waits for the
// workers to exit.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
}
