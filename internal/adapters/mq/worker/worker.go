// Package worker delivers queued score pushes to the bot platform.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gsbelarus/tetrisbot/internal/domain/model"
	"github.com/gsbelarus/tetrisbot/pkg/logger"
	"github.com/gsbelarus/tetrisbot/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount = 2
	defaultPushTimeout = 15 * time.Second
)

// Pusher sends one score to the bot platform.
type Pusher interface {
	PushScore(ctx context.Context, p model.ScorePush) error
}

// Queue defines how workers receive pushes.
type Queue interface {
	Dequeue() <-chan model.ScorePush
}

// Worker processes pushes until its queue is drained or ctx is cancelled.
type Worker interface {
	// Run starts the worker loop. It returns once the queue channel is
	// closed and drained, or ctx is cancelled.
	Run(ctx context.Context)
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue       Queue
	pusher      Pusher
	name        string
	pushTimeout time.Duration

	processed *atomic.Int64
	failed    *atomic.Int64
	done      chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, pusher Pusher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       queue,
		pusher:      pusher,
		name:        "worker",
		pushTimeout: defaultPushTimeout,
		processed:   new(atomic.Int64),
		failed:      new(atomic.Int64),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run implements Worker.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	pushes := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-pushes:
			if !ok {
				return
			}
			if err := w.process(ctx, p); err != nil {
				w.logger.Error(ctx, "score push failed",
					logger.UserID(p.UserID),
					logger.ChatID(p.Context.ChatID),
					logger.Error(err),
				)
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, p model.ScorePush) error { //nolint:gocritic // hugeParam: received by value from the channel
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	pushCtx, cancel := context.WithTimeout(ctx, w.pushTimeout)
	defer cancel()

	if err := w.pusher.PushScore(pushCtx, p); err != nil {
		w.failed.Add(1)
		metrics.RecordErrorByComponent("worker", "push_failed")
		return fmt.Errorf("push score for user %d: %w", p.UserID, err)
	}
	w.processed.Add(1)
	return nil
}

// Pool runs several workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	processed atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. Non-positive counts use the
// default.
func NewPool(workerCount int, queue Queue, pusher Pusher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(queue, pusher, wopts...)
		w.processed = &p.processed
		w.failed = &p.failed
		p.workers[i] = w
	}
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Processed returns the number of pushes delivered.
func (p *Pool) Processed() int64 {
	return p.processed.Load()
}

// Failed returns the number of pushes that returned an error.
func (p *Pool) Failed() int64 {
	return p.failed.Load()
}

// Shutdown closes the queue and waits for workers to drain it, or for ctx to
// expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
	}
	return nil
}
