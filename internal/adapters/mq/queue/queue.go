// Package queue holds pending score pushes between the HTTP handlers and the
// workers that deliver them to the bot platform.
package queue

import (
	"context"
	"sync"

	"github.com/gsbelarus/tetrisbot/internal/domain/model"
	"github.com/gsbelarus/tetrisbot/pkg/metrics"
)

const defaultQueueCapacity = 1000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a push without blocking. It returns ErrQueueFull when the
	// queue is at capacity and ErrQueueClosed after Close.
	Enqueue(ctx context.Context, p model.ScorePush) error

	// Dequeue returns the channel workers read from. It is closed by Close
	// once drained.
	Dequeue() <-chan model.ScorePush

	// Len returns the current number of queued pushes.
	Len() int

	// Close stops accepting pushes. Queued pushes remain readable.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	pushes   chan model.ScorePush
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}

	q.pushes = make(chan model.ScorePush, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, p model.ScorePush) error { //nolint:gocritic // hugeParam: pushed by value onto the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.pushes <- p:
		metrics.UpdateQueueSize(len(q.pushes))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrQueueFull
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue() <-chan model.ScorePush {
	return q.pushes
}

// Len implements Queue.
func (q *InMemoryQueue) Len() int {
	size := len(q.pushes)
	metrics.UpdateQueueSize(size)
	return size
}

// Capacity returns the maximum number of queued pushes.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close implements Queue. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.pushes)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
