// Package queue buffers activity submissions between the HTTP intake and
// the worker pool. The implementation is an in-memory bounded queue.
package queue

import (
	"context"
	"sync"

	"github.com/lumina-social/lumina/internal/domain/model"
	"github.com/lumina-social/lumina/pkg/metrics"
)

const defaultCapacity = 100_000

// Submission is one activity awaiting valuation, bound to the wallet
// that performed it.
type Submission struct {
	Wallet   string
	Activity model.Activity
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a submission to the queue.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, s Submission) bool

	// Dequeue returns a channel receiving submissions as they become
	// available. The channel closes when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Submission

	// Len returns the current number of queued submissions.
	Len(ctx context.Context) int

	// Close shuts down the queue. After closing, no new submissions can
	// be enqueued; already-queued submissions are still delivered.
	Close() error

	// IsClosed reports whether the queue has been closed.
	IsClosed() bool
}

// MemoryQueue implements Queue on a buffered channel.
type MemoryQueue struct {
	submissions chan Submission
	capacity    int

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue creates a bounded in-memory queue.
func NewMemoryQueue(opts ...Option) *MemoryQueue {
	q := &MemoryQueue{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.submissions = make(chan Submission, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a submission to the queue without blocking.
func (q *MemoryQueue) Enqueue(ctx context.Context, s Submission) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return false
	}

	select {
	case q.submissions <- s:
		metrics.RecordQueueEnqueue()
		q.observeSize()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		return false
	default:
		// queue full: the caller decides how to signal backpressure
		metrics.RecordQueueEnqueueError()
		return false
	}
}

// Dequeue returns a channel receiving submissions as they become available.
func (q *MemoryQueue) Dequeue(ctx context.Context) <-chan Submission {
	out := make(chan Submission)
	go func() {
		defer close(out)
		for {
			select {
			case s, ok := <-q.submissions:
				if !ok {
					return
				}
				select {
				case out <- s:
					metrics.RecordQueueDequeue()
					q.observeSize()
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued submissions.
func (q *MemoryQueue) Len(ctx context.Context) int {
	size := len(q.submissions)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close shuts down the queue.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.submissions)
	q.closed = true

	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *MemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *MemoryQueue) observeSize() {
	size := len(q.submissions)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
