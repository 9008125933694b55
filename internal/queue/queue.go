// Package queue provides the FIFO channels that connect the pipeline stages.
//
// A Queue carries items from exactly one producer to exactly one consumer.
// The watcher goroutine hands events over with TryPut, which never blocks;
// the processing side drains with Get and acknowledges each item with Done,
// so Join can wait for a full drain.
package queue

import (
	"context"
	"sync"
)

// DefaultCapacity is used when a Queue is created with a non-positive size.
const DefaultCapacity = 100

// Queue is a bounded FIFO channel with consumption accounting.
//
// Every item that enters via Put or TryPut must be matched by exactly one
// Done call after it has been dequeued. Skipping Done stalls Join; calling
// it more often than items were dequeued panics, like an unbalanced
// sync.WaitGroup would.
type Queue[T any] struct {
	ch chan T

	mu         sync.Mutex
	unfinished int
	idle       chan struct{} // closed while unfinished == 0
}

// New creates a queue with the given capacity.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	idle := make(chan struct{})
	close(idle)
	return &Queue[T]{
		ch:   make(chan T, capacity),
		idle: idle,
	}
}

// Put enqueues v, blocking while the queue is full (backpressure).
// It returns the context error if ctx is cancelled while waiting.
func (q *Queue[T]) Put(ctx context.Context, v T) error {
	q.track(1)
	select {
	case q.ch <- v:
		return nil
	case <-ctx.Done():
		q.track(-1)
		return ctx.Err()
	}
}

// TryPut enqueues v without blocking. It reports false when the queue is
// full. Safe to call from a different goroutine than the consumer's.
func (q *Queue[T]) TryPut(v T) bool {
	q.track(1)
	select {
	case q.ch <- v:
		return true
	default:
		q.track(-1)
		return false
	}
}

// Get dequeues the next item, blocking while the queue is empty.
// The caller owns the item and must call Done once it is fully handled.
func (q *Queue[T]) Get(ctx context.Context) (T, error) {
	select {
	case v := <-q.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done marks one previously dequeued item as fully consumed.
func (q *Queue[T]) Done() {
	q.track(-1)
}

// Join blocks until every item ever enqueued has been marked Done,
// or ctx is cancelled.
func (q *Queue[T]) Join(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of items currently buffered (not yet dequeued).
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// track adjusts the unfinished-item count and maintains the idle channel.
func (q *Queue[T]) track(delta int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.unfinished == 0 && delta > 0 {
		q.idle = make(chan struct{})
	}
	q.unfinished += delta
	if q.unfinished < 0 {
		panic("queue: Done called more times than items were enqueued")
	}
	if q.unfinished == 0 {
		close(q.idle)
	}
}
