package pipeline

import (
	"context"
	"sync"
	"time"
)

// Queue is an unbounded FIFO gated by a minimum-fill threshold: WaitReady
// does not release until the queue has held threshold items at least once,
// so playback starts against a cushion rather than a cold buffer. One
// producer pushes, exactly one consumer pops.
type Queue[T any] struct {
	name      string
	threshold int

	mu     sync.Mutex
	items  []T
	closed bool

	readyOnce sync.Once
	ready     chan struct{}
	wake      chan struct{} // 1-slot signal for the single consumer
}

// NewQueue creates a queue named for error reporting that releases
// WaitReady at the given depth.
func NewQueue[T any](name string, threshold int) *Queue[T] {
	return &Queue[T]{
		name:      name,
		threshold: threshold,
		ready:     make(chan struct{}),
		wake:      make(chan struct{}, 1),
	}
}

// Push appends v and wakes the consumer.
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	depth := len(q.items)
	q.mu.Unlock()

	if depth >= q.threshold {
		q.readyOnce.Do(func() { close(q.ready) })
	}
	q.signal()
}

// Close marks the end of production. Buffered items remain poppable; once
// drained, Pop fails with ErrQueueClosed. WaitReady releases even below the
// threshold so a source shorter than the cushion still plays.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.readyOnce.Do(func() { close(q.ready) })
	q.signal()
}

// WaitReady blocks until the fill threshold has been reached once, the
// queue has been closed, or ctx is done.
func (q *Queue[T]) WaitReady(ctx context.Context) error {
	select {
	case <-q.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop dequeues the oldest item, blocking up to timeout across the whole
// call. A timeout fails with StarvationError; a drained closed queue fails
// with ErrQueueClosed.
func (q *Queue[T]) Pop(ctx context.Context, timeout time.Duration) (T, error) {
	var zero T
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return v, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return zero, ErrQueueClosed
		}

		select {
		case <-q.wake:
		case <-timer.C:
			return zero, &StarvationError{Queue: q.name, Timeout: timeout}
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Len reports the current depth.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// signal is non-blocking: a full wake slot already guarantees the consumer
// will re-check the queue.
func (q *Queue[T]) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
