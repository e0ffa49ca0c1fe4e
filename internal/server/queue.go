package server

import (
	"context"
	"sync"
)

// queue is an unbounded FIFO with a single consumer. Closing it acts as the
// stream's end marker: items already enqueued still drain, then Get reports
// done. No backpressure on purpose; the bridge tolerates slow backend calls
// at the cost of memory growth under misbehaving clients.
type queue[T any] struct {
	mu     sync.Mutex
	items  []T
	wake   chan struct{}
	closed bool
}

func newQueue[T any]() *queue[T] {
	return &queue[T]{wake: make(chan struct{}, 1)}
}

// Put appends an item; returns false once the queue is closed.
func (q *queue[T]) Put(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()
	q.signal()
	return true
}

// Get blocks until an item is available. It returns ok=false when the queue
// has been closed and drained, or when ctx is done; callers that need to
// tell the two apart check ctx.Err().
func (q *queue[T]) Get(ctx context.Context) (T, bool) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return v, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return zero, false
		}
		select {
		case <-ctx.Done():
			return zero, false
		case <-q.wake:
		}
	}
}

// Close is idempotent.
func (q *queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *queue[T]) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
