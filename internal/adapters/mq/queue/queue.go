// Package queue provides a bounded in-memory queue that drops the oldest
// element instead of blocking the producer.
//
// Producers that must never stall (a socket read loop, the engine publishing
// to slow observers) push into a Ring; when it is full the oldest unconsumed
// element is discarded and counted.
package queue

import (
	"context"
	"sync"

	"github.com/okian/stadu/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 64
	defaultName     = "queue"
)

// Queue is the consumer side of a Ring.
type Queue[T any] interface {
	// Enqueue adds v, evicting the oldest element when full.
	// Returns false only when the queue is closed.
	Enqueue(ctx context.Context, v T) bool

	// Dequeue blocks until an element is available. It returns ErrClosed
	// once the queue is closed and drained, or ctx.Err() on cancellation.
	Dequeue(ctx context.Context) (T, error)

	// Len returns the current number of queued elements.
	Len(ctx context.Context) int

	// Close stops accepting elements. Buffered elements can still be drained.
	Close() error
}

// Ring implements Queue over a fixed circular buffer.
type Ring[T any] struct {
	mu      sync.Mutex
	buf     []T
	head    int
	size    int
	closed  bool
	dropped uint64
	// ready is signalled (non-blocking) whenever an element arrives or the ring closes.
	ready chan struct{}
	name  string
}

// NewRing creates a ring with configuration options.
func NewRing[T any](opts ...Option) *Ring[T] {
	cfg := config{capacity: defaultCapacity, name: defaultName}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Ring[T]{
		buf:   make([]T, cfg.capacity),
		ready: make(chan struct{}, 1),
		name:  cfg.name,
	}

	metrics.UpdateQueueCapacity(r.name, cfg.capacity)
	metrics.UpdateQueueSize(r.name, 0)
	return r
}

// Enqueue adds v to the tail, evicting the head if the ring is full.
func (r *Ring[T]) Enqueue(_ context.Context, v T) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	if r.size == len(r.buf) {
		var zero T
		r.buf[r.head] = zero
		r.head = (r.head + 1) % len(r.buf)
		r.size--
		r.dropped++
		metrics.RecordQueueDrop(r.name)
	}
	r.buf[(r.head+r.size)%len(r.buf)] = v
	r.size++
	size := r.size
	r.mu.Unlock()

	metrics.RecordQueueEnqueue(r.name)
	metrics.UpdateQueueSize(r.name, size)
	r.signal()
	return true
}

// Dequeue removes and returns the head element.
func (r *Ring[T]) Dequeue(ctx context.Context) (T, error) {
	for {
		if v, ok, err := r.TryDequeue(); ok || err != nil {
			return v, err
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-r.ready:
		}
	}
}

// TryDequeue returns the head element without blocking. ok is false when the
// ring is empty; err is ErrClosed when it is also closed.
func (r *Ring[T]) TryDequeue() (v T, ok bool, err error) {
	r.mu.Lock()
	if r.size == 0 {
		closed := r.closed
		r.mu.Unlock()
		if closed {
			// Keep waking other consumers so they observe the close too.
			r.signal()
			return v, false, ErrClosed
		}
		return v, false, nil
	}
	v = r.buf[r.head]
	var zero T
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.size--
	size := r.size
	r.mu.Unlock()

	if size > 0 {
		// More work left; pass the wake-up on to another consumer.
		r.signal()
	}
	metrics.RecordQueueDequeue(r.name)
	metrics.UpdateQueueSize(r.name, size)
	return v, true, nil
}

// Len returns the current number of queued elements.
func (r *Ring[T]) Len(_ context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Dropped returns how many elements were evicted on overflow.
func (r *Ring[T]) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Close stops accepting elements and wakes blocked consumers.
func (r *Ring[T]) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()
	r.signal()
	return nil
}

// IsClosed returns true if the ring has been closed.
func (r *Ring[T]) IsClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Ring[T]) signal() {
	select {
	case r.ready <- struct{}{}:
	default:
	}
}
