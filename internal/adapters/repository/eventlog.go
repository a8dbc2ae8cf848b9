package repository

import (
	"context"
	"sync"

	"github.com/okian/stadu/internal/domain/model"
	"github.com/okian/stadu/pkg/metrics"
)

// DefaultCapacity is how many processed events the log keeps.
const DefaultCapacity = 500

// EventLog is a bounded, in-memory Store. Older events are overwritten in
// place once capacity is reached.
type EventLog struct {
	mu       sync.RWMutex
	capacity int
	buf      []model.ProcessedEvent
	next     int // slot the next Append writes
	size     int
	total    int64
	byID     map[string]int // id -> slot
}

// NewEventLog creates an empty log.
func NewEventLog(opts ...Option) *EventLog {
	l := &EventLog{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(l)
	}
	l.buf = make([]model.ProcessedEvent, l.capacity)
	l.byID = make(map[string]int, l.capacity)
	metrics.UpdateEventLogSize(0)
	return l
}

// Capacity returns the retention bound.
func (l *EventLog) Capacity() int { return l.capacity }

// Append implements Store.
func (l *EventLog) Append(_ context.Context, pe model.ProcessedEvent) {
	l.mu.Lock()
	if l.size == l.capacity {
		delete(l.byID, l.buf[l.next].ID)
	} else {
		l.size++
	}
	l.buf[l.next] = pe
	if pe.ID != "" {
		l.byID[pe.ID] = l.next
	}
	l.next = (l.next + 1) % l.capacity
	l.total++
	size := l.size
	l.mu.Unlock()

	metrics.UpdateEventLogSize(size)
}

// Recent implements Store.
func (l *EventLog) Recent(_ context.Context, limit int) ([]model.ProcessedEvent, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	n := min(limit, l.size)
	out := make([]model.ProcessedEvent, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, l.buf[(l.next-i+l.capacity)%l.capacity])
	}
	return out, nil
}

// Get implements Store.
func (l *EventLog) Get(_ context.Context, id string) (model.ProcessedEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	slot, ok := l.byID[id]
	if !ok {
		return model.ProcessedEvent{}, ErrNotFound
	}
	return l.buf[slot], nil
}

// Count implements Store.
func (l *EventLog) Count(_ context.Context) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Total implements Store.
func (l *EventLog) Total(_ context.Context) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}
