// Package repository keeps the recent history of admission decisions.
package repository

import (
	"context"

	"github.com/okian/stadu/internal/domain/model"
)

// Store provides read/write access to processed events.
type Store interface {
	// Append records pe as the newest event, evicting the oldest when full.
	Append(ctx context.Context, pe model.ProcessedEvent)

	// Recent returns up to limit events, newest first.
	// Returns ErrInvalidLimit when limit is not positive.
	Recent(ctx context.Context, limit int) ([]model.ProcessedEvent, error)

	// Get returns the retained event with the given id.
	// Returns ErrNotFound if it was never recorded or has been evicted.
	Get(ctx context.Context, id string) (model.ProcessedEvent, error)

	// Count returns the number of retained events.
	Count(ctx context.Context) int

	// Total returns the number of events ever appended.
	Total(ctx context.Context) int64
}
