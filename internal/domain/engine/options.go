package engine

import (
	"time"

	"github.com/okian/stadu/internal/domain/assignment"
	"github.com/okian/stadu/internal/domain/policy"
	"github.com/okian/stadu/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithPolicy sets the capacity and lock policy. The initial state is built from it.
func WithPolicy(p *policy.Policy) Option {
	return func(e *Engine) {
		if p != nil {
			e.policy = p
		}
	}
}

// WithStrategy replaces the assignment strategy.
func WithStrategy(s assignment.Strategy) Option {
	return func(e *Engine) {
		if s != nil {
			e.strategy = s
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock sets the time source used for ProcessedEvent timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator sets the ProcessedEvent id source.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}
