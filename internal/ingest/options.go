package ingest

import "github.com/okian/stadu/pkg/logger"

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithBackoff replaces the reconnection backoff. Invalid values are ignored.
func WithBackoff(b Backoff) Option {
	return func(p *Pipeline) {
		if b.Initial > 0 && b.Factor >= 1 && b.Max >= b.Initial {
			p.backoff = b
		}
	}
}

// WithBufferSize sets how many decoded events are kept for the consumer
// before the oldest are dropped.
func WithBufferSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.bufferSize = n
		}
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}
