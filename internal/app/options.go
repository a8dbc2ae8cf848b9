package service

import (
	"github.com/okian/stadu/internal/adapters/transport/ws"
	"github.com/okian/stadu/internal/domain/policy"
	"github.com/okian/stadu/internal/ingest"
	"github.com/okian/stadu/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of consumer goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithEventBufferSize sets the inbound drop-oldest buffer size.
func WithEventBufferSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.bufferSize = size
		}
	}
}

// WithEventLogSize sets how many processed events are retained.
func WithEventLogSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.eventLogSize = size
		}
	}
}

// WithPolicy sets block capacity and the lock threshold.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithBackoff sets the reconnection schedule.
func WithBackoff(b ingest.Backoff) Option {
	return func(s *Service) { s.backoff = b }
}

// WithTransport sets the feed transport directly.
func WithTransport(t ingest.Transport) Option {
	return func(s *Service) {
		if t != nil {
			s.transport = t
		}
	}
}

// WithFeedURL dials the feed over a WebSocket at url.
func WithFeedURL(url string, opts ...ws.Option) Option {
	return func(s *Service) {
		if url != "" {
			s.feedURL = url
			s.transport = ws.New(url, opts...)
		}
	}
}

// WithAutoConnect connects to the feed as soon as the service starts.
func WithAutoConnect(on bool) Option {
	return func(s *Service) { s.autoConnect = on }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
