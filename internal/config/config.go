// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// FeedURL is the WebSocket address of the entry-event feed.
	FeedURL string `koanf:"feed_url"`

	// AutoConnect opens the feed at startup.
	AutoConnect bool `koanf:"auto_connect"`

	// EventBufferSize bounds the inbound drop-oldest buffer.
	EventBufferSize int `koanf:"event_buffer_size"`

	// WorkerCount sets the number of consumer goroutines.
	WorkerCount int `koanf:"worker_count"`

	// EventLogSize is how many processed events are retained.
	EventLogSize int `koanf:"event_log_size"`

	BlockCapacity int     `koanf:"block_capacity"`
	LockThreshold float64 `koanf:"lock_threshold"`

	// Reconnect delay is min(initial*factor^attempt, max).
	BackoffInitialMS int     `koanf:"backoff_initial_ms"`
	BackoffFactor    float64 `koanf:"backoff_factor"`
	BackoffMaxMS     int     `koanf:"backoff_max_ms"`

	HandshakeTimeoutMS int `koanf:"handshake_timeout_ms"`
	// ReadTimeoutMS is a per-message deadline; 0 disables it.
	ReadTimeoutMS int `koanf:"read_timeout_ms"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		FeedURL:            "ws://localhost:8081/ws",
		AutoConnect:        true,
		EventBufferSize:    64,
		WorkerCount:        2,
		EventLogSize:       500,
		BlockCapacity:      20,
		LockThreshold:      0.7,
		BackoffInitialMS:   1000,
		BackoffFactor:      2.0,
		BackoffMaxMS:       30000,
		HandshakeTimeoutMS: 5000,
		ReadTimeoutMS:      0,
	}
}

// BackoffInitial returns the first reconnect delay.
func (c *Config) BackoffInitial() time.Duration {
	return time.Duration(c.BackoffInitialMS) * time.Millisecond
}

// BackoffMax returns the reconnect delay ceiling.
func (c *Config) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxMS) * time.Millisecond
}

// HandshakeTimeout returns the WebSocket handshake bound.
func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.HandshakeTimeoutMS) * time.Millisecond
}

// ReadTimeout returns the per-message read deadline.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}
