package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment conventions.
const (
	EnvPrefix     = "STADU_"
	EnvConfigFile = "STADU_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if STADU_CONFIG is set
//  3. env (prefix STADU_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: file %s: %w", ErrLoadConfig, path, err)
		}
	}

	// STADU_FEED_URL -> feed_url. Keys are flat; underscores are kept.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.AutoConnect && strings.TrimSpace(c.FeedURL) == "":
		return fmt.Errorf("%w: feed_url must not be empty when auto_connect is on", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.EventBufferSize <= 0:
		return fmt.Errorf("%w: event_buffer_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.EventLogSize <= 0:
		return fmt.Errorf("%w: event_log_size must be positive", ErrInvalidConfig)
	case c.BlockCapacity <= 0:
		return fmt.Errorf("%w: block_capacity must be positive", ErrInvalidConfig)
	case c.LockThreshold <= 0 || c.LockThreshold > 1:
		return fmt.Errorf("%w: lock_threshold must be in (0,1], got %v", ErrInvalidConfig, c.LockThreshold)
	case c.BackoffInitialMS <= 0:
		return fmt.Errorf("%w: backoff_initial_ms must be positive", ErrInvalidConfig)
	case c.BackoffFactor < 1:
		return fmt.Errorf("%w: backoff_factor must be >= 1, got %v", ErrInvalidConfig, c.BackoffFactor)
	case c.BackoffMaxMS < c.BackoffInitialMS:
		return fmt.Errorf("%w: backoff_max_ms must be >= backoff_initial_ms", ErrInvalidConfig)
	case c.HandshakeTimeoutMS <= 0:
		return fmt.Errorf("%w: handshake_timeout_ms must be positive", ErrInvalidConfig)
	case c.ReadTimeoutMS < 0:
		return fmt.Errorf("%w: read_timeout_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}
