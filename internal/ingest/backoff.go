package ingest

import (
	"math"
	"time"
)

// Default reconnection backoff.
const (
	DefaultInitialBackoff = time.Second
	DefaultBackoffFactor  = 2.0
	DefaultMaxBackoff     = 30 * time.Second
)

// Backoff computes the wait before reconnect attempt n as
// min(Initial*Factor^n, Max).
type Backoff struct {
	Initial time.Duration
	Factor  float64
	Max     time.Duration
}

// DefaultBackoff returns 1s doubling up to 30s.
func DefaultBackoff() Backoff {
	return Backoff{Initial: DefaultInitialBackoff, Factor: DefaultBackoffFactor, Max: DefaultMaxBackoff}
}

// Delay returns the wait for the given zero-based attempt.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(b.Initial) * math.Pow(b.Factor, float64(attempt))
	if math.IsInf(d, 0) || math.IsNaN(d) || d >= float64(b.Max) {
		return b.Max
	}
	return time.Duration(d)
}
