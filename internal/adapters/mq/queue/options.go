// Package queue provides a bounded in-memory queue that drops the oldest
// element instead of blocking the producer.
package queue

// Option applies a configuration option to a Ring.
type Option func(*config)

type config struct {
	capacity int
	name     string
}

// WithCapacity sets the maximum number of buffered elements.
func WithCapacity(capacity int) Option {
	return func(c *config) {
		if capacity > 0 {
			c.capacity = capacity
		}
	}
}

// WithName labels the queue in metrics.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}
