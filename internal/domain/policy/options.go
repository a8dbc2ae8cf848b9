package policy

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithBlockCapacity sets the seats per block.
func WithBlockCapacity(capacity int) Option {
	return func(p *Policy) {
		if capacity > 0 {
			p.blockCapacity = capacity
		}
	}
}

// WithLockThreshold sets the occupancy fraction in (0, 1] that locks a block.
func WithLockThreshold(threshold float64) Option {
	return func(p *Policy) {
		if threshold > 0 && threshold <= 1 {
			p.lockThreshold = threshold
		}
	}
}
