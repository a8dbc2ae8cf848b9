package repository

// Option applies a configuration option to the EventLog.
type Option func(*EventLog)

// WithCapacity sets how many events are retained.
func WithCapacity(n int) Option {
	return func(l *EventLog) {
		if n > 0 {
			l.capacity = n
		}
	}
}
