package redis

import (
	"log/slog"
	"time"
)

var (
	// DefaultKeyPrefix namespaces all queue keys in Redis.
	DefaultKeyPrefix = "qsub:"

	// DefaultVisibilityTimeout is how long a received message stays hidden
	// before the reclaim pass makes it deliverable again.
	DefaultVisibilityTimeout = 30 * time.Second

	// DefaultBatchSize is the maximum number of messages returned by a
	// single ReceiveMessages call.
	DefaultBatchSize = 10
)

// Option configures the Redis backend
type Option func(*Backend)

// WithKeyPrefix sets the Redis key prefix
func WithKeyPrefix(p string) Option {
	return func(b *Backend) {
		if p != "" {
			b.prefix = p
		}
	}
}

// WithVisibilityTimeout sets the redelivery window for received messages
func WithVisibilityTimeout(d time.Duration) Option {
	return func(b *Backend) {
		if d > 0 {
			b.visibility = d
		}
	}
}

// WithBatchSize sets the maximum receive batch size
func WithBatchSize(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithClock sets the time source. Tests use this to expire visibility
// windows without sleeping.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}
