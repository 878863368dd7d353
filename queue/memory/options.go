package memory

import (
	"log/slog"
	"time"
)

var (
	// DefaultVisibilityTimeout is how long a received message stays hidden
	// before it becomes eligible for redelivery.
	DefaultVisibilityTimeout = 30 * time.Second

	// DefaultBatchSize is the maximum number of messages returned by a
	// single ReceiveMessages call.
	DefaultBatchSize = 10
)

// Option configures the in-memory client
type Option func(*Client)

// WithVisibilityTimeout sets the redelivery window for received messages
func WithVisibilityTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.visibility = d
		}
	}
}

// WithBatchSize sets the maximum receive batch size
func WithBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithClock sets the time source. Tests use this to expire visibility
// windows without sleeping.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
