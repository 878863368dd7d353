package qsub

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// DefaultEmptyPollBackoff is how long the engine waits before polling again
// after an empty batch. This is the only backoff the engine applies; it
// guards against tight-loop polling of an empty queue.
var DefaultEmptyPollBackoff = 10 * time.Second

// engineOptions holds engine configuration (unexported)
type engineOptions struct {
	filters        Chain
	listeners      []Listener
	backoff        time.Duration
	limiter        *rate.Limiter
	logger         *slog.Logger
	metricsEnabled bool
	tracingEnabled bool
	deleter        DeleteFunc
	document       DocumentFunc
}

func newEngineOptions(opts ...Option) *engineOptions {
	o := &engineOptions{
		backoff:        DefaultEmptyPollBackoff,
		logger:         slog.Default(),
		metricsEnabled: true,
		tracingEnabled: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures an Engine
type Option func(*engineOptions)

// WithFilters appends filters to the engine's chain, applied in the order
// given. The chain is immutable after construction.
func WithFilters(filters ...Filter) Option {
	return func(o *engineOptions) {
		o.filters = append(o.filters, filters...)
	}
}

// WithListeners appends observers notified of every received message, in
// registration order. The listener set is immutable after construction.
func WithListeners(listeners ...Listener) Option {
	return func(o *engineOptions) {
		o.listeners = append(o.listeners, listeners...)
	}
}

// WithEmptyPollBackoff sets the delay before re-polling after an empty
// batch or a failed receive.
func WithEmptyPollBackoff(d time.Duration) Option {
	return func(o *engineOptions) {
		if d > 0 {
			o.backoff = d
		}
	}
}

// WithPollLimit caps the poll rate with a token bucket, independent of the
// empty-poll backoff. Useful when many engines share one service quota.
func WithPollLimit(limit rate.Limit, burst int) Option {
	return func(o *engineOptions) {
		o.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithDeleter overrides how the engine resolves messages against the source
// queue. The default calls queue.Client.DeleteMessage with the envelope's
// receipt handle.
func WithDeleter(fn DeleteFunc) Option {
	return func(o *engineOptions) {
		if fn != nil {
			o.deleter = fn
		}
	}
}

// WithErrorDocument overrides the error-document shape published on
// processing failure. The default is DefaultDocument.
func WithErrorDocument(fn DocumentFunc) Option {
	return func(o *engineOptions) {
		if fn != nil {
			o.document = fn
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics enables/disables OpenTelemetry metrics. Default is true.
func WithMetrics(enabled bool) Option {
	return func(o *engineOptions) {
		o.metricsEnabled = enabled
	}
}

// WithTracing enables/disables OpenTelemetry tracing. Default is true.
func WithTracing(enabled bool) Option {
	return func(o *engineOptions) {
		o.tracingEnabled = enabled
	}
}
