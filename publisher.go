package qsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/queueworks/qsub/queue"
)

// Publisher sends message bodies to a queue's primary or error channel.
//
// A publish is a single attempt: no retry is performed at this layer. Safe
// for concurrent use whenever the underlying queue.Client is.
type Publisher struct {
	client queue.Client
	logger *slog.Logger
}

// NewPublisher creates a publisher over the given queue-service client.
func NewPublisher(client queue.Client) *Publisher {
	return &Publisher{
		client: client,
		logger: slog.Default().With("component", "qsub.publisher"),
	}
}

// WithLogger sets a custom logger.
func (p *Publisher) WithLogger(l *slog.Logger) *Publisher {
	if l != nil {
		p.logger = l
	}
	return p
}

// Publish sends body to the descriptor's primary queue and returns the
// delivery ID. Failures wrap ErrDeliver.
func (p *Publisher) Publish(ctx context.Context, desc QueueDescriptor, body string) (string, error) {
	return p.send(ctx, desc.Name(), body)
}

// PublishError sends body to the descriptor's error queue and returns the
// delivery ID. Failures wrap ErrDeliver.
func (p *Publisher) PublishError(ctx context.Context, desc QueueDescriptor, body string) (string, error) {
	return p.send(ctx, desc.ErrorName(), body)
}

func (p *Publisher) send(ctx context.Context, queueName, body string) (string, error) {
	id, err := p.client.SendMessage(ctx, queueName, body)
	if err != nil {
		p.logger.Error("publish failed", "queue", queueName, "error", err)
		return "", fmt.Errorf("queue %q: %w", queueName, errors.Join(ErrDeliver, err))
	}
	p.logger.Debug("published", "queue", queueName, "delivery_id", id)
	return id, nil
}
