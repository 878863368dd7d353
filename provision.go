package qsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/queueworks/qsub/queue"
)

// Provisioner ensures both queues named by a descriptor exist.
type Provisioner struct {
	client queue.Client
	logger *slog.Logger
}

// NewProvisioner creates a provisioner over the given queue-service client.
func NewProvisioner(client queue.Client) *Provisioner {
	return &Provisioner{
		client: client,
		logger: slog.Default().With("component", "qsub.provisioner"),
	}
}

// Ensure creates the primary and error queues if absent. It is idempotent:
// ensuring N times has the same effect as ensuring once, and pre-existing
// queues are not an error. Must run before the engine's first poll and
// before any publish. Failures wrap ErrProvision.
func (p *Provisioner) Ensure(ctx context.Context, desc QueueDescriptor) error {
	for _, name := range []string{desc.Name(), desc.ErrorName()} {
		if err := p.client.EnsureQueue(ctx, name); err != nil {
			return fmt.Errorf("queue %q: %w", name, errors.Join(ErrProvision, err))
		}
		p.logger.Debug("queue ensured", "queue", name)
	}
	return nil
}
