// Package redis provides a queue.Client implementation backed by Redis.
//
// Layout per queue (all keys under a configurable prefix):
//   - {prefix}{name}:ready    list of message IDs awaiting delivery
//   - {prefix}{name}:bodies   hash of message ID -> body
//   - {prefix}{name}:pending  sorted set of receipt handles scored by
//     visibility deadline (unix nanos)
//   - {prefix}{name}:receipts hash of receipt handle -> message ID
//   - {prefix}queues          set of provisioned queue names
//
// A received message's ID moves from the ready list into the pending set
// under a fresh receipt handle. Deleting presents the handle back; a reclaim
// pass run before every receive moves expired pending entries back onto the
// ready list, which invalidates their old handles. This yields the same
// at-least-once, visibility-timeout model a managed queue service provides.
//
// Two consumers reclaiming concurrently may requeue the same expired entry;
// under at-least-once delivery that is an acceptable duplicate, not a loss.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/queueworks/qsub/queue"
)

// Client is the subset of go-redis commands this backend uses.
// *redis.Client, *redis.ClusterClient and redis.UniversalClient satisfy it.
type Client interface {
	SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd
	SIsMember(ctx context.Context, key string, member any) *redis.BoolCmd
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	LPop(ctx context.Context, key string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRem(ctx context.Context, key string, members ...any) *redis.IntCmd
	ZRangeByScore(ctx context.Context, key string, opt *redis.ZRangeBy) *redis.StringSliceCmd
}

// Backend implements queue.Client on top of Redis.
type Backend struct {
	client     Client
	prefix     string
	visibility time.Duration
	batchSize  int
	now        func() time.Time
	logger     *slog.Logger
}

// New creates a Redis-backed queue client.
func New(client Client, opts ...Option) *Backend {
	b := &Backend{
		client:     client,
		prefix:     DefaultKeyPrefix,
		visibility: DefaultVisibilityTimeout,
		batchSize:  DefaultBatchSize,
		now:        time.Now,
		logger:     slog.Default().With("component", "queue.redis"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) queuesKey() string              { return b.prefix + "queues" }
func (b *Backend) readyKey(name string) string    { return b.prefix + name + ":ready" }
func (b *Backend) bodiesKey(name string) string   { return b.prefix + name + ":bodies" }
func (b *Backend) pendingKey(name string) string  { return b.prefix + name + ":pending" }
func (b *Backend) receiptsKey(name string) string { return b.prefix + name + ":receipts" }

// EnsureQueue registers the queue name. SADD is idempotent, so repeated
// calls are harmless.
func (b *Backend) EnsureQueue(ctx context.Context, name string) error {
	if err := b.client.SAdd(ctx, b.queuesKey(), name).Err(); err != nil {
		return fmt.Errorf("ensure queue %q: %w", name, err)
	}
	return nil
}

func (b *Backend) checkQueue(ctx context.Context, name string) error {
	ok, err := b.client.SIsMember(ctx, b.queuesKey(), name).Result()
	if err != nil {
		return fmt.Errorf("check queue %q: %w", name, err)
	}
	if !ok {
		return fmt.Errorf("%w: %q", queue.ErrUnknownQueue, name)
	}
	return nil
}

// SendMessage stores the body and pushes the message ID onto the ready list.
func (b *Backend) SendMessage(ctx context.Context, queueName, body string) (string, error) {
	if err := b.checkQueue(ctx, queueName); err != nil {
		return "", err
	}
	id := queue.NewID()
	if err := b.client.HSet(ctx, b.bodiesKey(queueName), id, body).Err(); err != nil {
		return "", fmt.Errorf("store body: %w", err)
	}
	if err := b.client.RPush(ctx, b.readyKey(queueName), id).Err(); err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}
	return id, nil
}

// ReceiveMessages reclaims expired pending entries, then pops up to the
// configured batch size from the ready list, assigning each message a fresh
// receipt handle with a visibility deadline.
func (b *Backend) ReceiveMessages(ctx context.Context, queueName string) ([]queue.Message, error) {
	if err := b.checkQueue(ctx, queueName); err != nil {
		return nil, err
	}
	if err := b.reclaim(ctx, queueName); err != nil {
		return nil, err
	}

	var batch []queue.Message
	for len(batch) < b.batchSize {
		id, err := b.client.LPop(ctx, b.readyKey(queueName)).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return batch, fmt.Errorf("pop ready: %w", err)
		}
		body, err := b.client.HGet(ctx, b.bodiesKey(queueName), id).Result()
		if errors.Is(err, redis.Nil) {
			// body lost (manual cleanup or expiry); skip the orphaned ID
			b.logger.Warn("dropping message without body", "queue", queueName, "message_id", id)
			continue
		}
		if err != nil {
			return batch, fmt.Errorf("load body: %w", err)
		}

		receipt := queue.NewID()
		deadline := b.now().Add(b.visibility)
		if err := b.client.HSet(ctx, b.receiptsKey(queueName), receipt, id).Err(); err != nil {
			b.unclaim(ctx, queueName, id, "")
			return batch, fmt.Errorf("track receipt: %w", err)
		}
		if err := b.client.ZAdd(ctx, b.pendingKey(queueName), redis.Z{
			Score:  float64(deadline.UnixNano()),
			Member: receipt,
		}).Err(); err != nil {
			b.unclaim(ctx, queueName, id, receipt)
			return batch, fmt.Errorf("track deadline: %w", err)
		}
		batch = append(batch, queue.Message{ID: id, Body: body, ReceiptHandle: receipt})
	}
	return batch, nil
}

// DeleteMessage resolves the delivery identified by receiptHandle, removing
// the body and all pending-tracking state.
func (b *Backend) DeleteMessage(ctx context.Context, queueName, receiptHandle string) error {
	if err := b.checkQueue(ctx, queueName); err != nil {
		return err
	}
	id, err := b.client.HGet(ctx, b.receiptsKey(queueName), receiptHandle).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %q", queue.ErrBadReceipt, receiptHandle)
	}
	if err != nil {
		return fmt.Errorf("resolve receipt: %w", err)
	}
	if err := b.client.ZRem(ctx, b.pendingKey(queueName), receiptHandle).Err(); err != nil {
		return fmt.Errorf("clear deadline: %w", err)
	}
	if err := b.client.HDel(ctx, b.receiptsKey(queueName), receiptHandle).Err(); err != nil {
		return fmt.Errorf("clear receipt: %w", err)
	}
	if err := b.client.HDel(ctx, b.bodiesKey(queueName), id).Err(); err != nil {
		return fmt.Errorf("clear body: %w", err)
	}
	return nil
}

// unclaim undoes a partial claim by pushing the popped ID back onto the
// ready list. A message must end up in the ready list or the pending set;
// the reclaim pass only scans pending, so a half-claimed message would
// otherwise be lost for good.
func (b *Backend) unclaim(ctx context.Context, queueName, id, receipt string) {
	if receipt != "" {
		if err := b.client.HDel(ctx, b.receiptsKey(queueName), receipt).Err(); err != nil {
			b.logger.Error("unclaim: clear receipt failed",
				"queue", queueName, "message_id", id, "error", err)
		}
	}
	if err := b.client.RPush(ctx, b.readyKey(queueName), id).Err(); err != nil {
		b.logger.Error("unclaim: requeue failed, message may be stranded",
			"queue", queueName, "message_id", id, "error", err)
	}
}

// reclaim moves pending entries whose visibility deadline passed back onto
// the ready list and drops their receipt handles.
func (b *Backend) reclaim(ctx context.Context, queueName string) error {
	now := strconv.FormatInt(b.now().UnixNano(), 10)
	expired, err := b.client.ZRangeByScore(ctx, b.pendingKey(queueName), &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return fmt.Errorf("scan pending: %w", err)
	}
	for _, receipt := range expired {
		id, err := b.client.HGet(ctx, b.receiptsKey(queueName), receipt).Result()
		if errors.Is(err, redis.Nil) {
			// another consumer reclaimed or deleted it first
			if err := b.client.ZRem(ctx, b.pendingKey(queueName), receipt).Err(); err != nil {
				return fmt.Errorf("clear deadline: %w", err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("resolve receipt: %w", err)
		}
		if err := b.client.ZRem(ctx, b.pendingKey(queueName), receipt).Err(); err != nil {
			return fmt.Errorf("clear deadline: %w", err)
		}
		if err := b.client.HDel(ctx, b.receiptsKey(queueName), receipt).Err(); err != nil {
			return fmt.Errorf("clear receipt: %w", err)
		}
		if err := b.client.RPush(ctx, b.readyKey(queueName), id).Err(); err != nil {
			return fmt.Errorf("requeue: %w", err)
		}
		b.logger.Debug("message visibility expired, requeued", "queue", queueName, "message_id", id)
	}
	return nil
}

// Compile-time interface check
var _ queue.Client = (*Backend)(nil)
