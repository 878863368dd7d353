// Package memory provides an in-process queue.Client implementation with
// at-least-once semantics: visibility timeouts, redelivery of undeleted
// messages, and receipt handles that are invalidated on redelivery.
//
// It is intended for tests and local development. Messages are lost on
// process exit; for durable queues use the redis backend or a managed
// service adapter.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/queueworks/qsub/queue"
)

// Client implements queue.Client backed by process memory.
type Client struct {
	mu         sync.Mutex
	queues     map[string]*state
	closed     bool
	visibility time.Duration
	batchSize  int
	now        func() time.Time
	logger     *slog.Logger
}

// state holds one queue's messages.
type state struct {
	ready    []*entry
	inflight map[string]*entry // keyed by receipt handle
}

type entry struct {
	id       string
	body     string
	metadata map[string]string
	receipt  string
	deadline time.Time
}

// New creates an in-memory client.
func New(opts ...Option) *Client {
	c := &Client{
		queues:     make(map[string]*state),
		visibility: DefaultVisibilityTimeout,
		batchSize:  DefaultBatchSize,
		now:        time.Now,
		logger:     slog.Default().With("component", "queue.memory"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureQueue creates the queue if absent. Safe to call repeatedly.
func (c *Client) EnsureQueue(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return queue.ErrClosed
	}
	if _, ok := c.queues[name]; !ok {
		c.queues[name] = &state{inflight: make(map[string]*entry)}
	}
	return nil
}

// SendMessage enqueues body and returns the assigned message ID.
func (c *Client) SendMessage(ctx context.Context, queueName, body string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", queue.ErrClosed
	}
	q, ok := c.queues[queueName]
	if !ok {
		return "", fmt.Errorf("%w: %q", queue.ErrUnknownQueue, queueName)
	}
	e := &entry{id: queue.NewID(), body: body}
	q.ready = append(q.ready, e)
	return e.id, nil
}

// ReceiveMessages returns up to the configured batch size of visible
// messages. Undeleted messages whose visibility window expired are moved
// back to the ready list first, so they are redelivered here with fresh
// receipt handles.
func (c *Client) ReceiveMessages(ctx context.Context, queueName string) ([]queue.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, queue.ErrClosed
	}
	q, ok := c.queues[queueName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", queue.ErrUnknownQueue, queueName)
	}
	c.reclaim(q)

	n := len(q.ready)
	if n > c.batchSize {
		n = c.batchSize
	}
	if n == 0 {
		return nil, nil
	}
	batch := make([]queue.Message, 0, n)
	for _, e := range q.ready[:n] {
		e.receipt = queue.NewID()
		e.deadline = c.now().Add(c.visibility)
		q.inflight[e.receipt] = e
		batch = append(batch, queue.Message{
			ID:            e.id,
			Body:          e.body,
			ReceiptHandle: e.receipt,
			Metadata:      e.metadata,
		})
	}
	q.ready = q.ready[n:]
	return batch, nil
}

// DeleteMessage removes the delivery identified by receiptHandle. A handle
// that was already deleted or invalidated by redelivery yields
// queue.ErrBadReceipt.
func (c *Client) DeleteMessage(ctx context.Context, queueName, receiptHandle string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return queue.ErrClosed
	}
	q, ok := c.queues[queueName]
	if !ok {
		return fmt.Errorf("%w: %q", queue.ErrUnknownQueue, queueName)
	}
	c.reclaim(q)
	if _, ok := q.inflight[receiptHandle]; !ok {
		return fmt.Errorf("%w: %q", queue.ErrBadReceipt, receiptHandle)
	}
	delete(q.inflight, receiptHandle)
	return nil
}

// reclaim moves expired in-flight entries back to the ready list. Their old
// receipt handles become invalid. Caller must hold c.mu.
func (c *Client) reclaim(q *state) {
	now := c.now()
	for receipt, e := range q.inflight {
		if !e.deadline.After(now) {
			delete(q.inflight, receipt)
			e.receipt = ""
			q.ready = append(q.ready, e)
			c.logger.Debug("message visibility expired, requeued", "message_id", e.id)
		}
	}
}

// Close shuts the client down. Subsequent calls fail with queue.ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Len reports how many messages are held for the queue, ready and in-flight
// combined. Useful in tests.
func (c *Client) Len(queueName string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.queues[queueName]
	if !ok {
		return 0
	}
	return len(q.ready) + len(q.inflight)
}

// Bodies returns a snapshot of all message bodies held for the queue, ready
// first, then in-flight in unspecified order. Useful in tests.
func (c *Client) Bodies(queueName string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.queues[queueName]
	if !ok {
		return nil
	}
	bodies := make([]string, 0, len(q.ready)+len(q.inflight))
	for _, e := range q.ready {
		bodies = append(bodies, e.body)
	}
	for _, e := range q.inflight {
		bodies = append(bodies, e.body)
	}
	return bodies
}

// Compile-time interface check
var _ queue.Client = (*Client)(nil)
