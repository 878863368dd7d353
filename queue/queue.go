// Package queue defines the capability interface a queue-service client must
// provide for the qsub engine to consume from it.
//
// Backend implementations (memory, redis) should import this package rather
// than the parent qsub package to avoid import cycles.
//
// The interface is deliberately narrow: the engine needs to ensure a queue
// exists, send a body, receive a batch, and delete a single message by its
// receipt handle. Connection management, authentication and retries against
// the service itself belong to the implementation, not to the engine.
package queue

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Client errors. Implementations should wrap these with errors.Join or %w so
// callers can classify failures with errors.Is.
var (
	// ErrClosed is returned once a client has been closed.
	ErrClosed = errors.New("queue client closed")
	// ErrUnknownQueue is returned when the named queue does not exist and
	// EnsureQueue has not been called for it.
	ErrUnknownQueue = errors.New("unknown queue")
	// ErrBadReceipt is returned by DeleteMessage when the receipt handle is
	// not valid: the message was already deleted, or its visibility timeout
	// expired and the handle was superseded by a redelivery.
	ErrBadReceipt = errors.New("invalid receipt handle")
)

// Message is a raw message as received from the queue service.
//
// ReceiptHandle is an opaque capability that must be presented back to
// DeleteMessage to resolve the message. Clients generate a fresh handle for
// every delivery, so a handle from a previous delivery of the same message
// is not valid after redelivery.
type Message struct {
	// ID identifies the message across deliveries.
	ID string
	// Body is the message payload. Encoding is application-defined.
	Body string
	// ReceiptHandle must be used to delete this delivery of the message.
	ReceiptHandle string
	// Metadata carries optional key-value attributes set by the sender.
	Metadata map[string]string
}

// Client is the queue-service capability consumed by the qsub engine.
//
// Implementations must be safe for concurrent use: the engine overlaps
// receive calls with in-flight send and delete calls.
//
// The service model is at-least-once: a received message stays hidden for a
// visibility window and becomes eligible for redelivery if it is not deleted
// within that window.
type Client interface {
	// EnsureQueue creates the named queue if it does not exist. It is
	// idempotent: ensuring an existing queue is not an error.
	EnsureQueue(ctx context.Context, name string) error

	// SendMessage enqueues body on the named queue and returns the delivery
	// ID assigned by the service.
	SendMessage(ctx context.Context, queueName, body string) (string, error)

	// ReceiveMessages returns the next batch of visible messages, which may
	// be empty. Blocking behavior and batch size are implementation-defined;
	// any long poll must respect ctx.
	ReceiveMessages(ctx context.Context, queueName string) ([]Message, error)

	// DeleteMessage removes the delivery identified by receiptHandle from
	// the named queue.
	DeleteMessage(ctx context.Context, queueName, receiptHandle string) error
}

// NewID generates a unique message or receipt identifier.
func NewID() string {
	u, err := uuid.NewRandom()
	if err == nil {
		return u.String()
	}
	return uuid.NewString()
}
