package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/queueworks/qsub/queue"
)

// fakeClock is a settable time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestSendReceiveDelete(t *testing.T) {
	ctx := context.Background()
	c := New()
	if err := c.EnsureQueue(ctx, "orders"); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	id, err := c.SendMessage(ctx, "orders", "A")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	batch, err := c.ReceiveMessages(ctx, "orders")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("batch size = %d, want 1", len(batch))
	}
	if batch[0].ID != id || batch[0].Body != "A" {
		t.Errorf("got message %+v, want id=%q body=%q", batch[0], id, "A")
	}
	if batch[0].ReceiptHandle == "" {
		t.Fatal("empty receipt handle")
	}

	// hidden while in flight
	if more, _ := c.ReceiveMessages(ctx, "orders"); len(more) != 0 {
		t.Errorf("received in-flight message again: %v", more)
	}

	if err := c.DeleteMessage(ctx, "orders", batch[0].ReceiptHandle); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := c.Len("orders"); n != 0 {
		t.Errorf("count after delete = %d, want 0", n)
	}
	// a second delete with the same handle fails
	if err := c.DeleteMessage(ctx, "orders", batch[0].ReceiptHandle); !errors.Is(err, queue.ErrBadReceipt) {
		t.Errorf("double delete: got %v, want ErrBadReceipt", err)
	}
}

func TestUnknownQueue(t *testing.T) {
	ctx := context.Background()
	c := New()
	if _, err := c.SendMessage(ctx, "missing", "x"); !errors.Is(err, queue.ErrUnknownQueue) {
		t.Errorf("send: got %v, want ErrUnknownQueue", err)
	}
	if _, err := c.ReceiveMessages(ctx, "missing"); !errors.Is(err, queue.ErrUnknownQueue) {
		t.Errorf("receive: got %v, want ErrUnknownQueue", err)
	}
	if err := c.DeleteMessage(ctx, "missing", "rh"); !errors.Is(err, queue.ErrUnknownQueue) {
		t.Errorf("delete: got %v, want ErrUnknownQueue", err)
	}
}

func TestEnsureQueueIdempotent(t *testing.T) {
	ctx := context.Background()
	c := New()
	if err := c.EnsureQueue(ctx, "orders"); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if _, err := c.SendMessage(ctx, "orders", "A"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := c.EnsureQueue(ctx, "orders"); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if n := c.Len("orders"); n != 1 {
		t.Errorf("count after re-ensure = %d, want 1", n)
	}
}

func TestVisibilityTimeoutRedelivery(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c := New(WithVisibilityTimeout(30*time.Second), WithClock(clock.Now))
	if err := c.EnsureQueue(ctx, "orders"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, err := c.SendMessage(ctx, "orders", "A"); err != nil {
		t.Fatalf("send: %v", err)
	}

	first, err := c.ReceiveMessages(ctx, "orders")
	if err != nil || len(first) != 1 {
		t.Fatalf("first receive: %v (%d messages)", err, len(first))
	}

	// within the window the message stays hidden
	clock.Advance(10 * time.Second)
	if batch, _ := c.ReceiveMessages(ctx, "orders"); len(batch) != 0 {
		t.Fatalf("message visible inside its window")
	}

	// past the window it is redelivered with a fresh handle
	clock.Advance(30 * time.Second)
	second, err := c.ReceiveMessages(ctx, "orders")
	if err != nil || len(second) != 1 {
		t.Fatalf("redelivery receive: %v (%d messages)", err, len(second))
	}
	if second[0].ID != first[0].ID {
		t.Errorf("redelivered a different message: %q vs %q", second[0].ID, first[0].ID)
	}
	if second[0].ReceiptHandle == first[0].ReceiptHandle {
		t.Error("receipt handle reused across deliveries")
	}

	// the superseded handle no longer resolves
	if err := c.DeleteMessage(ctx, "orders", first[0].ReceiptHandle); !errors.Is(err, queue.ErrBadReceipt) {
		t.Errorf("stale handle delete: got %v, want ErrBadReceipt", err)
	}
	if err := c.DeleteMessage(ctx, "orders", second[0].ReceiptHandle); err != nil {
		t.Errorf("fresh handle delete: %v", err)
	}
}

func TestBatchSizeAndOrder(t *testing.T) {
	ctx := context.Background()
	c := New(WithBatchSize(2))
	if err := c.EnsureQueue(ctx, "orders"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	for _, body := range []string{"A", "B", "C"} {
		if _, err := c.SendMessage(ctx, "orders", body); err != nil {
			t.Fatalf("send %q: %v", body, err)
		}
	}

	batch, err := c.ReceiveMessages(ctx, "orders")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	bodies := []string{}
	for _, m := range batch {
		bodies = append(bodies, m.Body)
	}
	if diff := cmp.Diff([]string{"A", "B"}, bodies); diff != "" {
		t.Errorf("first batch (-want +got):\n%s", diff)
	}

	rest, err := c.ReceiveMessages(ctx, "orders")
	if err != nil || len(rest) != 1 || rest[0].Body != "C" {
		t.Errorf("second batch = %v (err %v), want [C]", rest, err)
	}
}

func TestClosedClient(t *testing.T) {
	ctx := context.Background()
	c := New()
	if err := c.EnsureQueue(ctx, "orders"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.EnsureQueue(ctx, "orders"); !errors.Is(err, queue.ErrClosed) {
		t.Errorf("ensure after close: got %v, want ErrClosed", err)
	}
	if _, err := c.SendMessage(ctx, "orders", "x"); !errors.Is(err, queue.ErrClosed) {
		t.Errorf("send after close: got %v, want ErrClosed", err)
	}
	if _, err := c.ReceiveMessages(ctx, "orders"); !errors.Is(err, queue.ErrClosed) {
		t.Errorf("receive after close: got %v, want ErrClosed", err)
	}
}
