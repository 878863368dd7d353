// Package qsub provides reliable consumption and publication of messages
// against a managed, at-least-once queue service.
//
// The core is the subscription Engine: a self-driving poll/dispatch loop
// that receives batches from a queue, routes each message through an ordered
// filter chain, hands surviving messages to an application-supplied
// Processor, and resolves every message deterministically - deleted on
// success, published to the queue's error channel and then deleted on
// failure.
//
// The queue service itself is consumed through the narrow queue.Client
// capability (ensure queue, send, receive batch, delete by receipt handle).
// Backends for process memory and Redis ship in queue/memory and
// queue/redis; any service with visibility-timeout semantics can be adapted.
//
// Basic usage:
//
//	client := memory.New()
//	desc := qsub.NewDescriptor("orders")
//
//	engine, err := qsub.New(client, desc,
//	    qsub.ProcessorFunc(func(ctx context.Context, env qsub.Envelope) error {
//	        return handleOrder(ctx, env.Body)
//	    }),
//	    qsub.WithFilters(dropTestTraffic),
//	    qsub.WithEmptyPollBackoff(5*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//
// Message lifecycle:
//
//	received -> broadcast to listeners -> filtered -> processed -> resolved
//
// A dropped message (any filter returns ok=false) is neither processed nor
// deleted; the service's own visibility timeout makes it visible again on a
// later poll. Filtering is not an acknowledgment.
//
// Failure routing: when the Processor returns an error, the engine publishes
//
//	{"error-message": <detail>, "original-message": <body>}
//
// to the "<queue>-error" queue and deletes the original only after that
// publish succeeds. A failed error publish leaves the message in place for
// redelivery, so failed messages are never silently lost.
//
// Delivery guarantees are those of the underlying service: at-least-once,
// no ordering across messages. The engine overlaps polling with in-flight
// dispatches, so slow processors do not stall receipt of new work, at the
// cost that a message held past its visibility timeout may be delivered
// again.
package qsub
