package qsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/queueworks/qsub/queue"
)

const (
	engineCreated = iota
	engineRunning
	engineStopped
)

const instrumentationName = "github.com/queueworks/qsub"

// Engine is the self-scheduling poll/dispatch loop over a single queue.
//
// Started, it provisions the descriptor's queues, then polls continuously:
// an empty batch is retried after the configured backoff, a non-empty batch
// is dispatched message by message while the next poll proceeds
// concurrently. Each dispatch runs broadcast, filter chain, processor and
// resolution in strict order for that message; across messages there is no
// ordering.
//
// Configuration (descriptor, filter chain, listener set) is read-only after
// New. The queue.Client must tolerate concurrent receive, send and delete
// calls. Run one Engine per queue; engines on different queues are
// independent.
type Engine struct {
	status int32

	client      queue.Client
	desc        QueueDescriptor
	processor   Processor
	filters     Chain
	listeners   []Listener
	publisher   *Publisher
	provisioner *Provisioner
	reporter    *Reporter
	deleter     DeleteFunc

	backoff time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger

	metricsEnabled bool
	tracingEnabled bool

	polls    chan struct{}
	done     chan struct{}
	loopDone chan struct{}
	inflight sync.WaitGroup
}

// New creates an engine for the descriptor's queue. The processor is the
// application's processing capability; everything else is configured
// through options.
func New(client queue.Client, desc QueueDescriptor, processor Processor, opts ...Option) (*Engine, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if processor == nil {
		return nil, ErrNilProcessor
	}
	if desc.Name() == "" {
		return nil, errors.New("queue descriptor name is required")
	}

	o := newEngineOptions(opts...)
	logger := o.logger.With("component", "qsub.engine", "queue", desc.Name())

	e := &Engine{
		client:         client,
		desc:           desc,
		processor:      processor,
		filters:        o.filters,
		listeners:      o.listeners,
		backoff:        o.backoff,
		limiter:        o.limiter,
		logger:         logger,
		metricsEnabled: o.metricsEnabled,
		tracingEnabled: o.tracingEnabled,
		polls:          make(chan struct{}, 1),
		done:           make(chan struct{}),
		loopDone:       make(chan struct{}),
	}

	e.publisher = NewPublisher(client).WithLogger(logger)
	e.provisioner = NewProvisioner(client)
	e.deleter = o.deleter
	if e.deleter == nil {
		e.deleter = e.deleteMessage
	}
	e.reporter = NewReporter(e.publisher, e.deleter).WithLogger(logger)
	if o.document != nil {
		e.reporter.WithDocument(o.document)
	}
	return e, nil
}

// Running reports whether the engine has been started and not yet stopped.
func (e *Engine) Running() bool {
	return atomic.LoadInt32(&e.status) == engineRunning
}

// Start provisions the primary and error queues, then begins polling. The
// context governs the whole run: cancelling it stops receives and is seen
// by in-flight processors.
//
// A provisioning failure is fatal; the engine does not start and the error
// wraps ErrProvision. An engine runs at most once: Start returns
// ErrEngineRunning while running and ErrEngineStopped after Stop.
func (e *Engine) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&e.status, engineCreated, engineRunning) {
		if atomic.LoadInt32(&e.status) == engineRunning {
			return ErrEngineRunning
		}
		return ErrEngineStopped
	}
	if err := e.provisioner.Ensure(ctx, e.desc); err != nil {
		atomic.StoreInt32(&e.status, engineStopped)
		return err
	}
	e.logger.Info("engine started", "error_queue", e.desc.ErrorName())
	e.polls <- struct{}{}
	go e.run(ctx)
	return nil
}

// Stop halts new polls and waits for in-flight dispatches to complete.
// There is no mid-flight interruption: broadcasts, filters, processors and
// resolutions that already began are allowed to finish. Safe to call more
// than once.
func (e *Engine) Stop() {
	if !atomic.CompareAndSwapInt32(&e.status, engineRunning, engineStopped) {
		return
	}
	close(e.done)
	<-e.loopDone
	e.inflight.Wait()
	e.logger.Info("engine stopped")
}

// run is the poll loop. One iteration per poll trigger; triggers are
// re-armed by poll itself, immediately after a non-empty batch or after the
// backoff otherwise.
func (e *Engine) run(ctx context.Context) {
	defer close(e.loopDone)
	for {
		select {
		case <-e.done:
			return
		case <-ctx.Done():
			return
		case <-e.polls:
		}
		e.poll(ctx)
	}
}

func (e *Engine) poll(ctx context.Context) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return
		}
	}

	batch, err := e.client.ReceiveMessages(ctx, e.desc.Name())
	if err != nil {
		// a failed poll never stops the engine; retry after backoff
		if ctx.Err() == nil {
			e.logger.Error("poll failed", "error", errors.Join(ErrReceive, err))
		}
		e.schedulePoll()
		return
	}
	if len(batch) == 0 {
		e.schedulePoll()
		return
	}

	// keep receiving while this batch is still being dispatched
	e.triggerPoll()

	for _, raw := range batch {
		env := newEnvelope(raw)
		e.count(ctx, "received")
		e.inflight.Add(1)
		go func() {
			defer e.inflight.Done()
			e.dispatch(ctx, env)
		}()
	}
}

// triggerPoll re-arms the poll trigger without blocking. The channel is
// buffered with capacity one, so pending triggers collapse.
func (e *Engine) triggerPoll() {
	if !e.Running() {
		return
	}
	select {
	case e.polls <- struct{}{}:
	default:
	}
}

// schedulePoll re-arms the poll trigger after the empty-poll backoff.
func (e *Engine) schedulePoll() {
	time.AfterFunc(e.backoff, e.triggerPoll)
}

// dispatch takes one envelope through its lifecycle: broadcast, filter,
// process, resolve. Runs concurrently with other dispatches and with the
// poll loop.
func (e *Engine) dispatch(ctx context.Context, env Envelope) {
	ctx = contextWithDispatch(ctx, e.desc.Name(), env.ID)

	if e.tracingEnabled {
		tracer := otel.Tracer(instrumentationName)
		var span trace.Span
		ctx, span = tracer.Start(ctx, fmt.Sprintf("%s.dispatch", e.desc.Name()),
			trace.WithAttributes(
				attribute.String("queue", e.desc.Name()),
				attribute.String("message_id", env.ID)),
			trace.WithSpanKind(trace.SpanKindConsumer))
		defer span.End()
	}

	broadcast(e.listeners, env)

	out, ok := e.filters.Apply(env)
	if !ok {
		// not an acknowledgment: the message stays in the queue until the
		// service's visibility timeout represents it
		e.count(ctx, "dropped")
		e.logger.Debug("message dropped by filter", "message_id", env.ID)
		return
	}

	if err := e.processor.Process(ctx, out); err != nil {
		e.count(ctx, "failed")
		e.logger.Warn("processing failed", "message_id", env.ID, "error", err)
		if rerr := e.reporter.Report(ctx, e.desc, err, out); rerr != nil {
			e.logger.Error("failure report incomplete", "message_id", env.ID, "error", rerr)
		}
		return
	}

	e.count(ctx, "processed")
	if err := e.deleter(ctx, e.desc, out); err != nil {
		// not retried; the service's visibility timeout decides redelivery
		e.logger.Error("delete failed", "message_id", env.ID, "error", err)
	}
}

// deleteMessage is the default DeleteFunc: resolve the envelope's receipt
// handle against the primary queue.
func (e *Engine) deleteMessage(ctx context.Context, desc QueueDescriptor, env Envelope) error {
	if err := e.client.DeleteMessage(ctx, desc.Name(), env.ReceiptHandle); err != nil {
		return fmt.Errorf("message %q: %w", env.ID, errors.Join(ErrDelete, err))
	}
	e.count(ctx, "deleted")
	return nil
}

func (e *Engine) count(ctx context.Context, outcome string) {
	if !e.metricsEnabled {
		return
	}
	meter := otel.Meter(instrumentationName)
	messages, _ := meter.Int64Counter("qsub.messages",
		metric.WithDescription("Messages by lifecycle outcome"))
	messages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("queue", e.desc.Name()),
		attribute.String("outcome", outcome)))
}
