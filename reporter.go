package qsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// ErrorDocument is the wire shape published to the error queue when
// processing fails. It is written for downstream operators and never read
// back by this library.
type ErrorDocument struct {
	// ErrorMessage is the processor-supplied detail: the structured value
	// from Detail, or the flat error string otherwise.
	ErrorMessage any `json:"error-message"`
	// OriginalMessage is the body of the envelope that failed.
	OriginalMessage string `json:"original-message"`
}

// DocumentFunc builds the serialized error document for a failed envelope.
// Supply one via WithErrorDocument to override the default shape.
type DocumentFunc func(detail error, env Envelope) ([]byte, error)

// DeleteFunc resolves an envelope against the source queue. Supply one via
// WithDeleter to override how the engine deletes messages.
type DeleteFunc func(ctx context.Context, desc QueueDescriptor, env Envelope) error

// Reporter records processing failures: it publishes an error document to
// the descriptor's error queue, then deletes the original message from the
// primary queue.
//
// Ordering is deliberate. The delete only follows a successful publish; if
// the publish fails, the message is left in place for redelivery rather
// than silently lost.
type Reporter struct {
	publisher *Publisher
	document  DocumentFunc
	deleter   DeleteFunc
	logger    *slog.Logger
}

// NewReporter creates a reporter that publishes via p and deletes via del.
func NewReporter(p *Publisher, del DeleteFunc) *Reporter {
	return &Reporter{
		publisher: p,
		document:  DefaultDocument,
		deleter:   del,
		logger:    slog.Default().With("component", "qsub.reporter"),
	}
}

// WithDocument overrides the error-document builder.
func (r *Reporter) WithDocument(fn DocumentFunc) *Reporter {
	if fn != nil {
		r.document = fn
	}
	return r
}

// WithLogger sets a custom logger.
func (r *Reporter) WithLogger(l *slog.Logger) *Reporter {
	if l != nil {
		r.logger = l
	}
	return r
}

// Report publishes the error document for env, then deletes env. The
// returned error is the publish or delete failure, if any; in the publish
// failure case env has not been deleted.
func (r *Reporter) Report(ctx context.Context, desc QueueDescriptor, detail error, env Envelope) error {
	doc, err := r.document(detail, env)
	if err != nil {
		return fmt.Errorf("build error document: %w", err)
	}
	if _, err := r.publisher.PublishError(ctx, desc, string(doc)); err != nil {
		r.logger.Error("error publish failed, message left for redelivery",
			"queue", desc.Name(), "message_id", env.ID, "error", err)
		return err
	}
	r.logger.Debug("error document published", "queue", desc.ErrorName(), "message_id", env.ID)
	return r.deleter(ctx, desc, env)
}

// DefaultDocument builds the standard document:
//
//	{"error-message": <detail>, "original-message": <body>}
//
// The detail is the structured value when the processor returned Detail,
// otherwise the error string.
func DefaultDocument(detail error, env Envelope) ([]byte, error) {
	msg := any(detail.Error())
	if d, ok := DetailOf(detail); ok {
		msg = d
	}
	return json.Marshal(ErrorDocument{
		ErrorMessage:    msg,
		OriginalMessage: env.Body,
	})
}
