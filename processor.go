package qsub

import (
	"context"
	"errors"
)

// Processor is the application-supplied processing capability. A nil return
// acknowledges the message (it will be deleted); a non-nil return is the
// failure detail routed to the error queue.
//
// Process runs concurrently with other in-flight dispatches of the same
// engine and must be safe for that. The context carries the queue name and
// message ID (see ContextQueue, ContextMessageID) and is cancelled when the
// context passed to Engine.Start is.
type Processor interface {
	Process(ctx context.Context, env Envelope) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, env Envelope) error

// Process calls fn(ctx, env)
func (fn ProcessorFunc) Process(ctx context.Context, env Envelope) error {
	return fn(ctx, env)
}

// detailError carries a structured failure detail through the error return.
type detailError struct {
	msg    string
	detail any
}

func (e *detailError) Error() string { return e.msg }

// Detail returns a processing failure whose structured detail is embedded
// as-is in the error document, instead of the flat error string.
//
//	return qsub.Detail("schema validation failed", map[string]any{
//	    "field":  "amount",
//	    "reason": "must be positive",
//	})
func Detail(msg string, detail any) error {
	return &detailError{msg: msg, detail: detail}
}

// DetailOf extracts the structured detail from an error created with
// Detail, unwrapping if necessary. ok is false for any other error.
func DetailOf(err error) (detail any, ok bool) {
	var de *detailError
	if errors.As(err, &de) {
		return de.detail, true
	}
	return nil, false
}
