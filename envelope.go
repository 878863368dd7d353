package qsub

import "github.com/queueworks/qsub/queue"

// Envelope wraps a received message with the metadata needed to resolve it.
//
// ReceiptHandle is an opaque capability: it must be presented back to the
// queue service to delete the message, and it must never be inspected or
// fabricated. A transforming filter may replace Body and Metadata but has to
// propagate ReceiptHandle unchanged; losing the handle makes the message
// unresolvable.
//
// An envelope belongs to a single poll cycle. It is resolved at most once,
// either deleted directly on success or deleted after its error document was
// published.
type Envelope struct {
	// ID identifies the message across deliveries.
	ID string
	// Body is the message payload; encoding is application-defined.
	Body string
	// ReceiptHandle resolves this delivery against the source queue.
	ReceiptHandle string
	// Metadata carries optional sender-set attributes.
	Metadata map[string]string
}

// newEnvelope wraps a raw message received from the queue service.
func newEnvelope(raw queue.Message) Envelope {
	return Envelope{
		ID:            raw.ID,
		Body:          raw.Body,
		ReceiptHandle: raw.ReceiptHandle,
		Metadata:      raw.Metadata,
	}
}
