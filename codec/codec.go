// Package codec provides body serialization helpers for qsub processors and
// publishers.
//
// Message bodies are opaque to the engine; applications that carry
// structured payloads can use a Codec to encode on publish and decode in a
// processor. JSON is the default; MessagePack is available for compact
// binary payloads, Protocol Buffers for generated message types.
package codec

import "errors"

// Codec errors
var (
	ErrEncodeFailure = errors.New("failed to encode body")
	ErrDecodeFailure = errors.New("failed to decode body")
)

// Codec encodes and decodes message bodies.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Encode serializes v to a message body.
	// Returns ErrEncodeFailure if serialization fails.
	Encode(v any) ([]byte, error)

	// Decode deserializes a message body into v.
	// Returns ErrDecodeFailure if deserialization fails.
	Decode(data []byte, v any) error

	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Name returns a short identifier for this codec (e.g., "json", "msgpack").
	Name() string
}

// Default returns the default codec (JSON)
func Default() Codec {
	return JSON{}
}
