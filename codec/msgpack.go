package codec

import (
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

// MessagePack implements Codec using MessagePack serialization.
// Binary and compact; bodies are not human-readable.
type MessagePack struct{}

// Encode serializes v to MessagePack bytes
func (c MessagePack) Encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrEncodeFailure, err)
	}
	return data, nil
}

// Decode deserializes MessagePack bytes into v
func (c MessagePack) Decode(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return errors.Join(ErrDecodeFailure, err)
	}
	return nil
}

// ContentType returns "application/msgpack"
func (c MessagePack) ContentType() string { return "application/msgpack" }

// Name returns "msgpack"
func (c MessagePack) Name() string { return "msgpack" }

// Compile-time interface check
var _ Codec = MessagePack{}
