package codec

import (
	"encoding/json"
	"errors"
)

// JSON implements Codec using JSON serialization.
// This is the default codec, providing human-readable bodies.
type JSON struct{}

// Encode serializes v to JSON bytes
func (c JSON) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrEncodeFailure, err)
	}
	return data, nil
}

// Decode deserializes JSON bytes into v
func (c JSON) Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Join(ErrDecodeFailure, err)
	}
	return nil
}

// ContentType returns "application/json"
func (c JSON) ContentType() string { return "application/json" }

// Name returns "json"
func (c JSON) Name() string { return "json" }

// Compile-time interface check
var _ Codec = JSON{}
