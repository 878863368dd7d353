package codec

import (
	"errors"
	"reflect"

	"google.golang.org/protobuf/proto"
)

// ErrNotProtoMessage is returned by Proto when the value is not a
// proto.Message.
var ErrNotProtoMessage = errors.New("value is not a proto.Message")

var protoMessageType = reflect.TypeOf((*proto.Message)(nil)).Elem()

// Proto implements Codec using Protocol Buffers serialization.
// Efficient binary encoding with strong typing; values must be generated
// proto.Message types.
type Proto struct{}

// Encode serializes v to Protocol Buffer bytes.
// v must implement proto.Message.
func (c Proto) Encode(v any) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, errors.Join(ErrEncodeFailure, ErrNotProtoMessage)
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, errors.Join(ErrEncodeFailure, err)
	}
	return data, nil
}

// Decode deserializes Protocol Buffer bytes into v. v may be the message
// itself or a pointer to a message variable (as DecodeProcessor passes);
// a nil message variable is allocated.
func (c Proto) Decode(data []byte, v any) error {
	msg, ok := v.(proto.Message)
	if !ok {
		msg, ok = messageTarget(v)
	}
	if !ok {
		return errors.Join(ErrDecodeFailure, ErrNotProtoMessage)
	}
	if err := proto.Unmarshal(data, msg); err != nil {
		return errors.Join(ErrDecodeFailure, err)
	}
	return nil
}

// messageTarget unwraps a *M presented through a pointer, allocating M when
// the inner pointer is nil.
func messageTarget(v any) (proto.Message, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, false
	}
	elem := rv.Elem()
	if elem.Kind() != reflect.Pointer || !elem.Type().Implements(protoMessageType) {
		return nil, false
	}
	if elem.IsNil() {
		elem.Set(reflect.New(elem.Type().Elem()))
	}
	msg, ok := elem.Interface().(proto.Message)
	return msg, ok
}

// ContentType returns "application/x-protobuf"
func (c Proto) ContentType() string { return "application/x-protobuf" }

// Name returns "proto"
func (c Proto) Name() string { return "proto" }

// Compile-time interface check
var _ Codec = Proto{}
