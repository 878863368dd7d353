package qsub

import (
	"context"
	"fmt"

	"github.com/queueworks/qsub/codec"
)

// DecodeProcessor adapts a typed handler into a Processor by decoding the
// envelope body with c. A body that fails to decode is a processing
// failure: it is routed to the error queue like any other, with the decode
// error as detail.
//
//	engine, err := qsub.New(client, desc,
//	    qsub.DecodeProcessor(codec.JSON{}, func(ctx context.Context, o Order) error {
//	        return fulfill(ctx, o)
//	    }))
func DecodeProcessor[T any](c codec.Codec, fn func(context.Context, T) error) Processor {
	return ProcessorFunc(func(ctx context.Context, env Envelope) error {
		var v T
		if err := c.Decode([]byte(env.Body), &v); err != nil {
			return fmt.Errorf("decode body (%s): %w", c.Name(), err)
		}
		return fn(ctx, v)
	})
}
