package qsub

import "context"

const dispatchContextKey contextKey = iota

type contextKey int

type dispatchContextData struct {
	queue     string
	messageID string
}

func contextWithDispatch(ctx context.Context, queueName, messageID string) context.Context {
	return context.WithValue(ctx, dispatchContextKey, &dispatchContextData{
		queue:     queueName,
		messageID: messageID,
	})
}

// ContextQueue returns the source queue name stored in a dispatch context.
func ContextQueue(ctx context.Context) string {
	if d, ok := ctx.Value(dispatchContextKey).(*dispatchContextData); ok {
		return d.queue
	}
	return ""
}

// ContextMessageID returns the message ID stored in a dispatch context.
func ContextMessageID(ctx context.Context) string {
	if d, ok := ctx.Value(dispatchContextKey).(*dispatchContextData); ok {
		return d.messageID
	}
	return ""
}
