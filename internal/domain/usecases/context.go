package usecases

import "context"

type requestIDKey struct{}

// WithRequestID tags ctx so usecase logs can be correlated with a request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestTag(ctx context.Context) string {
	if id := RequestID(ctx); id != "" {
		return "[" + id + "] "
	}
	return ""
}
