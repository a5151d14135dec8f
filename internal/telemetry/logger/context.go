package logger

import "context"

type ctxKey int

const (
	loggerCtxKey ctxKey = iota
	requestIDCtxKey
)

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, l)
}

// FromContext returns the logger carried by ctx, or Default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerCtxKey).(Logger); ok && l != nil {
		return l
	}
	return Default()
}

// WithRequestID tags ctx with the ID of one catalog request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey, id)
}

// RequestID returns the request ID carried by ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey).(string)
	return id
}

// L returns the context logger bound to ctx, with request_id attached
// when ctx has one.
func L(ctx context.Context) Logger {
	l := FromContext(ctx).WithContext(ctx)
	if id := RequestID(ctx); id != "" {
		return l.With("request_id", id)
	}
	return l
}
