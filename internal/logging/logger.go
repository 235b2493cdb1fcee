// Package logging defines the structured, context-aware logger used by the
// server and its components, and a log/slog implementation of it.
//
// Request-scoped fields travel in the context: the HTTP gateway attaches the
// request id once with WithAttrs, and every call that receives that context
// logs it without the caller repeating it.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "simulation created", "user_id", uid, "id", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

type attrsKey struct{}

// WithAttrs returns a copy of ctx carrying key–value pairs that are appended
// to every record logged with it. Pairs accumulate across calls.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}
	prev := AttrsFrom(ctx)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(merged, prev...)
	merged = append(merged, args...)
	return context.WithValue(ctx, attrsKey{}, merged)
}

// AttrsFrom returns the pairs stored by WithAttrs.
func AttrsFrom(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(attrsKey{}).([]any)
	return attrs
}
