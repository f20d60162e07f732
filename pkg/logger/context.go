package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

var loggerContextKey contextKey

// With derives a logger carrying fields from the one already in ctx and
// stores it back, so downstream code picks up request-scoped attributes.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, loggerContextKey, From(ctx).With(fields...))
}

// From returns the logger attached to ctx, falling back to the process
// logger when none was attached.
func From(ctx context.Context) *slog.Logger {
	if lg, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return lg
	}
	return LoggerWrapper()
}
