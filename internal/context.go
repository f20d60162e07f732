package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextUserKey ctxKey = "userEmail"

func UserEmailFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if email, ok := ctx.Value(ContextUserKey).(string); ok && email != "" {
		return email, true
	}
	return "", false
}

func ContextWithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ContextUserKey, email)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
