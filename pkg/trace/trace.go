package trace

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// NewID mints a fresh trace id.
func NewID() string { return uuid.NewString() }

// WithTraceID attaches a trace id to the context.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the trace id attached to ctx, if any.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok
}
