package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx retrieves the logger from the context.
// If no logger is found, the global logger is returned.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}

// WithObject derives a child logger carrying the bucket/object pair and
// stores it in the returned context.
func WithObject(ctx context.Context, bucket, object string) (context.Context, zerolog.Logger) {
	child := Ctx(ctx).With().
		Str(FieldBucket, bucket).
		Str(FieldObject, object).
		Logger()
	return WithLogger(ctx, child), child
}
