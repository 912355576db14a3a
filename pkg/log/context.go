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

// WithConn returns a context whose logger is tagged with a websocket
// connection id, and the user id once the connection has authenticated.
func WithConn(ctx context.Context, connID string, userID int64) context.Context {
	b := Ctx(ctx).With().Str(FieldConnID, connID)
	if userID != 0 {
		b = b.Int64(FieldUserID, userID)
	}
	return WithLogger(ctx, b.Logger())
}
