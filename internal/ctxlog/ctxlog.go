// Package ctxlog carries a *slog.Logger through context.Context so every
// layer logs through the instance the app configured, never the global
// default.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is unexported so no other package can collide with our context key.
type key struct{}

var loggerKey = key{}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger placed by WithLogger. Every context that
// reaches execution code must carry one; a missing logger is a wiring bug,
// so this panics rather than silently falling back.
func FromContext(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(loggerKey).(*slog.Logger)
	if !ok {
		panic("ctxlog: logger missing from context")
	}
	return logger
}
