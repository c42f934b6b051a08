// Package logctx carries a run-scoped logger through context.Context.
//
// The runner attaches run_id and label fields once; everything called with
// that context logs them without having to thread a logger argument.
//
//	ctx = logctx.WithRun(ctx, runID, label)
//	log := logctx.FromContext(ctx)
package logctx

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/eunmann/inv-rollup/pkg/logging"
)

// loggerKey is the private key type for storing loggers in context.
type loggerKey struct{}

// WithLogger returns a new context with the given logger attached.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext extracts the logger from the context. If the context is nil
// or does not contain a logger, the process logger is returned.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return *logging.L()
	}
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return *logging.L()
}

// WithStr returns a new context whose logger has the string field added.
func WithStr(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, logger)
}

// WithRun attaches the run identity fields.
func WithRun(ctx context.Context, runID, label string) context.Context {
	logger := FromContext(ctx).With().
		Str("run_id", runID).
		Str("label", label).
		Logger()
	return WithLogger(ctx, logger)
}
