package cloudflare

import (
	"context"
)

// Logger records trust decisions and fetch failures emitted by Restorer.
//
// Implementations should be safe for concurrent use, as a single Restorer
// instance is typically shared across many goroutines.
//
// The provided context comes from the inbound HTTP request and can carry
// tracing metadata (for example, trace or span IDs).
//
// The interface intentionally mirrors slog's WarnContext and ErrorContext
// signatures, so *slog.Logger can be used directly without an adapter.
type Logger interface {
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// noopLogger is the default Logger implementation when logging is not
// explicitly configured.
type noopLogger struct{}

func (noopLogger) WarnContext(context.Context, string, ...any) {}

func (noopLogger) ErrorContext(context.Context, string, ...any) {}
