package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// TerminalIDKey is the context key for the POS terminal ID
	TerminalIDKey contextKey = "terminal_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enrichedLogger := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// WithTerminalID adds the POS terminal ID to context and returns enriched logger
func WithTerminalID(ctx context.Context, logger *zap.Logger, terminalID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, TerminalIDKey, terminalID)
	enrichedLogger := logger.With(zap.String("terminal_id", terminalID))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetTerminalID retrieves the POS terminal ID from context
func GetTerminalID(ctx context.Context) string {
	if terminalID, ok := ctx.Value(TerminalIDKey).(string); ok {
		return terminalID
	}
	return ""
}

// L returns a logger from the context enriched with the request and
// terminal identifiers stored alongside it.
// Usage: logger.L(ctx).Info("message", zap.String("key", "value"))
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	if requestID := GetRequestID(ctx); requestID != "" {
		l = l.With(zap.String("request_id", requestID))
	}
	if terminalID := GetTerminalID(ctx); terminalID != "" {
		l = l.With(zap.String("terminal_id", terminalID))
	}
	return l
}
