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
	// RunIDKey is the context key for the sync run ID
	RunIDKey contextKey = "run_id"
	// StoreKey is the context key for the store being synced
	StoreKey contextKey = "store"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if
// not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRunID adds the sync run ID to context and returns the enriched logger
func WithRunID(ctx context.Context, logger *zap.Logger, runID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RunIDKey, runID)
	enriched := logger.With(zap.String("run_id", runID))
	return WithContext(ctx, enriched), enriched
}

// WithStore adds the store identifier to context and returns the enriched
// logger
func WithStore(ctx context.Context, logger *zap.Logger, store string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, StoreKey, store)
	enriched := logger.With(zap.String("store", store))
	return WithContext(ctx, enriched), enriched
}

// GetRunID retrieves the sync run ID from context
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// GetStore retrieves the store identifier from context
func GetStore(ctx context.Context) string {
	if store, ok := ctx.Value(StoreKey).(string); ok {
		return store
	}
	return ""
}
