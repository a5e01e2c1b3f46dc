package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// IntoContext returns a copy of ctx carrying logger
func IntoContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// Middleware creates HTTP middleware that adds a logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(IntoContext(r.Context(), logger)))
		})
	}
}

// RequestIDMiddleware adds request ID to logger context
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r))
			next.ServeHTTP(w, r.WithContext(IntoContext(r.Context(), logger)))
		})
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogResourceFailure logs a single failed sub-fetch with its resource name
func (sl *StructuredLogger) LogResourceFailure(ctx context.Context, resource, errorType string, err error) {
	fields := NewFields().
		WithResource(resource).
		WithOperation(OpFetch).
		WithErrorType(errorType).
		WithError(err)

	level := slog.LevelWarn
	if errorType == ErrorTypeAuth {
		level = slog.LevelError
	}
	logger := sl.logger.WithComponent(ComponentAggregate)
	logger.Log(ctx, level, "Resource fetch failed", logger.prefix(fields.ToSlice())...)
}

// LogConversion logs the outcome of a currency conversion
func (sl *StructuredLogger) LogConversion(ctx context.Context, from, to, amount, rate, source string, fallback bool) {
	fields := NewFields().
		WithConversion(from, to, amount).
		WithOperation(OpConvert)
	fields[FieldRate] = rate
	fields[FieldSource] = source
	fields[FieldFallback] = fallback

	logger := sl.logger.WithComponent(ComponentCurrency)
	if fallback {
		logger.WarnContext(ctx, "Conversion used fallback rate table", fields.ToSlice()...)
		return
	}
	logger.DebugContext(ctx, "Conversion completed", fields.ToSlice()...)
}

// LogGateDecision logs the result of a session gate check
func (sl *StructuredLogger) LogGateDecision(ctx context.Context, decision, reason string) {
	fields := NewFields().WithOperation(OpEnter)
	fields[FieldDecision] = decision
	if reason != "" {
		fields[FieldReason] = reason
	}
	sl.logger.WithComponent(ComponentGate).InfoContext(ctx, "Session gate decision", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP exchange, raising the level on failures
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, component, method, path string, statusCode int, durationMs int64) {
	level := slog.LevelDebug
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 || statusCode == 0 {
		level = slog.LevelError
	}

	fields := NewFields().WithHTTPResponse(method, path, statusCode, durationMs)
	logger := sl.logger.WithComponent(component)
	logger.Log(ctx, level, "HTTP request completed", logger.prefix(fields.ToSlice())...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation)

	sl.logger.WithComponent(component).ErrorContext(ctx, msg, allFields.ToSlice()...)
}
