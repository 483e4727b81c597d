// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for the HTTP request ID
	RequestIDKey contextKey = "request_id"
	// QuoteRequestIDKey is the context key for the aggregation correlation ID
	QuoteRequestIDKey contextKey = "quote_request_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and quote_request_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("request_id", requestID)),
		}
	}

	if quoteRequestID, ok := ctx.Value(QuoteRequestIDKey).(string); ok && quoteRequestID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("quote_request_id", quoteRequestID)),
		}
	}

	return newLogger
}

// WithQuoteRequestID returns a logger with the aggregation correlation ID attached.
func (l *Logger) WithQuoteRequestID(quoteRequestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("quote_request_id", quoteRequestID)),
	}
}

// WithCarrier returns a logger with the carrier code attached.
func (l *Logger) WithCarrier(carrierCode string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("carrier", carrierCode)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// CarrierCall logs an outbound carrier call
func (l *Logger) CarrierCall(carrier, operation string, success bool, latencyMs float64) {
	if success {
		l.Info("carrier_call",
			slog.String("carrier", carrier),
			slog.String("operation", operation),
			slog.Bool("success", success),
			slog.Float64("latency_ms", latencyMs),
		)
	} else {
		l.Warn("carrier_call",
			slog.String("carrier", carrier),
			slog.String("operation", operation),
			slog.Bool("success", success),
			slog.Float64("latency_ms", latencyMs),
		)
	}
}

// CarrierError logs a carrier-level business failure folded into a quote result
func (l *Logger) CarrierError(carrier, message string) {
	l.Warn("carrier_error",
		slog.String("carrier", carrier),
		slog.String("message", message),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
