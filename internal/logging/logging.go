// Package logging wraps log/slog with the event vocabulary of this
// codebase: request logging, matching-session lifecycle, pattern
// compilation, and security events.
package logging

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// RequestIDKey is the context key for request IDs.
const RequestIDKey ContextKey = "request_id"

var defaultLogger *slog.Logger

func init() {
	InitLogger(LevelInfo, FormatJSON)
}

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format.
	FormatText
)

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger initializes the global logger with the given level and format.
// Timestamps are rendered in RFC3339.
func InitLogger(level Level, format Format) {
	opts := &slog.HandlerOptions{
		Level: level.slog(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context, or "" if absent.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// LoggerFromContext returns a logger carrying the context's request ID.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if requestID := GetRequestID(ctx); requestID != "" {
		logger = logger.With("request_id", requestID)
	}
	return logger
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { defaultLogger.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { defaultLogger.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

// DebugContext logs a debug message with the context's request ID.
func DebugContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Debug(msg, args...)
}

// InfoContext logs an info message with the context's request ID.
func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Info(msg, args...)
}

// WarnContext logs a warning message with the context's request ID.
func WarnContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Warn(msg, args...)
}

// ErrorContext logs an error message with the context's request ID.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Error(msg, args...)
}

// prepend builds the final attribute list from an event's fixed fields and
// the caller's extras.
func prepend(fixed []any, args []any) []any {
	return append(fixed, args...)
}

// HTTPRequest logs one HTTP request with the common access-log fields.
func HTTPRequest(method, path, remoteAddr string, statusCode int, duration time.Duration, args ...any) {
	defaultLogger.Info("http_request", prepend([]any{
		"method", method,
		"path", path,
		"remote_addr", remoteAddr,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	}, args)...)
}

// HTTPRequestContext logs one HTTP request, tagged with the context's
// request ID.
func HTTPRequestContext(ctx context.Context, method, path, remoteAddr string, statusCode int, duration time.Duration, args ...any) {
	LoggerFromContext(ctx).Info("http_request", prepend([]any{
		"method", method,
		"path", path,
		"remote_addr", remoteAddr,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	}, args)...)
}

// SessionEvent logs matching-session lifecycle events (created, expired,
// closed) with the current path-set width.
func SessionEvent(sessionID, event string, pathCount int, args ...any) {
	defaultLogger.Info("session_event", prepend([]any{
		"session_id", sessionID,
		"event", event,
		"path_count", pathCount,
	}, args)...)
}

// SessionError logs a fault raised while feeding a matching session.
func SessionError(sessionID, operation string, err error, args ...any) {
	defaultLogger.Error("session_error", prepend([]any{
		"session_id", sessionID,
		"operation", operation,
		"error", err.Error(),
	}, args)...)
}

// PatternCompiled logs pattern compilation, including cache outcomes.
func PatternCompiled(digest string, cacheHit bool, args ...any) {
	defaultLogger.Debug("pattern_compiled", prepend([]any{
		"digest", digest,
		"cache_hit", cacheHit,
	}, args)...)
}

// WebSocketEvent logs stream connection events.
func WebSocketEvent(event string, clientCount int, args ...any) {
	defaultLogger.Info("websocket_event", prepend([]any{
		"event", event,
		"client_count", clientCount,
	}, args)...)
}

// ServerStartup logs server startup information.
func ServerStartup(serverType, protocol string, port int, args ...any) {
	defaultLogger.Info("server_startup", prepend([]any{
		"server_type", serverType,
		"protocol", protocol,
		"port", port,
	}, args)...)
}

// SecurityEvent logs security-related events at warning level.
func SecurityEvent(event, component string, args ...any) {
	defaultLogger.Warn("security_event", prepend([]any{
		"event", event,
		"component", component,
	}, args)...)
}
