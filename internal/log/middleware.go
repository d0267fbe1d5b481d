package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// Middleware injects the logger into every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext extracts the logger from the context, falling back to the
// process default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: ComponentApp,
	}
}

// LogHTTPStart records the beginning of a request.
func LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	FromContext(ctx).WithComponent(ComponentHTTP).InfoContext(ctx, "HTTP request started",
		FieldMethod, r.Method,
		FieldPath, r.URL.Path,
		FieldClientIP, clientIP,
		FieldUserAgent, r.Header.Get("User-Agent"))
}

// LogHTTPEnd records the completed request, escalating the level with the
// status code.
func LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	} else if statusCode >= 400 {
		level = slog.LevelWarn
	}

	FromContext(ctx).WithComponent(ComponentHTTP).Log(ctx, level, "HTTP request completed",
		FieldMethod, r.Method,
		FieldPath, r.URL.Path,
		FieldStatusCode, statusCode,
		FieldDuration, durationMs,
		FieldSuccess, statusCode < 400,
		FieldClientIP, clientIP)
}
