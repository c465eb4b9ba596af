package utils

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger is the logging surface the HTTP layer depends on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger

	LogRequest(ctx context.Context, req RequestLog)
	LogError(ctx context.Context, err error, msg string, args ...any)
}

// RequestLog is one served HTTP request.
type RequestLog struct {
	Method    string
	Path      string
	Status    int
	Latency   time.Duration
	ClientIP  string
	RequestID string
	UserID    string
}

type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) Logger {
	return &SlogLogger{logger: logger}
}

// NewLogger builds the process logger: JSON at info level in production,
// text at debug level everywhere else.
func NewLogger(environment string) *slog.Logger {
	if strings.EqualFold(environment, "production") {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

// LogRequest logs 4xx responses at warn and 5xx at error.
func (l *SlogLogger) LogRequest(ctx context.Context, req RequestLog) {
	level := slog.LevelInfo
	switch {
	case req.Status >= 500:
		level = slog.LevelError
	case req.Status >= 400:
		level = slog.LevelWarn
	}

	l.logger.LogAttrs(ctx, level, "HTTP request",
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.Int("status_code", req.Status),
		slog.Duration("latency", req.Latency),
		slog.String("client_ip", req.ClientIP),
		slog.String("request_id", req.RequestID),
		slog.String("user_id", req.UserID),
	)
}

func (l *SlogLogger) LogError(ctx context.Context, err error, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, append([]any{"error", err}, args...)...)
}

// LoggerMiddleware logs every request once it has been served. It reads the
// request_id and user_id keys set by earlier middleware.
func LoggerMiddleware(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		logger.LogRequest(c.Request.Context(), RequestLog{
			Method:    c.Request.Method,
			Path:      path,
			Status:    c.Writer.Status(),
			Latency:   time.Since(start),
			ClientIP:  c.ClientIP(),
			RequestID: c.GetString("request_id"),
			UserID:    c.GetString("user_id"),
		})
	}
}
