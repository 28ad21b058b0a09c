package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// Logger defines the interface for logging messages.
type Logger interface {
	Error(msg string, err error)
	Warn(msg string)
	Info(msg string)
	Debug(msg string)
}

type slogLogger struct {
	logger *slog.Logger
}

// New creates a JSON logger writing to stdout at the given level
// ("debug", "info", "warn" or "error"; anything else means info).
func New(level string) Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter creates a JSON logger writing to w.
func NewWithWriter(w io.Writer, level string) Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     ParseLevel(level),
	})
	return &slogLogger{logger: slog.New(handler)}
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() Logger {
	return NewWithWriter(io.Discard, "error")
}

// ParseLevel maps a textual level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StdLogger exposes the logger as a *log.Logger for libraries that want one
// (cron, gorm). Output is written at the given level.
func StdLogger(l Logger, level slog.Level) *log.Logger {
	if sl, ok := l.(*slogLogger); ok {
		return slog.NewLogLogger(sl.logger.Handler(), level)
	}
	return log.New(os.Stdout, "", log.LstdFlags)
}

// Error logs an error message together with the error that caused it.
func (l *slogLogger) Error(msg string, err error) {
	if err != nil {
		l.output(slog.LevelError, msg, slog.String("error", err.Error()))
		return
	}
	l.output(slog.LevelError, msg)
}

// Warn logs a warning message.
func (l *slogLogger) Warn(msg string) {
	l.output(slog.LevelWarn, msg)
}

// Info logs an informational message.
func (l *slogLogger) Info(msg string) {
	l.output(slog.LevelInfo, msg)
}

// Debug logs a debug message.
func (l *slogLogger) Debug(msg string) {
	l.output(slog.LevelDebug, msg)
}

// output records the caller of the public method as the source location.
func (l *slogLogger) output(level slog.Level, msg string, attrs ...slog.Attr) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.AddAttrs(attrs...)
	if err := l.logger.Handler().Handle(ctx, r); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
	}
}
