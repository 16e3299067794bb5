package logging

import (
	"context"
	"log/slog"
)

const (
	// ComponentKey names the attribute identifying which part of acbrlib
	// emitted a record.
	ComponentKey = "component"

	componentPrefix     = "acbrlib."
	redactedPlaceholder = "[redacted]"
)

// Logger is the context-aware subset of slog that the loader and the bindings
// log through.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// New wraps logger, or slog.Default() when it is nil.
func New(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slogLogger{logger: logger}
}

// Nop returns a Logger that drops every record without formatting it.
func Nop() Logger { return nopLogger{} }

// Component scopes l to one part of acbrlib. The attribute value is prefixed
// with "acbrlib." so records from the loader and the bindings group together
// in a shared sink.
func Component(l Logger, name string) Logger {
	if l == nil {
		l = New(nil)
	}
	return l.With(ComponentKey, componentPrefix+name)
}

type slogLogger struct {
	logger *slog.Logger
}

func (l slogLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l slogLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l slogLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l slogLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l slogLogger) With(args ...any) Logger {
	return slogLogger{logger: l.logger.With(args...)}
}

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any) {}
func (nopLogger) Warn(context.Context, string, ...any) {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) Logger { return n }

// Redacted stands in for a secret such as the eSocial crypt key: the record
// shows that a value was supplied without carrying it.
func Redacted(key string) slog.Attr {
	return slog.String(key, redactedPlaceholder)
}

// Placeholder is the value every Redacted attribute carries.
func Placeholder() string { return redactedPlaceholder }
