// Package logger configures zerolog for the command line tool and adapts it
// to the logging.Logger interface the library packages accept.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hsiuhsiu/acbrlib-go/internal/config"
	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib/logging"
)

// sensitivePatterns match INI assignments whose values are secrets: the
// certificate password, the crypt key and proxy credentials.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)((?:senha|chavecrypt|chave_crypt|crypt_?key|proxysenha|password)\s*[=:]\s*)([^\s"\\]+)`),
}

type maskedWriter struct {
	underlying io.Writer
}

func (w *maskedWriter) Write(p []byte) (int, error) {
	if _, err := w.underlying.Write([]byte(MaskSensitive(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Setup builds the process logger from cfg, installs it as zerolog's global
// logger and returns it. When the log file cannot be opened it falls back to
// stderr and says so.
func Setup(cfg config.LoggingConfig) zerolog.Logger {
	var out io.Writer = os.Stderr
	var fileErr error
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			fileErr = err
		} else {
			out = f
		}
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	l := New(cfg, out)
	log.Logger = l
	if fileErr != nil {
		l.Warn().Err(fileErr).Str("file", cfg.File).Msg("cannot open log file, using stderr")
	}
	return l
}

// New builds a logger writing to out with the format and level of cfg.
func New(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	out = &maskedWriter{underlying: out}
	if strings.EqualFold(cfg.Format, "text") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// MaskSensitive hides secret INI values in s.
func MaskSensitive(s string) string {
	for _, p := range sensitivePatterns {
		s = p.ReplaceAllString(s, "${1}***")
	}
	return s
}

// Adapter exposes zl through logging.Logger. Arguments follow slog: alternating
// keys and values, or slog.Attr values.
func Adapter(zl zerolog.Logger) logging.Logger {
	return adapter{logger: zl}
}

type adapter struct {
	logger zerolog.Logger
}

func (a adapter) Debug(ctx context.Context, msg string, args ...any) {
	a.emit(a.logger.Debug(), msg, args)
}

func (a adapter) Info(ctx context.Context, msg string, args ...any) {
	a.emit(a.logger.Info(), msg, args)
}

func (a adapter) Warn(ctx context.Context, msg string, args ...any) {
	a.emit(a.logger.Warn(), msg, args)
}

func (a adapter) Error(ctx context.Context, msg string, args ...any) {
	a.emit(a.logger.Error(), msg, args)
}

func (a adapter) With(args ...any) logging.Logger {
	c := a.logger.With()
	forEachAttr(args, func(key string, value any) {
		c = c.Interface(key, value)
	})
	return adapter{logger: c.Logger()}
}

func (a adapter) emit(e *zerolog.Event, msg string, args []any) {
	if e == nil {
		return
	}
	forEachAttr(args, func(key string, value any) {
		if err, ok := value.(error); ok {
			e = e.AnErr(key, err)
			return
		}
		e = e.Interface(key, value)
	})
	e.Msg(msg)
}

// forEachAttr walks slog-style arguments. A dangling key is reported under
// "!BADKEY" like slog does.
func forEachAttr(args []any, fn func(key string, value any)) {
	for i := 0; i < len(args); {
		switch a := args[i].(type) {
		case slog.Attr:
			fn(a.Key, a.Value.Resolve().Any())
			i++
		case string:
			if i+1 >= len(args) {
				fn("!BADKEY", a)
				return
			}
			fn(a, attrValue(args[i+1]))
			i += 2
		default:
			fn("!BADKEY", fmt.Sprint(a))
			i++
		}
	}
}

func attrValue(v any) any {
	switch x := v.(type) {
	case fmt.Stringer:
		return x.String()
	default:
		return v
	}
}
