// Package logger builds the structured logger shared by every TFQ
// component. It follows the option pattern used throughout the rest of
// the codebase rather than exposing a package-level singleton.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// Logger is a thin handle around *slog.Logger kept distinct so call
// sites don't need to import log/slog directly.
type Logger struct {
	*slog.Logger
}

type options struct {
	debug   bool
	quiet   bool
	format  string
	logFile *os.File
}

// Option configures New.
type Option func(*options)

// WithDebug lowers the minimum level to slog.LevelDebug.
func WithDebug() Option { return func(o *options) { o.debug = true } }

// WithQuiet suppresses the console sink; only a log file (if attached
// with WithLogFile) receives records.
func WithQuiet() Option { return func(o *options) { o.quiet = true } }

// WithFormat selects "json" or "text" console output. Unknown values
// fall back to "text".
func WithFormat(format string) Option { return func(o *options) { o.format = format } }

// WithLogFile attaches an additional sink; records fan out to both the
// console (unless WithQuiet) and the file via slog-multi.
func WithLogFile(f *os.File) Option { return func(o *options) { o.logFile = f } }

// New builds a Logger from the given options. With no options it logs
// text at Info level to stderr.
func New(opts ...Option) *Logger {
	var o options
	for _, apply := range opts {
		apply(&o)
	}

	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}

	var handlers []slog.Handler
	if !o.quiet {
		handlers = append(handlers, consoleHandler(os.Stderr, o.format, level))
	}
	if o.logFile != nil {
		handlers = append(handlers, slog.NewJSONHandler(o.logFile, &slog.HandlerOptions{Level: level}))
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})
	case 1:
		handler = handlers[0]
	default:
		handler = slogmulti.Fanout(handlers...)
	}

	return &Logger{Logger: slog.New(handler)}
}

func consoleHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Debug logs a debug-level parse/diagnostic message against a context
// logger, falling back to the default logger if ctx carries none.
func Debug(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

type ctxKey struct{}

// WithContext attaches l to ctx for retrieval via FromContext.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger attached to ctx, or a default
// text-to-stderr logger if none was attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok && l != nil {
		return l
	}
	return defaultLogger
}

var defaultLogger = New()
