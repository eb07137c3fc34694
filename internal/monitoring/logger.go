// Package monitoring provides structured logging via zerolog.
//
// DESIGN: Thin wrapper around zerolog with:
//   - Configurable level, format (json/console/auto), output (stdout/file)
//   - Global() sets the default logger for the entire application
//   - Call ID context helpers for call tracing
//
// Format "auto" picks console when the output is a terminal, json otherwise.
package monitoring

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Context keys for call tracking.
type contextKey string

const CallIDKey contextKey = "call_id"

// LoggerConfig controls logger construction.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console, auto
	Output string `yaml:"output"` // stdout, stderr, or file path
}

// Logger wraps zerolog.Logger.
type Logger struct {
	zl zerolog.Logger
}

// New creates a new Logger with the given configuration.
func New(cfg LoggerConfig) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var writer io.Writer
	isTerminal := false
	switch cfg.Output {
	case "stdout", "":
		writer = os.Stdout
		isTerminal = term.IsTerminal(int(os.Stdout.Fd()))
	case "stderr":
		writer = os.Stderr
		isTerminal = term.IsTerminal(int(os.Stderr.Fd()))
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			writer = os.Stdout
		} else {
			writer = f
		}
	}

	if cfg.Format == "console" || (cfg.Format == "auto" && isTerminal) {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"}
	}

	zl := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// Global sets the global zerolog logger.
func Global(cfg LoggerConfig) {
	logger := New(cfg)
	log.Logger = logger.zl
}

// Debug returns a debug event.
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }

// Info returns an info event.
func (l *Logger) Info() *zerolog.Event { return l.zl.Info() }

// Warn returns a warn event.
func (l *Logger) Warn() *zerolog.Event { return l.zl.Warn() }

// Error returns an error event.
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }

// CallIDFromContext retrieves the call ID from context.
func CallIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(CallIDKey).(string); ok {
		return id
	}
	return ""
}

// WithCallIDContext returns a new context with the call ID.
func WithCallIDContext(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, CallIDKey, callID)
}
