// Package monitoring - call_logger.go logs the call lifecycle via hooks.
//
// DESIGN: Instead of wiring logging into the dispatch engine, the call
// logger is registered as global-scope before/after/error hooks. Start and
// completion log at DEBUG; failures log at ERROR; calls slower than the
// configured threshold log at WARN.
package monitoring

import (
	"time"

	"github.com/manifoldhq/manifold/internal/hooks"
)

// CallLogger emits lifecycle logs for dispatched calls.
type CallLogger struct {
	logger *Logger
	slow   time.Duration
}

// NewCallLogger creates a call logger. slow is the latency above which a
// completed call is flagged; zero disables the flag.
func NewCallLogger(logger *Logger, slow time.Duration) *CallLogger {
	return &CallLogger{logger: logger, slow: slow}
}

// Hooks returns the global-scope registration that wires call logging.
func (cl *CallLogger) Hooks() hooks.Map {
	return hooks.Map{
		Before: hooks.Methods{hooks.AllMethods: {cl.logStart}},
		After:  hooks.Methods{hooks.AllMethods: {cl.logComplete}},
		Error:  hooks.Methods{hooks.AllMethods: {cl.logFailure}},
	}
}

func (cl *CallLogger) logStart(ctx *hooks.Context) error {
	cl.logger.Debug().
		Str("call_id", ctx.CallID).
		Str("path", ctx.Path).
		Str("method", ctx.Method).
		Msg("call started")
	return nil
}

func (cl *CallLogger) logComplete(ctx *hooks.Context) error {
	latency := time.Since(ctx.StartedAt)

	event := cl.logger.Debug()
	if cl.slow > 0 && latency > cl.slow {
		event = cl.logger.Warn().Bool("slow", true)
	}
	event.
		Str("call_id", ctx.CallID).
		Str("path", ctx.Path).
		Str("method", ctx.Method).
		Dur("duration", latency).
		Msg("call completed")
	return nil
}

func (cl *CallLogger) logFailure(ctx *hooks.Context) error {
	if ctx.Err == nil {
		// An earlier error hook already handled the failure.
		return nil
	}
	cl.logger.Error().
		Str("call_id", ctx.CallID).
		Str("path", ctx.Path).
		Str("method", ctx.Method).
		Err(ctx.Err).
		Msg("call failed")
	return nil
}
