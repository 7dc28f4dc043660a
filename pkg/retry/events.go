package retry

import (
	"context"
	"log/slog"
	"time"
)

// EventHandler observes retry events for logging and metrics. Handlers are
// side-effecting only: a panic inside a handler is recovered and never aborts
// the retry loop.
type EventHandler interface {
	// OnRetry is invoked after a retryable failure, before the delay is slept.
	// attempt is the 1-based number of the attempt that just failed.
	OnRetry(ctx context.Context, attempt int, err error, delay time.Duration)

	// OnSuccess is invoked when an execution returns a value
	OnSuccess(ctx context.Context, attempt int, elapsed time.Duration)

	// OnGiveUp is invoked when the attempt or time budget is exhausted
	OnGiveUp(ctx context.Context, attempt int, err error)
}

func (e *Executor) emitRetry(ctx context.Context, attempt int, err error, delay time.Duration) {
	if e.handler == nil {
		return
	}
	defer recoverHandler()
	e.handler.OnRetry(ctx, attempt, err, delay)
}

func (e *Executor) emitSuccess(ctx context.Context, attempt int, elapsed time.Duration) {
	if e.handler == nil {
		return
	}
	defer recoverHandler()
	e.handler.OnSuccess(ctx, attempt, elapsed)
}

func (e *Executor) emitGiveUp(ctx context.Context, attempt int, err error) {
	if e.handler == nil {
		return
	}
	defer recoverHandler()
	e.handler.OnGiveUp(ctx, attempt, err)
}

func recoverHandler() {
	_ = recover()
}

// LogHandler logs retry events through slog
type LogHandler struct {
	logger *slog.Logger
	name   string
}

// NewLogHandler creates an event handler logging to the given logger
func NewLogHandler(logger *slog.Logger, name string) *LogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogHandler{logger: logger, name: name}
}

// OnRetry logs the failed attempt and the upcoming delay
func (h *LogHandler) OnRetry(ctx context.Context, attempt int, err error, delay time.Duration) {
	h.logger.WarnContext(ctx, "operation failed, retrying",
		"name", h.name, "attempt", attempt, "delay", delay, "error", err)
}

// OnSuccess logs recovery after at least one retry
func (h *LogHandler) OnSuccess(ctx context.Context, attempt int, elapsed time.Duration) {
	if attempt > 1 {
		h.logger.InfoContext(ctx, "operation recovered",
			"name", h.name, "attempt", attempt, "elapsed", elapsed)
	}
}

// OnGiveUp logs budget exhaustion
func (h *LogHandler) OnGiveUp(ctx context.Context, attempt int, err error) {
	h.logger.ErrorContext(ctx, "operation failed, giving up",
		"name", h.name, "attempts", attempt, "error", err)
}

// onRetryFunc adapts a plain callback to the EventHandler interface
type onRetryFunc func(err error, attempt int)

func (f onRetryFunc) OnRetry(_ context.Context, attempt int, err error, _ time.Duration) {
	f(err, attempt)
}

func (f onRetryFunc) OnSuccess(context.Context, int, time.Duration) {}

func (f onRetryFunc) OnGiveUp(context.Context, int, error) {}
