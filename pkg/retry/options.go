package retry

import (
	"time"

	"github.com/jzx17/goresilience/pkg/types"
)

// Option is a configuration option for the retry executor
type Option func(*Executor)

// WithName sets the executor name used in events and metrics
func WithName(name string) Option {
	return func(e *Executor) {
		e.name = name
	}
}

// WithBackoff sets the backoff schedule
func WithBackoff(b *Backoff) Option {
	return func(e *Executor) {
		e.backoff = b
	}
}

// WithClassifier sets the retryability classifier. An explicit classifier
// wins over a kind set configured via WithRetryableKinds.
func WithClassifier(c Classifier) Option {
	return func(e *Executor) {
		e.classifier = c
	}
}

// WithRetryableKinds retries only errors whose failure kind is in the set
func WithRetryableKinds(kinds ...types.Kind) Option {
	return func(e *Executor) {
		e.kinds = kinds
	}
}

// WithStopAfter sets a hard wall-clock ceiling on total retry time,
// independent of the attempt budget. The budget is cooperative: it is checked
// between attempts and never preempts an in-flight operation.
func WithStopAfter(d time.Duration) Option {
	return func(e *Executor) {
		e.stopAfter = d
	}
}

// WithEventHandler sets the event handler
func WithEventHandler(handler EventHandler) Option {
	return func(e *Executor) {
		e.handler = handler
	}
}

// WithOnRetry registers a per-attempt observer callback
func WithOnRetry(fn func(err error, attempt int)) Option {
	return func(e *Executor) {
		e.handler = onRetryFunc(fn)
	}
}

// WithBreaker routes every attempt through the circuit breaker
func WithBreaker(b Breaker) Option {
	return func(e *Executor) {
		e.breaker = b
	}
}

// WithClock sets the clock for time operations
func WithClock(clock types.Clock) Option {
	return func(e *Executor) {
		e.clock = clock
	}
}
