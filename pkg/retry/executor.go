package retry

import (
	"context"
	"time"

	"github.com/jzx17/goresilience/pkg/types"
)

// DefaultMaxAttempts is used when New is given a non-positive attempt budget
const DefaultMaxAttempts = 3

// Operation is the function type to retry
type Operation[T any] func(ctx context.Context) (T, error)

// Breaker gates whether an attempt is started at all. It is satisfied by
// *breaker.Breaker; the executor and the breaker share no mutable state.
type Breaker interface {
	Call(ctx context.Context, fn func(ctx context.Context) error) error
}

// Executor orchestrates repeated invocation of a fallible operation using a
// backoff schedule, an error classifier, and an optional wall-clock budget.
// An Executor is immutable after construction and safe for concurrent use;
// per-execution state lives in the Do/DoSync call.
type Executor struct {
	name        string
	maxAttempts int
	backoff     *Backoff
	classifier  Classifier
	kinds       []types.Kind
	stopAfter   time.Duration
	handler     EventHandler
	breaker     Breaker
	clock       types.Clock
}

// New creates a retry executor. Defaults: 3 attempts, exponential backoff per
// NewBackoff, every error retryable, no time budget, no observer.
func New(maxAttempts int, opts ...Option) *Executor {
	e := &Executor{
		name:        "default",
		maxAttempts: maxAttempts,
		clock:       types.NewRealClock(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.maxAttempts < 1 {
		e.maxAttempts = DefaultMaxAttempts
	}
	if e.backoff == nil {
		e.backoff = NewBackoff()
	}
	if e.classifier == nil {
		// an explicit classifier wins over a configured kind set
		if len(e.kinds) > 0 {
			e.classifier = RetryOnKinds(e.kinds...)
		} else {
			e.classifier = RetryAll
		}
	}

	return e
}

// Name returns the executor name used in events and metrics
func (e *Executor) Name() string {
	return e.name
}

// MaxAttempts returns the attempt budget
func (e *Executor) MaxAttempts() int {
	return e.maxAttempts
}

// waitFunc suspends between attempts; it is the only step that differs
// between the cooperative and the blocking execution shape
type waitFunc func(ctx context.Context, d time.Duration) error

// Do executes fn with retries, suspending cooperatively between attempts:
// the delay wait yields to ctx cancellation and surfaces ctx.Err().
func Do[T any](ctx context.Context, e *Executor, fn Operation[T]) (T, error) {
	return run(ctx, e, fn, e.waitContext)
}

// DoSync executes fn with retries, blocking the calling goroutine for each
// delay. Retry and backoff decisions are identical to Do for the same inputs.
func DoSync[T any](e *Executor, fn func() (T, error)) (T, error) {
	op := func(context.Context) (T, error) { return fn() }
	return run(context.Background(), e, op, e.waitBlocking)
}

// DoAsync executes fn with retries on a new goroutine and delivers the
// outcome on the returned channel.
func DoAsync[T any](ctx context.Context, e *Executor, fn Operation[T]) <-chan types.Result[T] {
	resultChan := make(chan types.Result[T], 1)

	go func() {
		defer close(resultChan)

		start := e.clock.Now()
		value, err := Do(ctx, e, fn)

		resultChan <- types.Result[T]{
			Value:    value,
			Error:    err,
			Duration: e.clock.Since(start),
		}
	}()

	return resultChan
}

// Run executes a value-less operation with retries
func (e *Executor) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// run is the shared retry loop; both execution shapes route through it so the
// retry and backoff decisions are written once
func run[T any](ctx context.Context, e *Executor, fn Operation[T], wait waitFunc) (T, error) {
	var zero T
	stats := Statistics{StartTime: e.clock.Now()}

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := invoke(ctx, e, fn)
		if err == nil {
			e.emitSuccess(ctx, attempt+1, e.clock.Since(stats.StartTime))
			return result, nil
		}

		if !e.classifier(err) {
			// escape hatch for permanent failures: propagate unwrapped
			return zero, err
		}

		stats.AttemptsMade++
		stats.FailureKinds = append(stats.FailureKinds, types.KindOf(err))

		delay := e.nextDelay(attempt, err)
		elapsed := e.clock.Since(stats.StartTime)

		// The time budget is checked before the attempt budget, and a sleep
		// that would overrun the budget is never started.
		budgetSpent := e.stopAfter > 0 &&
			(elapsed >= e.stopAfter || elapsed+delay > e.stopAfter)

		if budgetSpent || attempt == e.maxAttempts-1 {
			stats.EndTime = e.clock.Now()
			e.emitGiveUp(ctx, attempt+1, err)
			return zero, &Error{Err: err, Attempts: attempt + 1, Stats: stats}
		}

		stats.TotalDelay += delay
		e.emitRetry(ctx, attempt+1, err, delay)

		if werr := wait(ctx, delay); werr != nil {
			return zero, werr
		}
	}

	// unreachable: the loop always returns on the last attempt
	return zero, nil
}

// invoke runs a single attempt, routed through the breaker when configured
func invoke[T any](ctx context.Context, e *Executor, fn Operation[T]) (T, error) {
	if e.breaker == nil {
		return fn(ctx)
	}

	var value T
	err := e.breaker.Call(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err == nil {
			value = v
		}
		return err
	})
	return value, err
}

// nextDelay computes the backoff delay for the attempt, honoring a larger
// delay suggested by the error itself (e.g. Retry-After), capped at the
// backoff ceiling
func (e *Executor) nextDelay(attempt int, err error) time.Duration {
	delay := e.backoff.Delay(attempt)

	if hint := types.SuggestedDelay(err); hint > delay {
		delay = hint
		if max := e.backoff.MaxDelay(); delay > max {
			delay = max
		}
	}

	return delay
}

// waitContext suspends without blocking other work; ctx cancellation wins
func (e *Executor) waitContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := e.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}

// waitBlocking suspends by blocking the calling goroutine
func (e *Executor) waitBlocking(_ context.Context, d time.Duration) error {
	if d > 0 {
		e.clock.Sleep(d)
	}
	return nil
}
