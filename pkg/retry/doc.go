// Package retry provides a retry executor with exponential backoff and jitter.
//
// Key Features:
//
// 1. Backoff schedule:
//   - Exponential growth with a configurable base
//   - Delay ceiling, never exceeded even with jitter
//   - Multiplicative jitter drawn uniformly from a configurable range
//
// 2. Error classification:
//   - RetryAll: every error is retryable (default)
//   - RetryOnKinds: retry on a set of failure kinds
//   - RetryOn: retry on sentinel errors via errors.Is
//   - RetryMarked: retry errors carrying an explicit retryable marker
//   - Non-retryable errors propagate unwrapped after a single attempt
//
// 3. Retry budgets:
//   - Attempt budget (max attempts)
//   - Optional wall-clock budget checked between attempts
//   - Terminal failures carry full execution statistics
//
// 4. Execution shapes:
//   - Do: cooperative, delay waits yield to context cancellation
//   - DoSync: blocking, for callers without a context
//   - DoAsync: runs on a goroutine and delivers a Result on a channel
//   - Both shapes share one decision loop; only the wait step differs
//
// Basic usage example:
//
//	executor := retry.New(5,
//		retry.WithBackoff(retry.NewBackoff(
//			retry.WithInitialDelay(100*time.Millisecond),
//			retry.WithMaxDelay(5*time.Second),
//		)),
//		retry.WithRetryableKinds(types.KindConnection, types.KindTimeout),
//	)
//
//	result, err := retry.Do(ctx, executor, func(ctx context.Context) (string, error) {
//		return callDownstream(ctx)
//	})
//
// On budget exhaustion err is a *retry.Error carrying the last underlying
// error, the attempt count, and the accumulated statistics:
//
//	var rerr *retry.Error
//	if errors.As(err, &rerr) {
//		log.Printf("gave up after %d attempts over %v", rerr.Attempts, rerr.Stats.Elapsed())
//	}
//
// Event handling:
//
//	executor := retry.New(3,
//		retry.WithEventHandler(retry.NewLogHandler(slog.Default(), "billing-api")))
//
// Thread safety:
//
// An Executor is immutable after construction and safe for concurrent use;
// each Do call keeps its statistics private.
package retry
