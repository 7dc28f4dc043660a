package retry

import (
	"fmt"
	"time"

	"github.com/jzx17/goresilience/pkg/types"
)

// Statistics accumulates bookkeeping for a single execution. It is created
// when the execution starts, updated after every retryable failure, and
// frozen (EndTime set) when the execution gives up. Statistics are private to
// one execution and are never shared between goroutines.
type Statistics struct {
	// AttemptsMade is the number of attempts that failed with a retryable error
	AttemptsMade int

	// TotalDelay is the cumulative backoff delay actually slept
	TotalDelay time.Duration

	// StartTime is when the execution started
	StartTime time.Time

	// EndTime is when the execution gave up; zero while running
	EndTime time.Time

	// FailureKinds holds the failure kind of every failed attempt, in order
	FailureKinds []types.Kind
}

// Elapsed returns the wall-clock time between start and give-up
func (s Statistics) Elapsed() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Error is the terminal failure of an exhausted retry budget. It carries the
// last underlying error plus the full execution statistics so callers can
// report how the budget was spent.
type Error struct {
	// Err is the error of the final attempt
	Err error

	// Attempts is the number of attempts made; always equals Stats.AttemptsMade
	Attempts int

	// Stats is the frozen execution statistics
	Stats Statistics
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("retry: giving up after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the error of the final attempt
func (e *Error) Unwrap() error {
	return e.Err
}
