package retry

import (
	"errors"

	"github.com/jzx17/goresilience/pkg/types"
)

// Classifier decides whether a failed attempt may be retried. Errors it
// rejects propagate to the caller unwrapped, without consuming the retry
// budget.
type Classifier func(error) bool

// RetryAll treats every error as retryable. This is the default classifier.
func RetryAll(err error) bool {
	return err != nil
}

// RetryMarked retries only errors carrying an explicit retryable marker
// (types.RetryableError with Retryable set).
func RetryMarked(err error) bool {
	return types.IsRetryable(err)
}

// RetryOnKinds builds a classifier that retries errors whose failure kind is
// in the given set.
func RetryOnKinds(kinds ...types.Kind) Classifier {
	set := make(map[types.Kind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}

	return func(err error) bool {
		if err == nil {
			return false
		}
		_, ok := set[types.KindOf(err)]
		return ok
	}
}

// RetryOn builds a classifier that retries errors matching one of the given
// targets via errors.Is.
func RetryOn(targets ...error) Classifier {
	return func(err error) bool {
		if err == nil {
			return false
		}
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}
