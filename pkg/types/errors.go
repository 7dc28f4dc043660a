// Package types defines error types
package types

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind is a coarse failure classification used by retry and circuit breaker
// policies. Collaborators tag their domain errors with a Kind instead of
// exposing concrete error types to the resilience core.
type Kind string

// Predefined failure kinds
const (
	// KindConnection indicates a failure to establish or keep a connection
	KindConnection Kind = "connection"

	// KindTimeout indicates an operation that ran out of time
	KindTimeout Kind = "timeout"

	// KindRateLimit indicates the remote side is shedding load
	KindRateLimit Kind = "rate_limit"

	// KindUnavailable indicates the dependency is known to be down
	KindUnavailable Kind = "unavailable"

	// KindPermanent indicates a failure that will not heal on its own
	KindPermanent Kind = "permanent"

	// KindUnknown is reported for errors without a kind tag
	KindUnknown Kind = "unknown"
)

// KindError tags an underlying error with a failure kind
type KindError struct {
	// Kind is the failure classification
	Kind Kind

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *KindError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error
func (e *KindError) Unwrap() error {
	return e.Err
}

// WrapKind tags err with the given kind
func WrapKind(kind Kind, err error) *KindError {
	return &KindError{Kind: kind, Err: err}
}

// KindOf extracts the failure kind of an error. Context cancellation and
// deadline errors map to KindTimeout; untagged errors map to KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var kindErr *KindError
	if errors.As(err, &kindErr) {
		return kindErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}

	return KindUnknown
}

// IsKind checks whether err carries the given kind tag
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// RetryableError marks an error with an explicit retryability decision
type RetryableError struct {
	// Err is the underlying error
	Err error

	// Retryable indicates whether the error is retryable
	Retryable bool

	// RetryAfter is the suggested retry delay
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *RetryableError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error carries an explicit retryable marker
func IsRetryable(err error) bool {
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}
	return false
}

// SuggestedDelay returns the retry delay suggested by the error, if any
func SuggestedDelay(err error) time.Duration {
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.RetryAfter
	}
	return 0
}
