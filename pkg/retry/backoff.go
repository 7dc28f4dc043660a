package retry

import (
	"math"
	"math/rand"
	"time"
)

// Default backoff configuration
const (
	DefaultInitialDelay    = 1 * time.Second
	DefaultMaxDelay        = 60 * time.Second
	DefaultExponentialBase = 2.0
	DefaultJitterLow       = 0.5
	DefaultJitterHigh      = 1.5
)

// Backoff computes the delay inserted before a retry attempt. The delay grows
// exponentially with the attempt number, is clamped to a ceiling, and is
// optionally randomized by a multiplicative jitter range.
type Backoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	base         float64
	jitter       bool
	jitterLow    float64
	jitterHigh   float64
}

// NewBackoff creates a backoff schedule. Defaults: 1s initial delay, 60s
// ceiling, base 2.0, jitter enabled in [0.5, 1.5].
func NewBackoff(opts ...BackoffOption) *Backoff {
	b := &Backoff{
		initialDelay: DefaultInitialDelay,
		maxDelay:     DefaultMaxDelay,
		base:         DefaultExponentialBase,
		jitter:       true,
		jitterLow:    DefaultJitterLow,
		jitterHigh:   DefaultJitterHigh,
	}

	for _, opt := range opts {
		opt(b)
	}

	b.normalize()
	return b
}

// Delay calculates the delay before retrying after the given attempt.
// attempt is zero-based: Delay(0) follows the first failure.
func (b *Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(b.initialDelay) * math.Pow(b.base, float64(attempt))
	if delay > float64(b.maxDelay) {
		delay = float64(b.maxDelay)
	}

	if b.jitter {
		delay *= b.jitterLow + rand.Float64()*(b.jitterHigh-b.jitterLow)
	}

	// never negative, never above the ceiling
	if delay < 0 {
		delay = 0
	}
	if delay > float64(b.maxDelay) {
		delay = float64(b.maxDelay)
	}

	return time.Duration(delay)
}

// MaxDelay returns the configured delay ceiling
func (b *Backoff) MaxDelay() time.Duration {
	return b.maxDelay
}

// normalize clamps configuration into the supported ranges
func (b *Backoff) normalize() {
	if b.initialDelay < 0 {
		b.initialDelay = 0
	}
	if b.maxDelay < b.initialDelay {
		b.maxDelay = b.initialDelay
	}
	if b.base <= 1 {
		b.base = DefaultExponentialBase
	}
	if b.jitterLow < 0 {
		b.jitterLow = 0
	}
	if b.jitterHigh < b.jitterLow {
		b.jitterHigh = b.jitterLow
	}
}

// BackoffOption is a configuration option for a backoff schedule
type BackoffOption func(*Backoff)

// WithInitialDelay sets the delay before the first retry
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *Backoff) {
		b.initialDelay = d
	}
}

// WithMaxDelay sets the maximum delay time
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *Backoff) {
		b.maxDelay = d
	}
}

// WithExponentialBase sets the growth factor between attempts
func WithExponentialBase(base float64) BackoffOption {
	return func(b *Backoff) {
		b.base = base
	}
}

// WithJitter enables or disables delay randomization
func WithJitter(enabled bool) BackoffOption {
	return func(b *Backoff) {
		b.jitter = enabled
	}
}

// WithJitterRange sets the multiplicative jitter bounds applied to the
// computed delay
func WithJitterRange(low, high float64) BackoffOption {
	return func(b *Backoff) {
		b.jitterLow = low
		b.jitterHigh = high
	}
}
