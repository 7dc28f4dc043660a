// Package breaker provides a circuit breaker for fault isolation of shared
// downstream dependencies.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jzx17/goresilience/pkg/types"
)

// State is the circuit breaker state
type State int

// Circuit breaker states
const (
	// StateClosed indicates normal operation; calls pass through
	StateClosed State = iota

	// StateOpen indicates calls are rejected without invoking the operation
	StateOpen

	// StateHalfOpen indicates exactly one trial call is permitted
	StateHalfOpen
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Defaults for registry-built breakers
const (
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 30 * time.Second
)

// ErrOpen is returned when a call is rejected because the circuit is open.
// Callers distinguish it from operation failures via errors.Is.
var ErrOpen = errors.New("circuit breaker is open")

// Classifier decides which errors count toward the failure threshold.
// Non-matching errors propagate unchanged and never affect breaker state.
type Classifier func(error) bool

// StateChangeHook observes state transitions, e.g. for metrics
type StateChangeHook func(name string, from, to State)

// Breaker is a shared, long-lived state machine wrapping a class of
// operations against one downstream dependency. It short-circuits invocation
// once classified failures reach the threshold and probes recovery with a
// single trial call after the recovery timeout. A Breaker is safe for
// concurrent use; all state is guarded by one mutex.
type Breaker struct {
	name             string
	failureThreshold int
	recoveryTimeout  time.Duration
	classifier       Classifier
	onStateChange    StateChangeHook
	clock            types.Clock

	mu              sync.Mutex
	state           State
	failureCount    int
	lastFailureTime time.Time
	trialInFlight   bool
}

// New creates a circuit breaker. By default every error counts toward the
// threshold.
func New(failureThreshold int, recoveryTimeout time.Duration, opts ...Option) *Breaker {
	b := &Breaker{
		name:             "default",
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		clock:            types.NewRealClock(),
		state:            StateClosed,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.failureThreshold < 1 {
		b.failureThreshold = 1
	}
	if b.classifier == nil {
		b.classifier = func(err error) bool { return err != nil }
	}

	return b
}

// Option is a configuration option for a circuit breaker
type Option func(*Breaker)

// WithName sets the breaker name used in errors, hooks, and metrics
func WithName(name string) Option {
	return func(b *Breaker) {
		b.name = name
	}
}

// WithClassifier restricts which errors count toward the threshold
func WithClassifier(c Classifier) Option {
	return func(b *Breaker) {
		b.classifier = c
	}
}

// WithStateChangeHook observes state transitions. The hook runs while the
// breaker lock is held and must not call back into the breaker.
func WithStateChangeHook(hook StateChangeHook) Option {
	return func(b *Breaker) {
		b.onStateChange = hook
	}
}

// WithClock sets the clock for time operations
func WithClock(clock types.Clock) Option {
	return func(b *Breaker) {
		b.clock = clock
	}
}

// Name returns the breaker name
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state for health-check reporting. The lazy
// OPEN to HALF_OPEN transition happens on the next Call, not here.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// FailureCount returns the consecutive classified failure count
func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}

// Call invokes fn unless the circuit is open. In the open state, before the
// recovery timeout elapses, it returns ErrOpen without invoking fn. The first
// call after the timeout transitions to half-open and runs as the single
// trial; concurrent calls during the trial are rejected with ErrOpen.
func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.acquire(); err != nil {
		return err
	}

	err := fn(ctx)
	b.record(err)
	return err
}

// Do invokes a value-returning operation through the breaker
func Do[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var value T
	err := b.Call(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err == nil {
			value = v
		}
		return err
	})
	return value, err
}

// acquire decides whether a call may proceed and reserves the half-open
// trial slot when probing
func (b *Breaker) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil

	case StateOpen:
		if b.clock.Since(b.lastFailureTime) < b.recoveryTimeout {
			return b.rejection()
		}
		b.transition(StateHalfOpen)
		b.trialInFlight = true
		return nil

	case StateHalfOpen:
		if b.trialInFlight {
			// the single trial slot is taken
			return b.rejection()
		}
		b.trialInFlight = true
		return nil

	default:
		return fmt.Errorf("circuit breaker %q in unknown state %d", b.name, b.state)
	}
}

// record applies the transition rules for the outcome of an admitted call
func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasTrial := b.state == StateHalfOpen
	if wasTrial {
		b.trialInFlight = false
	}

	if err == nil {
		b.failureCount = 0
		if b.state != StateClosed {
			b.transition(StateClosed)
		}
		return
	}

	if !b.classifier(err) {
		// unclassified errors never affect breaker state
		return
	}

	b.failureCount++
	b.lastFailureTime = b.clock.Now()

	if wasTrial {
		b.transition(StateOpen)
		return
	}

	if b.state == StateClosed && b.failureCount >= b.failureThreshold {
		b.transition(StateOpen)
	}
}

// transition changes state and fires the hook; callers hold b.mu
func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	if b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}

// rejection wraps ErrOpen with the breaker name; callers hold b.mu
func (b *Breaker) rejection() error {
	return fmt.Errorf("%s: %w", b.name, ErrOpen)
}
