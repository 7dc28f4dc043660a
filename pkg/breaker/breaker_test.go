package breaker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/goresilience/internal/testutils"
	"github.com/jzx17/goresilience/pkg/types"
)

var (
	errDown      = types.WrapKind(types.KindConnection, errors.New("connection refused"))
	errPermanent = types.WrapKind(types.KindPermanent, errors.New("bad request"))
)

func failing(err error) func(ctx context.Context) error {
	return func(ctx context.Context) error { return err }
}

func succeeding(ctx context.Context) error { return nil }

func TestBreaker_InitialState(t *testing.T) {
	b := New(3, 100*time.Millisecond)

	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.FailureCount())
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b := New(3, 100*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := b.Call(ctx, failing(errDown))
		assert.ErrorIs(t, err, errDown)
	}
	assert.Equal(t, StateClosed, b.State(), "below threshold the breaker stays closed")
	assert.Equal(t, 2, b.FailureCount())

	err := b.Call(ctx, failing(errDown))
	assert.ErrorIs(t, err, errDown, "the threshold failure itself passes through")
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, 3, b.FailureCount())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New(3, 100*time.Millisecond)
	ctx := context.Background()

	require.Error(t, b.Call(ctx, failing(errDown)))
	require.Error(t, b.Call(ctx, failing(errDown)))
	require.Equal(t, 2, b.FailureCount())

	require.NoError(t, b.Call(ctx, succeeding))
	assert.Equal(t, 0, b.FailureCount())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_OpenRejectsWithoutInvoking(t *testing.T) {
	mock := testutils.NewMockClock(t)
	b := New(1, 100*time.Millisecond, WithClock(testutils.NewClockWrapper(mock)))
	ctx := context.Background()

	require.Error(t, b.Call(ctx, failing(errDown)))
	require.Equal(t, StateOpen, b.State())

	var invoked int32
	err := b.Call(ctx, func(ctx context.Context) error {
		atomic.AddInt32(&invoked, 1)
		return nil
	})

	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, int32(0), atomic.LoadInt32(&invoked))
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_RecoveryTrialSuccessCloses(t *testing.T) {
	mock := testutils.NewMockClock(t)
	b := New(1, 100*time.Millisecond, WithClock(testutils.NewClockWrapper(mock)))
	ctx := context.Background()

	require.Error(t, b.Call(ctx, failing(errDown)))
	require.Equal(t, StateOpen, b.State())

	mock.Advance(150 * time.Millisecond)

	var invoked int32
	err := b.Call(ctx, func(ctx context.Context) error {
		atomic.AddInt32(&invoked, 1)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&invoked))
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.FailureCount())
}

func TestBreaker_RecoveryTrialFailureReopens(t *testing.T) {
	mock := testutils.NewMockClock(t)
	b := New(1, 100*time.Millisecond, WithClock(testutils.NewClockWrapper(mock)))
	ctx := context.Background()

	require.Error(t, b.Call(ctx, failing(errDown)))
	mock.Advance(150 * time.Millisecond)

	err := b.Call(ctx, failing(errDown))
	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, StateOpen, b.State())
	assert.GreaterOrEqual(t, b.FailureCount(), 1)

	// the fresh failure restarts the recovery timeout
	var invoked int32
	err = b.Call(ctx, func(ctx context.Context) error {
		atomic.AddInt32(&invoked, 1)
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, int32(0), atomic.LoadInt32(&invoked))
}

func TestBreaker_UnclassifiedErrorPassesThrough(t *testing.T) {
	classifier := func(err error) bool {
		return types.IsKind(err, types.KindConnection)
	}

	t.Run("while closed", func(t *testing.T) {
		b := New(1, 100*time.Millisecond, WithClassifier(classifier))
		ctx := context.Background()

		err := b.Call(ctx, failing(errPermanent))
		assert.ErrorIs(t, err, errPermanent)
		assert.Equal(t, StateClosed, b.State())
		assert.Equal(t, 0, b.FailureCount())
	})

	t.Run("during half-open trial", func(t *testing.T) {
		mock := testutils.NewMockClock(t)
		b := New(1, 100*time.Millisecond,
			WithClassifier(classifier),
			WithClock(testutils.NewClockWrapper(mock)))
		ctx := context.Background()

		require.Error(t, b.Call(ctx, failing(errDown)))
		require.Equal(t, StateOpen, b.State())
		mock.Advance(150 * time.Millisecond)

		err := b.Call(ctx, failing(errPermanent))
		assert.ErrorIs(t, err, errPermanent)
		assert.Equal(t, StateHalfOpen, b.State(), "unclassified trial outcome decides nothing")
		assert.Equal(t, 1, b.FailureCount())

		// the trial slot is free again; a successful probe closes the circuit
		require.NoError(t, b.Call(ctx, succeeding))
		assert.Equal(t, StateClosed, b.State())
		assert.Equal(t, 0, b.FailureCount())
	})
}

func TestBreaker_HalfOpenAllowsSingleTrial(t *testing.T) {
	mock := testutils.NewMockClock(t)
	b := New(1, 50*time.Millisecond, WithClock(testutils.NewClockWrapper(mock)))
	ctx := context.Background()

	require.Error(t, b.Call(ctx, failing(errDown)))
	mock.Advance(60 * time.Millisecond)

	started := make(chan struct{})
	release := make(chan struct{})
	trialDone := make(chan error, 1)

	go func() {
		trialDone <- b.Call(ctx, func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	require.Equal(t, StateHalfOpen, b.State())

	// while the trial is in flight, concurrent callers are rejected
	var invoked int32
	err := b.Call(ctx, func(ctx context.Context) error {
		atomic.AddInt32(&invoked, 1)
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, int32(0), atomic.LoadInt32(&invoked))

	close(release)
	require.NoError(t, <-trialDone)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_EndToEndRecovery(t *testing.T) {
	mock := testutils.NewMockClock(t)
	b := New(2, 100*time.Millisecond, WithClock(testutils.NewClockWrapper(mock)))
	ctx := context.Background()

	require.Error(t, b.Call(ctx, failing(errDown)))
	require.Error(t, b.Call(ctx, failing(errDown)))
	assert.Equal(t, StateOpen, b.State())

	err := b.Call(ctx, succeeding)
	assert.ErrorIs(t, err, ErrOpen)

	mock.Advance(150 * time.Millisecond)

	require.NoError(t, b.Call(ctx, succeeding))
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.FailureCount())
}

func TestBreaker_Do(t *testing.T) {
	b := New(1, 100*time.Millisecond, WithName("payments"))
	ctx := context.Background()

	value, err := Do(ctx, b, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", value)

	_, err = Do(ctx, b, func(ctx context.Context) (string, error) {
		return "", errDown
	})
	require.ErrorIs(t, err, errDown)

	value, err = Do(ctx, b, func(ctx context.Context) (string, error) {
		return "unreachable", nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.Contains(t, err.Error(), "payments")
	assert.Empty(t, value)
}

func TestBreaker_StateChangeHook(t *testing.T) {
	type change struct{ from, to State }
	var changes []change

	mock := testutils.NewMockClock(t)
	b := New(1, 100*time.Millisecond,
		WithName("db"),
		WithClock(testutils.NewClockWrapper(mock)),
		WithStateChangeHook(func(name string, from, to State) {
			assert.Equal(t, "db", name)
			changes = append(changes, change{from, to})
		}),
	)
	ctx := context.Background()

	require.Error(t, b.Call(ctx, failing(errDown)))
	mock.Advance(150 * time.Millisecond)
	require.Error(t, b.Call(ctx, failing(errDown)))
	mock.Advance(150 * time.Millisecond)
	require.NoError(t, b.Call(ctx, succeeding))

	want := []change{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}
	assert.Equal(t, want, changes)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}
