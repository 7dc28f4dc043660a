package retry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jzx17/goresilience/pkg/types"
)

func TestRetryAll(t *testing.T) {
	assert.False(t, RetryAll(nil))
	assert.True(t, RetryAll(errors.New("anything")))
}

func TestRetryOnKinds(t *testing.T) {
	classify := RetryOnKinds(types.KindConnection, types.KindTimeout)

	base := errors.New("boom")

	assert.True(t, classify(types.WrapKind(types.KindConnection, base)))
	assert.True(t, classify(types.WrapKind(types.KindTimeout, base)))
	assert.True(t, classify(fmt.Errorf("outer: %w", types.WrapKind(types.KindConnection, base))))

	assert.False(t, classify(types.WrapKind(types.KindPermanent, base)))
	assert.False(t, classify(base)) // untagged maps to KindUnknown
	assert.False(t, classify(nil))
}

func TestRetryOn(t *testing.T) {
	errUnavailable := errors.New("service unavailable")
	errThrottled := errors.New("throttled")
	classify := RetryOn(errUnavailable, errThrottled)

	assert.True(t, classify(errUnavailable))
	assert.True(t, classify(fmt.Errorf("call failed: %w", errThrottled)))
	assert.False(t, classify(errors.New("bad request")))
	assert.False(t, classify(nil))
}

func TestRetryMarked(t *testing.T) {
	base := errors.New("boom")

	assert.True(t, RetryMarked(&types.RetryableError{Err: base, Retryable: true}))
	assert.False(t, RetryMarked(&types.RetryableError{Err: base, Retryable: false}))
	assert.False(t, RetryMarked(base))
	assert.False(t, RetryMarked(nil))
}
