package qslot

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotErrorFormat(t *testing.T) {
	err := NewError(ErrCodeEmptyDistribution, "outcome distribution is empty or all-zero")
	assert.Equal(t, "[QSLOT_2002] outcome distribution is empty or all-zero", err.Error())

	detailed := err.WithDetails("after truncation")
	assert.Contains(t, detailed.Error(), "after truncation")
	// The original instance stays untouched.
	assert.Empty(t, err.Details)
}

func TestSlotErrorIsMatchesByCode(t *testing.T) {
	wrapped := ErrSubmissionFailed.WithCause(fmt.Errorf("dial tcp: connection refused"))
	assert.ErrorIs(t, wrapped, ErrSubmissionFailed)
	assert.NotErrorIs(t, wrapped, ErrResultFailed)
}

func TestSlotErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := ErrConnectionFailed.WithCause(cause)
	assert.Equal(t, cause, errors.Unwrap(wrapped))
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.True(t, IsRetryableError(ErrRedisConnectionFailed))
	assert.False(t, IsRetryableError(ErrEmptyDistribution))

	// Plain errors fall back to pattern matching.
	assert.True(t, IsRetryableError(errors.New("dial tcp 127.0.0.1:6379: connection refused")))
	assert.True(t, IsRetryableError(errors.New("i/o timeout")))
	assert.False(t, IsRetryableError(errors.New("syntax error")))
}
