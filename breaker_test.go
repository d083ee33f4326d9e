package qslot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyHistoryStore struct {
	saveErr error
	records []SpinRecord
}

func (f *flakyHistoryStore) SaveSpin(ctx context.Context, record *SpinRecord) error {
	return f.saveErr
}

func (f *flakyHistoryStore) RecentSpins(ctx context.Context, limit int) ([]SpinRecord, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return f.records, nil
}

func TestBreakerPassesThroughHealthyStore(t *testing.T) {
	store := &flakyHistoryStore{records: []SpinRecord{*testSpinRecord("spin-ok")}}
	breaker := NewCircuitBreakerHistory(store, DefaultCircuitBreakerConfig(), NewSilentLogger())

	err := breaker.SaveSpin(context.Background(), testSpinRecord("spin-1"))
	require.NoError(t, err)

	records, err := breaker.RecentSpins(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "closed", breaker.State())
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	store := &flakyHistoryStore{saveErr: errors.New("connection refused")}
	config := DefaultCircuitBreakerConfig()
	config.MinRequests = 3
	config.FailureRatio = 0.6
	breaker := NewCircuitBreakerHistory(store, config, NewSilentLogger())

	for i := 0; i < 3; i++ {
		err := breaker.SaveSpin(context.Background(), testSpinRecord("spin-fail"))
		assert.Error(t, err)
	}

	assert.Equal(t, "open", breaker.State())

	err := breaker.SaveSpin(context.Background(), testSpinRecord("spin-rejected"))
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)

	check := breaker.Check()
	assert.Equal(t, false, check["healthy"])
	assert.Equal(t, "open", check["state"])
}

func TestBreakerDisabledIsTransparent(t *testing.T) {
	store := &flakyHistoryStore{saveErr: errors.New("boom")}
	config := DefaultCircuitBreakerConfig()
	config.Enabled = false
	breaker := NewCircuitBreakerHistory(store, config, NewSilentLogger())

	for i := 0; i < 10; i++ {
		err := breaker.SaveSpin(context.Background(), testSpinRecord("spin-x"))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitBreakerOpen)
	}

	assert.Equal(t, "disabled", breaker.State())

	check := breaker.Check()
	assert.Equal(t, true, check["healthy"])
}

func TestBreakerHalfOpenAfterTimeout(t *testing.T) {
	store := &flakyHistoryStore{saveErr: errors.New("connection refused")}
	config := DefaultCircuitBreakerConfig()
	config.MinRequests = 2
	config.Timeout = 20 * time.Millisecond
	breaker := NewCircuitBreakerHistory(store, config, NewSilentLogger())

	for i := 0; i < 2; i++ {
		_ = breaker.SaveSpin(context.Background(), testSpinRecord("spin-fail"))
	}
	require.Equal(t, "open", breaker.State())

	// Recover the store and wait out the open interval.
	store.saveErr = nil
	time.Sleep(30 * time.Millisecond)

	err := breaker.SaveSpin(context.Background(), testSpinRecord("spin-probe"))
	assert.NoError(t, err)
}
