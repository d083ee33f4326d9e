package qslot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// historyIndexKey holds the most-recent-first list of spin record IDs.
const historyIndexKey = "qslot:spin:index"

// historyIndexCap bounds the index list length.
const historyIndexCap = 1000

// SpinRecord is the persisted form of one spin.
type SpinRecord struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Theta        float64   `json:"theta"`
	Entanglement bool      `json:"entanglement"`
	Symbols      []string  `json:"symbols"`
	Measurements []int     `json:"measurements"`
	Bitstring    string    `json:"bitstring"`
	BackendUsed  string    `json:"backend_used"`
}

// NewSpinRecord builds a record from a finished spin.
func NewSpinRecord(result SpinResult) *SpinRecord {
	return &SpinRecord{
		ID:           generateSpinID(),
		Timestamp:    result.Timestamp,
		Theta:        result.Theta,
		Entanglement: result.Entanglement,
		Symbols:      result.Symbols,
		Measurements: result.Measurements,
		Bitstring:    result.Bitstring,
		BackendUsed:  result.BackendUsed,
	}
}

// Validate checks the integrity of a record.
func (r *SpinRecord) Validate() error {
	if r.ID == "" {
		return ErrRecordCorrupted.WithDetails("empty id")
	}
	if _, err := parseBitstring(r.Bitstring); err != nil {
		return ErrRecordCorrupted.WithDetails("bad bitstring: " + r.Bitstring)
	}
	if len(r.Symbols) != NumQubits || len(r.Measurements) != NumQubits {
		return ErrRecordCorrupted.WithDetails("wrong reel count")
	}
	return nil
}

// HistoryStore is the persistence surface the engine and server depend on.
// SpinHistory is the Redis implementation; CircuitBreakerHistory wraps it.
type HistoryStore interface {
	SaveSpin(ctx context.Context, record *SpinRecord) error
	RecentSpins(ctx context.Context, limit int) ([]SpinRecord, error)
}

// SpinHistory persists spin records in Redis with a TTL, retrying transient
// failures with exponential backoff.
type SpinHistory struct {
	redisClient    *redis.Client
	logger         Logger
	ttl            time.Duration
	retryAttempts  int
	retryBaseDelay time.Duration
}

// NewSpinHistory creates a history store with default retry settings.
func NewSpinHistory(redisClient *redis.Client, ttl time.Duration, logger Logger) *SpinHistory {
	if logger == nil {
		logger = NewSilentLogger()
	}
	if ttl <= 0 {
		ttl = DefaultHistoryTTL
	}
	return &SpinHistory{
		redisClient:    redisClient,
		logger:         logger,
		ttl:            ttl,
		retryAttempts:  DefaultRetryAttempts,
		retryBaseDelay: DefaultRetryInterval,
	}
}

// serializeSpinRecord serializes a record to JSON bytes with a size check.
func serializeSpinRecord(record *SpinRecord) ([]byte, error) {
	if record == nil {
		return nil, ErrInvalidParameters
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize SpinRecord: %w", err)
	}

	if len(data) > MaxSerializationSize {
		return nil, fmt.Errorf("serialized SpinRecord size (%d bytes) exceeds maximum allowed size (%d bytes): id=%s",
			len(data), MaxSerializationSize, record.ID)
	}

	return data, nil
}

// deserializeSpinRecord deserializes JSON bytes back to a SpinRecord.
func deserializeSpinRecord(data []byte) (*SpinRecord, error) {
	if len(data) == 0 {
		return nil, ErrInvalidParameters
	}

	var record SpinRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to deserialize SpinRecord: %w", err)
	}

	if err := record.Validate(); err != nil {
		return nil, ErrRecordCorrupted
	}

	return &record, nil
}

// executeWithRetry executes a Redis operation with exponential backoff.
func (h *SpinHistory) executeWithRetry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	startTime := time.Now()

	for attempt := 0; attempt <= h.retryAttempts; attempt++ {
		if attempt > 0 {
			// baseDelay * 2^(attempt-1), capped at 5s
			delay := time.Duration(1<<(attempt-1)) * h.retryBaseDelay
			if delay > 5*time.Second {
				delay = 5 * time.Second
			}

			h.logger.Debug("Retrying %s operation (attempt %d/%d) after %v backoff",
				operation, attempt, h.retryAttempts, delay)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during retry for %s operation: %w", operation, ctx.Err())
			case <-time.After(delay):
			}
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				h.logger.Info("Successfully completed %s operation after %d retries in %v",
					operation, attempt, time.Since(startTime))
			}
			return nil
		}

		lastErr = err
		if !IsRetryableError(err) {
			break
		}
	}

	return fmt.Errorf("%s operation failed after %d attempts in %v: %w",
		operation, h.retryAttempts+1, time.Since(startTime), lastErr)
}

// SaveSpin persists one record and pushes its ID onto the recency index.
func (h *SpinHistory) SaveSpin(ctx context.Context, record *SpinRecord) error {
	data, err := serializeSpinRecord(record)
	if err != nil {
		return err
	}

	key := HistoryKeyPrefix + record.ID
	h.logger.Debug("Saving spin record: key=%s, size=%d bytes, ttl=%v", key, len(data), h.ttl)

	err = h.executeWithRetry(ctx, fmt.Sprintf("save[%s]", record.ID), func() error {
		pipe := h.redisClient.TxPipeline()
		pipe.Set(ctx, key, data, h.ttl)
		pipe.LPush(ctx, historyIndexKey, record.ID)
		pipe.LTrim(ctx, historyIndexKey, 0, historyIndexCap-1)
		pipe.Expire(ctx, historyIndexKey, h.ttl)
		_, pipeErr := pipe.Exec(ctx)
		return pipeErr
	})
	if err != nil {
		return ErrRecordSaveFailure.WithCause(err).WithDetails(record.ID)
	}

	return nil
}

// RecentSpins returns up to limit records, newest first. Records whose TTL
// already expired or that fail validation are skipped silently.
func (h *SpinHistory) RecentSpins(ctx context.Context, limit int) ([]SpinRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var ids []string
	err := h.executeWithRetry(ctx, "index", func() error {
		var opErr error
		ids, opErr = h.redisClient.LRange(ctx, historyIndexKey, 0, int64(limit-1)).Result()
		return opErr
	})
	if err != nil {
		return nil, ErrRecordLoadFailure.WithCause(err)
	}

	records := make([]SpinRecord, 0, len(ids))
	for _, id := range ids {
		data, getErr := h.redisClient.Get(ctx, HistoryKeyPrefix+id).Bytes()
		if getErr == redis.Nil {
			continue
		}
		if getErr != nil {
			return nil, ErrRecordLoadFailure.WithCause(getErr).WithDetails(id)
		}

		record, desErr := deserializeSpinRecord(data)
		if desErr != nil {
			h.logger.Error("Skipping corrupted spin record %s: %v", id, desErr)
			continue
		}
		records = append(records, *record)
	}

	return records, nil
}
