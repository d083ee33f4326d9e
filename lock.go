package qslot

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Submission Lock Strategy:
// - Acquisition: single Redis SET NX call. A held lock means another replica
//   is already submitting to hardware, and the current spin simply runs on
//   the simulator instead of queueing, so there is no retry loop.
// - Release: Lua script so only the lock owner can release.
const releaseLockScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// SubmissionLock serializes hardware job submissions across replicas.
type SubmissionLock struct {
	redisClient *redis.Client
	key         string
	ttl         time.Duration
	logger      Logger

	mu    sync.Mutex
	value string // owner token of the currently held lock, empty when not held
}

// NewSubmissionLock creates a lock for the named submission slot.
func NewSubmissionLock(redisClient *redis.Client, slot string, ttl time.Duration, logger Logger) *SubmissionLock {
	if logger == nil {
		logger = NewSilentLogger()
	}
	if slot == "" {
		slot = "hardware-submission"
	}
	if ttl <= 0 {
		ttl = DefaultSubmissionLockTTL
	}
	return &SubmissionLock{
		redisClient: redisClient,
		key:         LockKeyPrefix + slot,
		ttl:         ttl,
		logger:      logger,
	}
}

// TryAcquire makes a single attempt to take the submission slot. It returns
// (false, nil) when another holder has it.
func (l *SubmissionLock) TryAcquire(ctx context.Context) (bool, error) {
	value := generateLockValue()

	acquired, err := l.redisClient.SetNX(ctx, l.key, value, l.ttl).Result()
	if err != nil {
		return false, ErrRedisConnectionFailed.WithCause(err)
	}
	if !acquired {
		return false, nil
	}

	l.mu.Lock()
	l.value = value
	l.mu.Unlock()

	l.logger.Debug("acquired submission slot %s (ttl=%v)", l.key, l.ttl)
	return true, nil
}

// Release frees the slot if this instance still owns it. Expired or stolen
// locks release as a no-op.
func (l *SubmissionLock) Release(ctx context.Context) (bool, error) {
	l.mu.Lock()
	value := l.value
	l.value = ""
	l.mu.Unlock()

	if value == "" {
		return false, nil
	}

	result, err := l.redisClient.Eval(ctx, releaseLockScript, []string{l.key}, value).Result()
	if err != nil {
		return false, ErrRedisConnectionFailed.WithCause(err)
	}

	released := result.(int64) == 1
	if !released {
		l.logger.Debug("submission slot %s already expired or taken over", l.key)
	}
	return released, nil
}
