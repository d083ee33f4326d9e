package qslot

import (
	"math"
	"time"
)

// Version is the service version reported by the liveness endpoint.
const Version = "1.0.0"

const (
	// NumQubits is the number of qubits in the slot circuit, one per reel.
	NumQubits = 3

	// NumOutcomes is the number of possible measurement outcomes (2^NumQubits).
	NumOutcomes = 1 << NumQubits

	// DefaultShots is the default number of measurement shots per spin.
	DefaultShots = 100

	// DefaultTheta is the default RY bias angle (50/50 superposition).
	DefaultTheta = math.Pi / 2

	// DefaultQueueThreshold is the pending-job count at which a busy
	// hardware backend is skipped for the current request.
	DefaultQueueThreshold = 10

	// MinBackendQubits is the minimum qubit count a hardware backend must
	// offer to be eligible for least-busy selection.
	MinBackendQubits = NumQubits

	// DefaultExecutionTimeout bounds a single hardware submit-and-wait cycle.
	DefaultExecutionTimeout = 300 * time.Second

	// SimulatorName identifies the local statevector sampler in responses.
	SimulatorName = "statevector_simulator"
)

const (
	// DefaultRetryAttempts is the default number of retry attempts for
	// Redis operations.
	DefaultRetryAttempts = 3

	// DefaultRetryInterval is the default base interval between retry attempts.
	DefaultRetryInterval = 100 * time.Millisecond

	// LockKeyPrefix is the prefix for Redis submission lock keys.
	LockKeyPrefix = "qslot:lock:"

	// HistoryKeyPrefix is the prefix for Redis spin history keys.
	HistoryKeyPrefix = "qslot:spin:"

	// DefaultSubmissionLockTTL is how long a hardware submission slot is
	// held before it expires on its own.
	DefaultSubmissionLockTTL = 30 * time.Second

	// DefaultHistoryTTL is the default TTL for persisted spin records.
	DefaultHistoryTTL = 24 * time.Hour

	// DefaultHistoryLimit is the default number of records returned by
	// history queries.
	DefaultHistoryLimit = 20

	// MaxSerializationSize is the maximum allowed size for a serialized
	// spin record (1MB)
	MaxSerializationSize = 1 * 1024 * 1024
)

const (
	// DefaultCircuitBreakerName is the default name for the history breaker
	DefaultCircuitBreakerName = "qslot-history"

	// DefaultCircuitBreakerMaxRequests is the default max requests
	DefaultCircuitBreakerMaxRequests = 3

	// DefaultCircuitBreakerInterval is the default interval
	DefaultCircuitBreakerInterval = 60 * time.Second

	// DefaultCircuitBreakerTimeout is the default timeout
	DefaultCircuitBreakerTimeout = 30 * time.Second

	// DefaultCircuitBreakerFailureRatio is the default failure ratio
	DefaultCircuitBreakerFailureRatio = 0.6

	// DefaultCircuitBreakerMinRequests is the default min requests
	DefaultCircuitBreakerMinRequests = 3

	// DefaultCircuitBreakerOnStateChange is the default on state change
	DefaultCircuitBreakerOnStateChange = true
)

const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8000

	DefaultRedisAddr         = "localhost:6379"
	DefaultRedisPassword     = ""
	DefaultRedisDB           = 0
	DefaultRedisPoolSize     = 50
	DefaultRedisMinIdleConns = 10
	DefaultRedisMaxRetries   = 3
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second
	DefaultRedisPoolTimeout  = 4 * time.Second
)
