package qslot

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode 错误代码类型
type ErrorCode string

// 错误代码常量
const (
	// 系统级错误 (1000-1999)
	ErrCodeSystem          ErrorCode = "QSLOT_1000"
	ErrCodeRedisConnection ErrorCode = "QSLOT_1001"
	ErrCodeConfigInvalid   ErrorCode = "QSLOT_1002"

	// 业务级错误 (2000-2999)
	ErrCodeInvalidParameters ErrorCode = "QSLOT_2000"
	ErrCodeInvalidShots      ErrorCode = "QSLOT_2001"
	ErrCodeEmptyDistribution ErrorCode = "QSLOT_2002"
	ErrCodeInvalidBitstring  ErrorCode = "QSLOT_2003"
	ErrCodeRecordCorrupted   ErrorCode = "QSLOT_2004"

	// 硬件相关错误 (3000-3999)
	ErrCodeNoCredentials     ErrorCode = "QSLOT_3000"
	ErrCodeConnectionFailed  ErrorCode = "QSLOT_3001"
	ErrCodeNoEligibleBackend ErrorCode = "QSLOT_3002"
	ErrCodeStatusUnavailable ErrorCode = "QSLOT_3003"
	ErrCodeSubmissionFailed  ErrorCode = "QSLOT_3004"
	ErrCodeResultFailed      ErrorCode = "QSLOT_3005"
	ErrCodeExecutionTimeout  ErrorCode = "QSLOT_3006"
	ErrCodeJobFailed         ErrorCode = "QSLOT_3007"

	// 熔断相关错误 (5000-5999)
	ErrCodeCircuitBreakerOpen ErrorCode = "QSLOT_5000"

	// 状态相关错误 (6000-6999)
	ErrCodeRecordSaveFailure ErrorCode = "QSLOT_6000"
	ErrCodeRecordLoadFailure ErrorCode = "QSLOT_6001"
)

// ErrorSeverity 错误严重程度
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "critical"
	SeverityHigh     ErrorSeverity = "high"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityLow      ErrorSeverity = "low"
)

// SlotError is the enriched error type used across the spin pipeline. The
// fallback logic inspects Code and Retryable instead of string matching.
type SlotError struct {
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   string        `json:"details,omitempty"`
	Severity  ErrorSeverity `json:"severity"`
	Timestamp time.Time     `json:"timestamp"`
	Cause     error         `json:"-"`
	Retryable bool          `json:"retryable"`
}

// Error 实现 error 接口
func (e *SlotError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap 接口
func (e *SlotError) Unwrap() error { return e.Cause }

// Is 实现 errors.Is 接口
func (e *SlotError) Is(target error) bool {
	if t, ok := target.(*SlotError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithCause 添加原因错误
func (e *SlotError) WithCause(cause error) *SlotError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// WithDetails 添加详细信息
func (e *SlotError) WithDetails(details string) *SlotError {
	clone := *e
	clone.Details = details
	return &clone
}

// NewError 创建新的错误
func NewError(code ErrorCode, message string) *SlotError {
	return &SlotError{
		Code:      code,
		Message:   message,
		Severity:  SeverityMedium,
		Timestamp: time.Now(),
		Retryable: false,
	}
}

// NewRetryableError 创建可重试的错误
func NewRetryableError(code ErrorCode, message string) *SlotError {
	return &SlotError{
		Code:      code,
		Message:   message,
		Severity:  SeverityMedium,
		Timestamp: time.Now(),
		Retryable: true,
	}
}

// 预定义的错误实例
var (
	// 系统级错误
	ErrSystemError           = NewError(ErrCodeSystem, "system error occurred")
	ErrRedisConnectionFailed = NewRetryableError(ErrCodeRedisConnection, "Redis connection failed")
	ErrConfigInvalid         = NewError(ErrCodeConfigInvalid, "configuration is invalid")

	// 业务级错误
	ErrInvalidParameters = NewError(ErrCodeInvalidParameters, "invalid parameters provided")
	ErrInvalidShots      = NewError(ErrCodeInvalidShots, "invalid shots: must be greater than 0")
	ErrEmptyDistribution = NewError(ErrCodeEmptyDistribution, "outcome distribution is empty or all-zero")
	ErrInvalidBitstring  = NewError(ErrCodeInvalidBitstring, "bitstring must be exactly 3 binary digits")
	ErrRecordCorrupted   = NewError(ErrCodeRecordCorrupted, "spin record is corrupted")

	// 硬件相关错误
	ErrNoCredentials     = NewError(ErrCodeNoCredentials, "no quantum credentials configured")
	ErrConnectionFailed  = NewRetryableError(ErrCodeConnectionFailed, "failed to connect to quantum service")
	ErrNoEligibleBackend = NewError(ErrCodeNoEligibleBackend, "no operational backend with enough qubits")
	ErrStatusUnavailable = NewRetryableError(ErrCodeStatusUnavailable, "backend status query failed")
	ErrSubmissionFailed  = NewRetryableError(ErrCodeSubmissionFailed, "job submission failed")
	ErrResultFailed      = NewRetryableError(ErrCodeResultFailed, "job result retrieval failed")
	ErrExecutionTimeout  = NewError(ErrCodeExecutionTimeout, "hardware execution timed out")
	ErrJobFailed         = NewError(ErrCodeJobFailed, "hardware job finished in a failed state")

	// 熔断相关错误
	ErrCircuitBreakerOpen = NewRetryableError(ErrCodeCircuitBreakerOpen, "circuit breaker is open")

	// 状态相关错误
	ErrRecordSaveFailure = NewRetryableError(ErrCodeRecordSaveFailure, "failed to save spin record")
	ErrRecordLoadFailure = NewRetryableError(ErrCodeRecordLoadFailure, "failed to load spin record")
)

// IsRetryableError 检查是否为可重试错误
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if slotErr, ok := err.(*SlotError); ok {
		return slotErr.Retryable
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"network is unreachable",
		"temporary failure",
		"server closed",
		"broken pipe",
		"i/o timeout",
		"dial tcp",
		"read tcp",
		"write tcp",
		"connection timed out",
		"no route to host",
		"host is down",
		"connection aborted",
		"operation timed out",
		"redis: connection pool timeout",
		"redis: client is closed",
		"context deadline exceeded",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
