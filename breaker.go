package qslot

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitBreakerConfig 熔断器配置
type CircuitBreakerConfig struct {
	Enabled       bool          `mapstructure:"enabled" json:"enabled"`
	Name          string        `mapstructure:"name" json:"name"`
	MaxRequests   uint32        `mapstructure:"max_requests" json:"max_requests"`
	Interval      time.Duration `mapstructure:"interval" json:"interval"`
	Timeout       time.Duration `mapstructure:"timeout" json:"timeout"`
	FailureRatio  float64       `mapstructure:"failure_ratio" json:"failure_ratio"`
	MinRequests   uint32        `mapstructure:"min_requests" json:"min_requests"`
	OnStateChange bool          `mapstructure:"on_state_change" json:"on_state_change"`
}

// DefaultCircuitBreakerConfig returns the default breaker settings.
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Enabled:       true,
		Name:          DefaultCircuitBreakerName,
		MaxRequests:   DefaultCircuitBreakerMaxRequests,
		Interval:      DefaultCircuitBreakerInterval,
		Timeout:       DefaultCircuitBreakerTimeout,
		FailureRatio:  DefaultCircuitBreakerFailureRatio,
		MinRequests:   DefaultCircuitBreakerMinRequests,
		OnStateChange: DefaultCircuitBreakerOnStateChange,
	}
}

// CircuitBreakerHistory 带熔断器的历史存储. A failing Redis trips the breaker
// so spin requests stop paying the timeout cost on every write.
type CircuitBreakerHistory struct {
	store HistoryStore

	breaker *gobreaker.CircuitBreaker
	logger  Logger
	config  *CircuitBreakerConfig
}

// NewCircuitBreakerHistory wraps a history store in a circuit breaker.
func NewCircuitBreakerHistory(store HistoryStore, config *CircuitBreakerConfig, logger Logger) *CircuitBreakerHistory {
	if logger == nil {
		logger = NewSilentLogger()
	}
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}

	if !config.Enabled {
		// 如果熔断器未启用，返回一个透传的包装器
		return &CircuitBreakerHistory{
			store:  store,
			logger: logger,
			config: config,
		}
	}

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 当请求数达到最小要求且失败率超过阈值时触发熔断
			return counts.Requests >= config.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= config.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if config.OnStateChange {
				logger.Info("Circuit breaker '%s' state changed from %s to %s", name, from, to)
			}
		},
	}

	return &CircuitBreakerHistory{
		store:   store,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
		config:  config,
	}
}

// executeWithBreaker 使用熔断器执行操作
func (c *CircuitBreakerHistory) executeWithBreaker(operation func() (any, error)) (any, error) {
	if c.breaker == nil {
		return operation()
	}

	result, err := c.breaker.Execute(operation)
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, ErrCircuitBreakerOpen.WithDetails("circuit breaker is open, requests are being rejected")
		}
		if err == gobreaker.ErrTooManyRequests {
			return nil, ErrCircuitBreakerOpen.WithDetails("too many requests, circuit breaker is half-open")
		}
	}

	return result, err
}

// SaveSpin persists a record through the breaker.
func (c *CircuitBreakerHistory) SaveSpin(ctx context.Context, record *SpinRecord) error {
	_, err := c.executeWithBreaker(func() (any, error) {
		return nil, c.store.SaveSpin(ctx, record)
	})
	return err
}

// RecentSpins loads records through the breaker.
func (c *CircuitBreakerHistory) RecentSpins(ctx context.Context, limit int) ([]SpinRecord, error) {
	result, err := c.executeWithBreaker(func() (any, error) {
		return c.store.RecentSpins(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	return result.([]SpinRecord), nil
}

// State 获取熔断器状态
func (c *CircuitBreakerHistory) State() string {
	if c.breaker == nil {
		return "disabled"
	}

	switch c.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Counts 获取熔断器统计信息
func (c *CircuitBreakerHistory) Counts() gobreaker.Counts {
	if c.breaker == nil {
		return gobreaker.Counts{}
	}
	return c.breaker.Counts()
}

// Check 执行健康检查
func (c *CircuitBreakerHistory) Check() map[string]any {
	result := map[string]any{
		"circuit_breaker_enabled": c.config.Enabled,
	}

	if c.config.Enabled && c.breaker != nil {
		state := c.State()
		counts := c.Counts()

		result["state"] = state
		result["requests"] = counts.Requests
		result["total_successes"] = counts.TotalSuccesses
		result["total_failures"] = counts.TotalFailures
		result["consecutive_failures"] = counts.ConsecutiveFailures

		if counts.Requests > 0 {
			result["success_rate"] = float64(counts.TotalSuccesses) / float64(counts.Requests)
			result["failure_rate"] = float64(counts.TotalFailures) / float64(counts.Requests)
		} else {
			result["success_rate"] = 0.0
			result["failure_rate"] = 0.0
		}

		healthy := true
		switch state {
		case "open":
			healthy = false
		case "half-open":
			// 半开状态下，如果连续失败次数过多，认为不健康
			if counts.ConsecutiveFailures > 2 {
				healthy = false
			}
		}
		result["healthy"] = healthy
	} else {
		result["state"] = "disabled"
		result["healthy"] = true
	}

	return result
}
