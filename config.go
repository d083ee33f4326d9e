package qslot

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// Config 生产环境配置结构
type Config struct {
	// HTTP 服务配置
	Server *ServerConfig `mapstructure:"server"`

	// 量子后端配置
	Quantum *QuantumConfig `mapstructure:"quantum"`

	// Redis 配置
	Redis *RedisConfig `mapstructure:"redis"`

	// 历史记录配置
	History *HistoryConfig `mapstructure:"history"`

	// 熔断器配置
	CircuitBreaker *CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return ErrConfigInvalid.WithDetails(fmt.Sprintf("server port %d out of range", c.Server.Port))
	}

	if err := ValidateShots(c.Quantum.Shots); err != nil {
		return err
	}
	if err := ValidateQueueThreshold(c.Quantum.QueueThreshold); err != nil {
		return err
	}
	if c.Quantum.Timeout <= 0 {
		return ErrConfigInvalid.WithDetails("quantum timeout must be positive")
	}

	// 验证 Redis 配置 (仅当历史记录启用时)
	if c.History.Enabled {
		if c.Redis.Addr == "" {
			return ErrConfigInvalid.WithDetails("redis address is required when history is enabled")
		}
		if c.Redis.PoolSize <= 0 {
			return ErrConfigInvalid.WithDetails("redis pool size must be positive")
		}
	}

	return nil
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// QuantumConfig 量子后端配置
type QuantumConfig struct {
	// Token authenticates against the quantum runtime service. Empty means
	// simulator-only mode.
	Token string `mapstructure:"token"`

	// Backend pins execution to a named backend instead of the least-busy one.
	Backend string `mapstructure:"backend"`

	// FallbackOnBusy reroutes a spin to the simulator when the hardware
	// queue is at or above QueueThreshold.
	FallbackOnBusy bool `mapstructure:"fallback_on_busy"`

	Timeout        time.Duration `mapstructure:"timeout"`
	Shots          int           `mapstructure:"shots"`
	QueueThreshold int           `mapstructure:"queue_threshold"`
}

// HistoryConfig 历史记录配置
type HistoryConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	Limit   int           `mapstructure:"limit"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 连接配置
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// 连接池配置
	PoolSize     int `mapstructure:"pool_size"`
	MinIdleConns int `mapstructure:"min_idle_conns"`
	MaxRetries   int `mapstructure:"max_retries"`

	// 超时配置
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

// ConfigManager 配置管理器
type ConfigManager struct {
	viper  *viper.Viper
	config *Config
}

// NewConfigManager 创建配置管理器
func NewConfigManager() *ConfigManager {
	v := viper.New()

	// 设置配置文件名和路径
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/qslot")
	v.AddConfigPath("$HOME/.qslot")

	// 设置环境变量前缀
	v.SetEnvPrefix("QSLOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy environment names kept for deployments that predate the
	// QSLOT_ prefix.
	_ = v.BindEnv("quantum.token", "QSLOT_QUANTUM_TOKEN", "IBM_QUANTUM_TOKEN")
	_ = v.BindEnv("quantum.backend", "QSLOT_QUANTUM_BACKEND", "IBM_QUANTUM_BACKEND")
	_ = v.BindEnv("quantum.fallback_on_busy", "QSLOT_QUANTUM_FALLBACK_ON_BUSY", "USE_SIMULATOR_FALLBACK")
	_ = v.BindEnv("quantum.timeout", "QSLOT_QUANTUM_TIMEOUT", "MAX_QUEUE_WAIT")

	return &ConfigManager{
		viper: v,
	}
}

// LoadConfig 加载配置
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	// 设置默认值
	cm.setDefaults()

	// 读取配置文件
	if err := cm.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// 配置文件不存在时使用默认配置
	}

	// 解析配置
	config := &Config{}
	if err := cm.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 验证配置
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cm.config = config
	return config, nil
}

// setDefaults 设置默认配置值
func (cm *ConfigManager) setDefaults() {
	// 服务默认配置
	cm.viper.SetDefault("server.host", DefaultServerHost)
	cm.viper.SetDefault("server.port", DefaultServerPort)

	// 量子后端默认配置
	cm.viper.SetDefault("quantum.token", "")
	cm.viper.SetDefault("quantum.backend", "")
	cm.viper.SetDefault("quantum.fallback_on_busy", true)
	cm.viper.SetDefault("quantum.timeout", "300s")
	cm.viper.SetDefault("quantum.shots", DefaultShots)
	cm.viper.SetDefault("quantum.queue_threshold", DefaultQueueThreshold)

	// 历史记录默认配置
	cm.viper.SetDefault("history.enabled", false)
	cm.viper.SetDefault("history.ttl", "24h")
	cm.viper.SetDefault("history.limit", DefaultHistoryLimit)

	// Redis 默认配置
	cm.viper.SetDefault("redis.addr", DefaultRedisAddr)
	cm.viper.SetDefault("redis.password", "")
	cm.viper.SetDefault("redis.db", 0)
	cm.viper.SetDefault("redis.pool_size", DefaultRedisPoolSize)
	cm.viper.SetDefault("redis.min_idle_conns", DefaultRedisMinIdleConns)
	cm.viper.SetDefault("redis.max_retries", DefaultRedisMaxRetries)
	cm.viper.SetDefault("redis.dial_timeout", "5s")
	cm.viper.SetDefault("redis.read_timeout", "3s")
	cm.viper.SetDefault("redis.write_timeout", "3s")
	cm.viper.SetDefault("redis.pool_timeout", "4s")

	// 熔断器默认配置
	cm.viper.SetDefault("circuit_breaker.enabled", true)
	cm.viper.SetDefault("circuit_breaker.name", DefaultCircuitBreakerName)
	cm.viper.SetDefault("circuit_breaker.max_requests", DefaultCircuitBreakerMaxRequests)
	cm.viper.SetDefault("circuit_breaker.interval", "60s")
	cm.viper.SetDefault("circuit_breaker.timeout", "30s")
	cm.viper.SetDefault("circuit_breaker.failure_ratio", DefaultCircuitBreakerFailureRatio)
	cm.viper.SetDefault("circuit_breaker.min_requests", DefaultCircuitBreakerMinRequests)
	cm.viper.SetDefault("circuit_breaker.on_state_change", DefaultCircuitBreakerOnStateChange)
}

// WatchConfig 监听配置变化
func (cm *ConfigManager) WatchConfig(callback func(*Config)) error {
	cm.viper.WatchConfig()
	cm.viper.OnConfigChange(func(e fsnotify.Event) {
		config := &Config{}
		if err := cm.viper.Unmarshal(config); err != nil {
			// 记录错误但不中断服务
			return
		}

		if err := config.Validate(); err != nil {
			// 记录错误但不中断服务
			return
		}

		cm.config = config
		if callback != nil {
			callback(config)
		}
	})

	return nil
}

// GetConfig 获取当前配置
func (cm *ConfigManager) GetConfig() *Config { return cm.config }

// ReloadConfig 重新加载配置
func (cm *ConfigManager) ReloadConfig() (*Config, error) { return cm.LoadConfig() }

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerConfig{
			Host: DefaultServerHost,
			Port: DefaultServerPort,
		},
		Quantum: &QuantumConfig{
			FallbackOnBusy: true,
			Timeout:        DefaultExecutionTimeout,
			Shots:          DefaultShots,
			QueueThreshold: DefaultQueueThreshold,
		},
		Redis: DefaultRedisConfig(),
		History: &HistoryConfig{
			Enabled: false,
			TTL:     DefaultHistoryTTL,
			Limit:   DefaultHistoryLimit,
		},
		CircuitBreaker: DefaultCircuitBreakerConfig(),
	}
}

// DefaultRedisConfig 返回默认的Redis配置
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         DefaultRedisAddr,
		Password:     DefaultRedisPassword,
		DB:           DefaultRedisDB,
		PoolSize:     DefaultRedisPoolSize,
		MinIdleConns: DefaultRedisMinIdleConns,
		MaxRetries:   DefaultRedisMaxRetries,
		DialTimeout:  DefaultRedisDialTimeout,
		ReadTimeout:  DefaultRedisReadTimeout,
		WriteTimeout: DefaultRedisWriteTimeout,
		PoolTimeout:  DefaultRedisPoolTimeout,
	}
}

// NewRedisClientFromConfig 从配置创建Redis客户端
func NewRedisClientFromConfig(config *RedisConfig) *redis.Client {
	if config == nil {
		config = DefaultRedisConfig()
	}

	return redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolTimeout:  config.PoolTimeout,
	})
}
