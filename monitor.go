package qslot

import (
	"sync/atomic"
	"time"
)

// SpinMetrics is a snapshot of engine performance counters.
type SpinMetrics struct {
	TotalSpins        int64         `json:"total_spins"`
	HardwareSpins     int64         `json:"hardware_spins"`
	SimulatorSpins    int64         `json:"simulator_spins"`
	FailedSpins       int64         `json:"failed_spins"`
	HardwareFallbacks int64         `json:"hardware_fallbacks"`
	RedisErrors       int64         `json:"redis_errors"`
	AverageSpinTime   time.Duration `json:"average_spin_time_ns"`
	SpinsPerSecond    float64       `json:"spins_per_second"`
	Uptime            time.Duration `json:"uptime_ns"`
}

// SpinMonitor tracks engine throughput with atomic counters. 无锁设计,
// 适合高并发读写.
type SpinMonitor struct {
	totalSpins        int64
	hardwareSpins     int64
	simulatorSpins    int64
	failedSpins       int64
	hardwareFallbacks int64
	redisErrors       int64
	totalSpinTimeNs   int64
	startTime         time.Time
}

// NewSpinMonitor creates a monitor with its uptime clock started.
func NewSpinMonitor() *SpinMonitor {
	return &SpinMonitor{startTime: time.Now()}
}

// RecordSpin records one completed spin and its duration.
func (m *SpinMonitor) RecordSpin(hardware bool, duration time.Duration) {
	atomic.AddInt64(&m.totalSpins, 1)
	atomic.AddInt64(&m.totalSpinTimeNs, int64(duration))
	if hardware {
		atomic.AddInt64(&m.hardwareSpins, 1)
	} else {
		atomic.AddInt64(&m.simulatorSpins, 1)
	}
}

// RecordFailure records a spin that returned an error.
func (m *SpinMonitor) RecordFailure() {
	atomic.AddInt64(&m.failedSpins, 1)
}

// RecordFallback records a hardware failure that rerouted to the simulator.
func (m *SpinMonitor) RecordFallback() {
	atomic.AddInt64(&m.hardwareFallbacks, 1)
}

// RecordRedisError records a Redis operation failure.
func (m *SpinMonitor) RecordRedisError() {
	atomic.AddInt64(&m.redisErrors, 1)
}

// Snapshot returns the current metric values.
func (m *SpinMonitor) Snapshot() SpinMetrics {
	total := atomic.LoadInt64(&m.totalSpins)
	totalTime := atomic.LoadInt64(&m.totalSpinTimeNs)
	uptime := time.Since(m.startTime)

	var avg time.Duration
	if total > 0 {
		avg = time.Duration(totalTime / total)
	}

	var throughput float64
	if uptime > 0 {
		throughput = float64(total) / uptime.Seconds()
	}

	return SpinMetrics{
		TotalSpins:        total,
		HardwareSpins:     atomic.LoadInt64(&m.hardwareSpins),
		SimulatorSpins:    atomic.LoadInt64(&m.simulatorSpins),
		FailedSpins:       atomic.LoadInt64(&m.failedSpins),
		HardwareFallbacks: atomic.LoadInt64(&m.hardwareFallbacks),
		RedisErrors:       atomic.LoadInt64(&m.redisErrors),
		AverageSpinTime:   avg,
		SpinsPerSecond:    throughput,
		Uptime:            uptime,
	}
}
