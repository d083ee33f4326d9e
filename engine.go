package qslot

import (
	"context"
	"strconv"
	"time"
)

// SpinRequest carries the player-controlled circuit parameters.
type SpinRequest struct {
	Theta    float64
	Entangle bool
}

// SpinResult is the outcome of one spin.
type SpinResult struct {
	Symbols       []string            `json:"symbols"`
	Measurements  []int               `json:"measurements"`
	Bitstring     string              `json:"bitstring"`
	Distribution  OutcomeDistribution `json:"distribution"`
	BackendUsed   string              `json:"backend_used"`
	QueuePosition *int                `json:"queue_position"`
	Entanglement  bool                `json:"entanglement"`
	Theta         float64             `json:"theta"`
	Timestamp     time.Time           `json:"timestamp"`
}

// EngineOptions configures the spin pipeline.
type EngineOptions struct {
	Shots   int
	Timeout time.Duration
}

// SlotEngine runs the full spin pipeline: build the circuit, pick the
// execution target, run it, draw one weighted outcome, and map it to reel
// symbols. A spin never fails because hardware does; every hardware problem
// reroutes to the simulator.
type SlotEngine struct {
	manager   *BackendManager
	client    QuantumClient
	simulator *StatevectorSimulator
	sampler   *OutcomeSampler
	history   HistoryStore
	lock      *SubmissionLock
	monitor   *SpinMonitor
	logger    Logger

	shots   int
	timeout time.Duration
}

// NewSlotEngine assembles an engine. history and lock are optional; client
// may be nil when no credentials exist (the manager then routes everything
// to the simulator).
func NewSlotEngine(
	manager *BackendManager,
	client QuantumClient,
	simulator *StatevectorSimulator,
	sampler *OutcomeSampler,
	history HistoryStore,
	lock *SubmissionLock,
	monitor *SpinMonitor,
	logger Logger,
	opts EngineOptions,
) *SlotEngine {
	if logger == nil {
		logger = NewSilentLogger()
	}
	if monitor == nil {
		monitor = NewSpinMonitor()
	}
	if opts.Shots <= 0 {
		opts.Shots = DefaultShots
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultExecutionTimeout
	}
	return &SlotEngine{
		manager:   manager,
		client:    client,
		simulator: simulator,
		sampler:   sampler,
		history:   history,
		lock:      lock,
		monitor:   monitor,
		logger:    logger,
		shots:     opts.Shots,
		timeout:   opts.Timeout,
	}
}

// Spin executes one spin. The returned error is reserved for internal
// preconditions (broken randomness, empty distribution); hardware trouble
// is absorbed by the simulator fallback.
func (e *SlotEngine) Spin(ctx context.Context, req SpinRequest) (SpinResult, error) {
	start := time.Now()
	spec := NewCircuitSpec(req.Theta, req.Entangle)

	dist, backendUsed, queuePos := e.execute(ctx, spec)

	if dist == nil {
		simDist, err := e.simulator.Run(ctx, spec, e.shots)
		if err != nil {
			e.monitor.RecordFailure()
			return SpinResult{}, err
		}
		dist = simDist
		backendUsed = SimulatorName
	}

	outcome, err := e.sampler.Draw(dist)
	if err != nil {
		e.monitor.RecordFailure()
		return SpinResult{}, err
	}

	result := SpinResult{
		Symbols:       SymbolsFor(outcome),
		Measurements:  outcome.Bits[:],
		Bitstring:     outcome.Bitstring,
		Distribution:  dist,
		BackendUsed:   backendUsed,
		QueuePosition: queuePos,
		Entanglement:  req.Entangle,
		Theta:         req.Theta,
		Timestamp:     time.Now(),
	}

	e.recordHistory(ctx, result)
	e.monitor.RecordSpin(backendUsed != SimulatorName, time.Since(start))

	e.logger.Info("spin complete: outcome=%s backend=%s duration=%s",
		result.Bitstring, backendUsed, time.Since(start))

	return result, nil
}

// execute tries the hardware path. It returns a nil distribution when the
// request should run on the simulator instead.
func (e *SlotEngine) execute(ctx context.Context, spec CircuitSpec) (OutcomeDistribution, string, *int) {
	if e.manager == nil || e.client == nil {
		return nil, "", nil
	}

	target := e.manager.Target(ctx)
	if target.Kind != TargetHardware {
		return nil, "", nil
	}

	if e.lock != nil {
		acquired, err := e.lock.TryAcquire(ctx)
		if err != nil {
			e.monitor.RecordRedisError()
			e.logger.Error("submission lock check failed, using simulator for this spin: %v", err)
			return nil, "", nil
		}
		if !acquired {
			e.logger.Info("hardware submission slot busy, using simulator for this spin")
			return nil, "", nil
		}
		defer e.lock.Release(ctx)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	quasi, err := e.client.RunSampler(runCtx, target.Name, spec, e.shots)
	if err != nil {
		e.manager.Degrade(err)
		e.monitor.RecordFallback()
		return nil, "", nil
	}

	counts := quasiToCounts(quasi, e.shots)
	if counts.Total() == 0 {
		// A result whose quasi-probabilities all truncate away is as
		// unusable as a failed job.
		e.manager.Degrade(ErrResultFailed.WithDetails("hardware result truncated to zero counts"))
		e.monitor.RecordFallback()
		return nil, "", nil
	}

	pos := target.PendingJobs
	return counts, target.Name, &pos
}

func (e *SlotEngine) recordHistory(ctx context.Context, result SpinResult) {
	if e.history == nil {
		return
	}

	record := NewSpinRecord(result)
	if err := e.history.SaveSpin(ctx, record); err != nil {
		e.monitor.RecordRedisError()
		e.logger.Error("failed to persist spin record %s: %v", record.ID, err)
	}
}

// Monitor exposes the engine's performance counters.
func (e *SlotEngine) Monitor() *SpinMonitor { return e.monitor }

// Shots returns the configured shot budget.
func (e *SlotEngine) Shots() int { return e.shots }

// Timeout returns the hardware execution deadline.
func (e *SlotEngine) Timeout() time.Duration { return e.timeout }

// quasiToCounts converts a quasi-probability distribution to integer counts
// by truncation. Negative and sub-shot quasi-probabilities drop out, so the
// counts may sum to slightly less than shots; the sampler tolerates that.
// Keys arrive either as bitstrings or as decimal outcome indexes.
func quasiToCounts(quasi map[string]float64, shots int) OutcomeDistribution {
	counts := make(OutcomeDistribution)
	for key, p := range quasi {
		c := int(p * float64(shots))
		if c <= 0 {
			continue
		}
		counts[normalizeOutcomeKey(key)] += c
	}
	return counts
}

func normalizeOutcomeKey(key string) string {
	if len(key) == NumQubits {
		return key
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 0 && n < NumOutcomes {
		return OutcomeBitstring(n)
	}
	return key
}
