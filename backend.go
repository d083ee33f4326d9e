package qslot

import (
	"context"
	"sync"
)

// ConnectionState tracks the lifecycle of the hardware connection.
// Transitions are one-way: Unconfigured -> Connected -> Degraded. A degraded
// manager never attempts to reconnect; every later request runs simulated.
type ConnectionState int32

const (
	// StateUnconfigured means no credentials were supplied; hardware was
	// never attempted.
	StateUnconfigured ConnectionState = iota

	// StateConnected means a hardware backend was resolved and is the
	// preferred target.
	StateConnected

	// StateDegraded means a hardware failure occurred; the simulator is
	// the permanent target from then on.
	StateDegraded
)

// String returns the state name used in logs and the info endpoint.
func (s ConnectionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDegraded:
		return "degraded"
	default:
		return "unconfigured"
	}
}

// TargetKind distinguishes the two execution paths.
type TargetKind int

const (
	TargetSimulator TargetKind = iota
	TargetHardware
)

// ExecutionTarget is the per-request routing decision: where this spin's
// circuit will run. PendingJobs is only meaningful for hardware targets.
type ExecutionTarget struct {
	Kind        TargetKind
	Name        string
	PendingJobs int
}

// BackendInfo describes a remote backend for selection and the info endpoint.
type BackendInfo struct {
	Name        string `json:"name"`
	NumQubits   int    `json:"num_qubits"`
	Operational bool   `json:"operational"`
	PendingJobs int    `json:"pending_jobs"`
	Simulator   bool   `json:"simulator"`
}

// QuantumClient is the remote quantum service surface the manager depends
// on. The production implementation is RuntimeClient; tests substitute fakes.
type QuantumClient interface {
	// ListBackends returns the account's available backends.
	ListBackends(ctx context.Context) ([]BackendInfo, error)

	// BackendStatus returns the current queue state of one backend.
	BackendStatus(ctx context.Context, name string) (BackendInfo, error)

	// RunSampler submits the circuit and waits for its quasi-probability
	// distribution, blocking until the job finishes or ctx expires.
	RunSampler(ctx context.Context, backend string, spec CircuitSpec, shots int) (map[string]float64, error)
}

// BackendManagerOptions configures target selection.
type BackendManagerOptions struct {
	// PreferredBackend pins selection to a named backend instead of the
	// least-busy one.
	PreferredBackend string

	// QueueThreshold is the pending-job count at which a busy backend is
	// skipped for the current request.
	QueueThreshold int

	// FallbackOnBusy controls whether a busy queue reroutes the request to
	// the simulator. When false, busy hardware is still used.
	FallbackOnBusy bool
}

// BackendManager resolves and tracks the hardware execution target. It
// connects lazily on first use, serves per-request routing decisions, and
// downgrades permanently on any hardware failure.
type BackendManager struct {
	client QuantumClient
	opts   BackendManagerOptions
	logger Logger

	connectOnce sync.Once

	mu      sync.RWMutex
	state   ConnectionState
	backend BackendInfo
}

// NewBackendManager creates a manager. A nil client means no credentials
// were configured and the manager stays in StateUnconfigured forever.
func NewBackendManager(client QuantumClient, opts BackendManagerOptions, logger Logger) *BackendManager {
	if logger == nil {
		logger = NewSilentLogger()
	}
	if opts.QueueThreshold <= 0 {
		opts.QueueThreshold = DefaultQueueThreshold
	}
	return &BackendManager{
		client: client,
		opts:   opts,
		logger: logger,
		state:  StateUnconfigured,
	}
}

// Connect resolves the hardware backend. It runs at most once; later calls
// are no-ops. A resolution failure moves the manager straight to Degraded
// and is reported through logs only, matching the never-fail spin contract.
func (m *BackendManager) Connect(ctx context.Context) {
	m.connectOnce.Do(func() {
		if m.client == nil {
			m.logger.Info("no quantum credentials configured, running in simulator mode")
			return
		}

		backend, err := m.resolveBackend(ctx)
		if err != nil {
			m.Degrade(err)
			return
		}

		m.mu.Lock()
		m.state = StateConnected
		m.backend = backend
		m.mu.Unlock()

		m.logger.Info("connected to quantum backend %s (%d qubits, %d pending jobs)",
			backend.Name, backend.NumQubits, backend.PendingJobs)
	})
}

// resolveBackend picks the named backend, or the least-busy operational one
// with enough qubits.
func (m *BackendManager) resolveBackend(ctx context.Context) (BackendInfo, error) {
	if m.opts.PreferredBackend != "" {
		info, err := m.client.BackendStatus(ctx, m.opts.PreferredBackend)
		if err != nil {
			return BackendInfo{}, ErrConnectionFailed.WithCause(err).WithDetails(m.opts.PreferredBackend)
		}
		return info, nil
	}

	backends, err := m.client.ListBackends(ctx)
	if err != nil {
		return BackendInfo{}, ErrConnectionFailed.WithCause(err)
	}

	var best *BackendInfo
	for i := range backends {
		b := &backends[i]
		if b.Simulator || !b.Operational || b.NumQubits < MinBackendQubits {
			continue
		}
		if best == nil || b.PendingJobs < best.PendingJobs {
			best = b
		}
	}
	if best == nil {
		return BackendInfo{}, ErrNoEligibleBackend
	}
	return *best, nil
}

// Target returns the routing decision for one request. It triggers the lazy
// connect, then checks the live queue. A busy queue reroutes only this
// request to the simulator; the connection stays up. A failed status query
// degrades permanently.
func (m *BackendManager) Target(ctx context.Context) ExecutionTarget {
	m.Connect(ctx)

	m.mu.RLock()
	state := m.state
	name := m.backend.Name
	m.mu.RUnlock()

	if state != StateConnected {
		return ExecutionTarget{Kind: TargetSimulator, Name: SimulatorName}
	}

	status, err := m.client.BackendStatus(ctx, name)
	if err != nil {
		m.Degrade(ErrStatusUnavailable.WithCause(err).WithDetails(name))
		return ExecutionTarget{Kind: TargetSimulator, Name: SimulatorName}
	}

	m.mu.Lock()
	m.backend.PendingJobs = status.PendingJobs
	m.backend.Operational = status.Operational
	m.mu.Unlock()

	if status.PendingJobs >= m.opts.QueueThreshold && m.opts.FallbackOnBusy {
		m.logger.Info("backend %s busy (%d pending jobs), using simulator for this spin",
			name, status.PendingJobs)
		return ExecutionTarget{Kind: TargetSimulator, Name: SimulatorName}
	}

	return ExecutionTarget{Kind: TargetHardware, Name: name, PendingJobs: status.PendingJobs}
}

// Degrade moves the manager to the permanent simulator-only state. The
// transition is one-way; there is no reconnection path.
func (m *BackendManager) Degrade(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degradeLocked(err)
}

func (m *BackendManager) degradeLocked(err error) {
	if m.state == StateDegraded {
		return
	}
	m.state = StateDegraded
	m.logger.Error("quantum hardware degraded permanently: %v", err)
}

// State returns the current connection state.
func (m *BackendManager) State() ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Info returns a snapshot of the resolved backend for the info endpoint.
// The second return is false while no backend has been resolved.
func (m *BackendManager) Info() (BackendInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.backend.Name == "" {
		return BackendInfo{}, false
	}
	return m.backend, true
}
