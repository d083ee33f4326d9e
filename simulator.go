package qslot

import (
	"context"
)

// StatevectorSimulator samples measurement outcomes from the exact joint
// distribution of a circuit. It is the fallback execution path and never
// talks to the network.
type StatevectorSimulator struct {
	rng    RandomGenerator
	logger Logger
}

// NewStatevectorSimulator creates a simulator backed by the given randomness
// source. A nil rng defaults to crypto/rand.
func NewStatevectorSimulator(rng RandomGenerator, logger Logger) *StatevectorSimulator {
	if rng == nil {
		rng = NewSecureRandomGenerator()
	}
	if logger == nil {
		logger = NewSilentLogger()
	}
	return &StatevectorSimulator{rng: rng, logger: logger}
}

// Run executes the circuit locally for the given number of shots. The
// returned counts always sum to exactly shots, and every key is one of the
// 8 valid 3-bit outcomes.
func (s *StatevectorSimulator) Run(ctx context.Context, spec CircuitSpec, shots int) (OutcomeDistribution, error) {
	if err := ValidateShots(shots); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	probs := spec.Probabilities()

	// Cumulative distribution over the 8 outcomes. The final entry is
	// forced to 1 so float rounding cannot strand a draw.
	cumulative := make([]float64, NumOutcomes)
	sum := 0.0
	for i, p := range probs {
		sum += p
		cumulative[i] = sum
	}
	cumulative[NumOutcomes-1] = 1.0

	counts := make(OutcomeDistribution)
	for shot := 0; shot < shots; shot++ {
		r, err := s.rng.GenerateFloat()
		if err != nil {
			return nil, ErrSystemError.WithCause(err).WithDetails("random draw failed")
		}

		idx := 0
		for idx < NumOutcomes-1 && r >= cumulative[idx] {
			idx++
		}
		counts[OutcomeBitstring(idx)]++
	}

	s.logger.Debug("simulator run complete: theta=%.4f entangle=%t shots=%d outcomes=%d",
		spec.Theta, spec.Entangle, shots, len(counts))

	return counts, nil
}
