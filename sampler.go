package qslot

import (
	"sort"
)

// OutcomeDistribution maps 3-bit outcome strings to measurement counts.
// Counts usually sum to the shot budget, but hardware quasi-probability
// truncation can leave the total slightly below it; the sampler tolerates
// any positive total.
type OutcomeDistribution map[string]int

// Total returns the sum of all counts.
func (d OutcomeDistribution) Total() int {
	total := 0
	for _, c := range d {
		total += c
	}
	return total
}

// DrawnOutcome is a single weighted draw from a distribution.
type DrawnOutcome struct {
	Bitstring string
	Bits      [NumQubits]int
}

// OutcomeSampler performs the single weighted draw that decides a spin.
type OutcomeSampler struct {
	rng    RandomGenerator
	logger Logger
}

// NewOutcomeSampler creates a sampler. A nil rng defaults to crypto/rand.
func NewOutcomeSampler(rng RandomGenerator, logger Logger) *OutcomeSampler {
	if rng == nil {
		rng = NewSecureRandomGenerator()
	}
	if logger == nil {
		logger = NewSilentLogger()
	}
	return &OutcomeSampler{rng: rng, logger: logger}
}

// Draw selects one outcome with probability proportional to its count.
// 使用累积权重 + 二分查找
func (s *OutcomeSampler) Draw(dist OutcomeDistribution) (DrawnOutcome, error) {
	if len(dist) == 0 {
		return DrawnOutcome{}, ErrEmptyDistribution
	}

	// Stable iteration order so the cumulative table is reproducible.
	keys := make([]string, 0, len(dist))
	for k := range dist {
		if dist[k] > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		return DrawnOutcome{}, ErrEmptyDistribution
	}

	cumulative := make([]int, len(keys))
	total := 0
	for i, k := range keys {
		total += dist[k]
		cumulative[i] = total
	}

	r, err := s.rng.GenerateFloat()
	if err != nil {
		return DrawnOutcome{}, ErrSystemError.WithCause(err).WithDetails("random draw failed")
	}
	target := int(r * float64(total))

	// First index whose cumulative weight exceeds the target.
	idx := sort.Search(len(cumulative), func(i int) bool {
		return cumulative[i] > target
	})
	if idx >= len(keys) {
		idx = len(keys) - 1
	}

	outcome, err := parseBitstring(keys[idx])
	if err != nil {
		return DrawnOutcome{}, err
	}

	s.logger.Debug("sampler draw: outcome=%s total_weight=%d", outcome.Bitstring, total)
	return outcome, nil
}

// parseBitstring validates a 3-character binary string and splits its bits.
func parseBitstring(s string) (DrawnOutcome, error) {
	if len(s) != NumQubits {
		return DrawnOutcome{}, ErrInvalidBitstring.WithDetails(s)
	}

	out := DrawnOutcome{Bitstring: s}
	for i := 0; i < NumQubits; i++ {
		switch s[i] {
		case '0':
			out.Bits[i] = 0
		case '1':
			out.Bits[i] = 1
		default:
			return DrawnOutcome{}, ErrInvalidBitstring.WithDetails(s)
		}
	}
	return out, nil
}
