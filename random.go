package qslot

import (
	"crypto/rand"
	"math/big"
)

// RandomGenerator abstracts the randomness source used by the sampler and
// the simulator, so tests can substitute deterministic sequences.
type RandomGenerator interface {
	GenerateFloat() (float64, error)
}

// SecureRandomGenerator implements random number generation using crypto/rand
type SecureRandomGenerator struct{}

// NewSecureRandomGenerator creates a new secure random generator
func NewSecureRandomGenerator() *SecureRandomGenerator {
	return &SecureRandomGenerator{}
}

// GenerateFloat generates a random float in [0, 1)
func (g *SecureRandomGenerator) GenerateFloat() (float64, error) {
	// 53 bits matches float64 mantissa precision
	randomBig, err := rand.Int(rand.Reader, big.NewInt(1<<53))
	if err != nil {
		return 0, err
	}

	return float64(randomBig.Int64()) / float64(1<<53), nil
}
