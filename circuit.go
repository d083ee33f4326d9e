package qslot

import (
	"fmt"
	"math"
)

// CircuitSpec describes the 3-qubit slot circuit: one RY(theta) rotation per
// qubit, an optional CX chain (0->1, 1->2), and a full measurement. Theta is
// accepted as-is; every real value is a meaningful rotation angle.
type CircuitSpec struct {
	Theta    float64
	Entangle bool
}

// NewCircuitSpec builds a circuit description for the given bias angle.
func NewCircuitSpec(theta float64, entangle bool) CircuitSpec {
	return CircuitSpec{Theta: theta, Entangle: entangle}
}

// ProbabilityOfOne returns the single-qubit chance of measuring 1 after
// RY(theta), i.e. sin^2(theta/2).
func (c CircuitSpec) ProbabilityOfOne() float64 {
	s := math.Sin(c.Theta / 2)
	return s * s
}

// Probabilities computes the exact joint probability of each of the 8
// measurement outcomes. Index i encodes the bitstring with qubit 0 as the
// leftmost bit, so i=0b101 is outcome "101".
//
// With the CX chain, qubit 1 ends up as x1 XOR x0 and qubit 2 as x2 XOR x1
// XOR x0, where x* are the pre-entanglement basis values. Inverting that map
// gives the amplitude of outcome (b0,b1,b2) as
// amp[b0] * amp[b0^b1] * amp[b1^b2].
func (c CircuitSpec) Probabilities() []float64 {
	amp := [2]float64{math.Cos(c.Theta / 2), math.Sin(c.Theta / 2)}

	probs := make([]float64, NumOutcomes)
	for i := 0; i < NumOutcomes; i++ {
		b0 := (i >> 2) & 1
		b1 := (i >> 1) & 1
		b2 := i & 1

		var a float64
		if c.Entangle {
			a = amp[b0] * amp[b0^b1] * amp[b1^b2]
		} else {
			a = amp[b0] * amp[b1] * amp[b2]
		}
		probs[i] = a * a
	}

	return probs
}

// Description returns a human-readable gate listing for the info endpoint.
func (c CircuitSpec) Description() []string {
	desc := make([]string, 0, NumQubits+3)
	for q := 0; q < NumQubits; q++ {
		desc = append(desc, fmt.Sprintf("RY(%.4f) q%d", c.Theta, q))
	}
	if c.Entangle {
		desc = append(desc, "CX q0 -> q1", "CX q1 -> q2")
	}
	desc = append(desc, "MEASURE q0 q1 q2")
	return desc
}

// OutcomeBitstring converts an outcome index to its 3-bit string form.
func OutcomeBitstring(i int) string {
	return fmt.Sprintf("%03b", i&(NumOutcomes-1))
}
