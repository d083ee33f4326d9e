package qslot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolForBit(t *testing.T) {
	assert.Equal(t, "🍒", SymbolForBit(0))
	assert.Equal(t, "⭐", SymbolForBit(1))
}

func TestSymbolsFor(t *testing.T) {
	outcome := DrawnOutcome{Bitstring: "101", Bits: [NumQubits]int{1, 0, 1}}
	assert.Equal(t, []string{"⭐", "🍒", "⭐"}, SymbolsFor(outcome))

	zeros := DrawnOutcome{Bitstring: "000"}
	assert.Equal(t, []string{"🍒", "🍒", "🍒"}, SymbolsFor(zeros))
}

func TestSymbolTableShape(t *testing.T) {
	assert.Len(t, Symbols, NumOutcomes)
}
