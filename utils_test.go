package qslot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateShots(t *testing.T) {
	assert.NoError(t, ValidateShots(1))
	assert.NoError(t, ValidateShots(DefaultShots))
	assert.ErrorIs(t, ValidateShots(0), ErrInvalidShots)
	assert.ErrorIs(t, ValidateShots(-1), ErrInvalidShots)
}

func TestValidateQueueThreshold(t *testing.T) {
	assert.NoError(t, ValidateQueueThreshold(10))
	assert.ErrorIs(t, ValidateQueueThreshold(0), ErrInvalidParameters)
}

func TestGenerateSpinIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := generateSpinID()
		assert.True(t, strings.HasPrefix(id, "spin-"))
		assert.False(t, seen[id], "duplicate spin id %s", id)
		seen[id] = true
	}
}

func TestGenerateLockValueUniqueness(t *testing.T) {
	a := generateLockValue()
	b := generateLockValue()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
