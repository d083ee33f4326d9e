package qslot

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ValidateShots checks that a shot budget is usable.
func ValidateShots(shots int) error {
	if shots <= 0 {
		return ErrInvalidShots.WithDetails(fmt.Sprintf("got %d", shots))
	}
	return nil
}

// ValidateQueueThreshold checks the busy-queue cutoff.
func ValidateQueueThreshold(threshold int) error {
	if threshold <= 0 {
		return ErrInvalidParameters.WithDetails(fmt.Sprintf("queue threshold must be positive, got %d", threshold))
	}
	return nil
}

// generateSpinID produces a unique identifier for a spin record.
func generateSpinID() string {
	return fmt.Sprintf("spin-%d-%s", time.Now().UnixNano(), randomHex(4))
}

// generateLockValue produces a unique owner token for the submission lock.
func generateLockValue() string {
	return randomHex(16)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to a timestamp so callers still get a unique-ish token.
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
