// Package shared provides helpers used across all modules in sprintforge-go.
package shared

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// ============================================================================
// Errors
// ============================================================================

var (
	// ErrEpisodeNotFound is returned when an episode does not exist in a store.
	ErrEpisodeNotFound = errors.New("episode not found")

	// ErrStoreClosed is returned when an operation is attempted on a closed store.
	ErrStoreClosed = errors.New("episode store is closed")

	// ErrOutcomeAlreadyRecorded is returned when an outcome is recorded twice.
	ErrOutcomeAlreadyRecorded = errors.New("episode outcome already recorded")
)

// ============================================================================
// Utility Functions
// ============================================================================

// GenerateID generates a prefixed unique identifier.
func GenerateID(prefix string) string {
	if prefix == "" {
		return uuid.New().String()
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String())
}

// Clamp01 clamps a value to the [0, 1] range. NaN clamps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// IsFraction reports whether v is a well-formed fraction in [0, 1].
func IsFraction(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 1
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
