// Package confidence implements the gate that decides whether a classifier
// result needs human review, plus the display bands shown to reviewers.
package confidence

import (
	"errors"
	"fmt"
	"math"

	"github.com/ylk14/SmartPlant-sub000/pkg/formatting"
)

// DefaultThreshold queues every observation scored below 60% for review.
const DefaultThreshold = 0.6

// ErrOutOfRange is returned for confidences outside [0, 1] or non-finite.
var ErrOutOfRange = errors.New("confidence must be a finite fraction in [0, 1]")

// Gate routes classifier results either to the review queue or straight to verified.
type Gate struct {
	Threshold float64
}

// NewGate returns a Gate, falling back to DefaultThreshold for invalid thresholds.
func NewGate(threshold float64) Gate {
	if Validate(threshold) != nil {
		threshold = DefaultThreshold
	}
	return Gate{Threshold: threshold}
}

// ShouldQueueForReview reports whether c falls below the gate threshold.
// Non-finite values always queue.
func (g Gate) ShouldQueueForReview(c float64) bool {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return true
	}
	return c < g.Threshold
}

// Validate rejects NaN, infinities and values outside [0, 1].
func Validate(c float64) error {
	if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 || c > 1 {
		return fmt.Errorf("%w: got %v", ErrOutOfRange, c)
	}
	return nil
}

// Band is a coarse confidence label for display.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

const (
	mediumFloor = 0.4
	highFloor   = 0.7
)

// Classify maps c to a display band. It is independent of the gate threshold.
func Classify(c float64) Band {
	switch {
	case math.IsNaN(c) || c < mediumFloor:
		return BandLow
	case c < highFloor:
		return BandMedium
	default:
		return BandHigh
	}
}

// Percent renders c as a half-up rounded percentage, e.g. 0.425 -> "43%".
func Percent(c float64) string {
	return formatting.FormatPercent(c)
}
