package formatting

import (
	"math"
	"strconv"
)

// PercentHalfUp converts a fraction to a whole percentage, rounding halves up.
// 0.425 becomes 43, 0.4249 becomes 42. Non-finite input yields 0.
func PercentHalfUp(fraction float64) int {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return 0
	}
	// Rounding on a decimal string avoids 0.285*100 = 28.499999... artifacts.
	scaled, err := strconv.ParseFloat(strconv.FormatFloat(fraction*100, 'f', 6, 64), 64)
	if err != nil {
		return 0
	}
	return int(math.Floor(scaled + 0.5))
}

// FormatPercent renders fraction as "NN%" using PercentHalfUp.
func FormatPercent(fraction float64) string {
	return strconv.Itoa(PercentHalfUp(fraction)) + "%"
}
