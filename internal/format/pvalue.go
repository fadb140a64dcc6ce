// Package format holds the small publication-formatting helpers shared by
// the summary tables and the correlation-comparison output.
package format

import (
	"fmt"
	"math"
	"strconv"
)

// defaultDigits is the precision used for reported p-values.
const defaultDigits = 4

// pFloor is the smallest p-value reported numerically; anything below is
// reported as "<0.0001" per journal convention.
const pFloor = 0.0001

// PValue formats a p-value for publication at the default precision.
func PValue(p float64) string {
	return PValueDigits(p, defaultDigits)
}

// PValueDigits formats a p-value at a chosen precision. Values below 0.0001
// render as "<0.0001" regardless of precision. Non-positive digit counts
// fall back to the default.
func PValueDigits(p float64, digits int) string {
	if digits < 1 {
		digits = defaultDigits
	}
	if p < pFloor {
		return "<0.0001"
	}
	return strconv.FormatFloat(p, 'f', digits, 64)
}

// PValues formats a slice of p-values elementwise.
func PValues(ps []float64) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = PValue(p)
	}
	return out
}

// CountPercent renders a count with its percentage, e.g. "12 (34.5%)".
func CountPercent(count int, pct float64) string {
	return fmt.Sprintf("%d (%.1f%%)", count, pct)
}

// Round rounds half away from zero at the given number of decimal places.
func Round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}
