package engine

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"studykit/domain/core"
)

// Pearson computes the Pearson product-moment correlation of two columns.
// Inputs must be complete (no NaN) and the same length.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(x), len(y))
	}
	if len(x) < 3 {
		return 0, core.NewInsufficientDataError(3, len(x))
	}
	if isConstant(x) || isConstant(y) {
		return 0, core.ErrConstantColumn
	}

	r, err := stats.Correlation(x, y)
	if err != nil {
		return 0, fmt.Errorf("correlation failed: %w", err)
	}
	return clampCorrelation(r), nil
}

// Spearman computes the rank correlation: Pearson over tie-averaged ranks.
func Spearman(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(x), len(y))
	}
	return Pearson(computeRanks(x), computeRanks(y))
}

// correlate dispatches on the method name. Callers validate the method
// before the sweep starts, so an unknown name here is a programming error.
func correlate(method string, x, y []float64) (float64, error) {
	switch method {
	case "spearman":
		return Spearman(x, y)
	case "pearson":
		return Pearson(x, y)
	default:
		return 0, core.NewUnknownMethodError(method)
	}
}

// computeRanks converts values to ranks, handling ties by averaging
func computeRanks(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return []float64{}
	}

	type pair struct {
		value float64
		index int
	}

	pairs := make([]pair, n)
	for i, val := range data {
		pairs[i] = pair{value: val, index: i}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	ranks := make([]float64, n)

	// Walk tie groups and assign each member the group's average rank
	i := 0
	for i < n {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}

		groupSize := j - i
		avgRank := float64(i+1) + float64(groupSize-1)/2.0

		for k := i; k < j; k++ {
			ranks[pairs[k].index] = avgRank
		}

		i = j
	}

	return ranks
}

// isConstant reports whether all values are identical
func isConstant(data []float64) bool {
	for i := 1; i < len(data); i++ {
		if data[i] != data[0] {
			return false
		}
	}
	return true
}

// clampCorrelation pins floating-point drift back into [-1, 1]
func clampCorrelation(r float64) float64 {
	if r > 1.0 {
		return 1.0
	}
	if r < -1.0 {
		return -1.0
	}
	return r
}
