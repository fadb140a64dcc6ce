package engine

import (
	"errors"
	"fmt"
	"math"

	"studykit/domain/core"
	"studykit/domain/frame"
	domainstats "studykit/domain/stats"
	"studykit/internal/format"
	"studykit/internal/tables"
)

// minCompleteCases is the smallest usable sample: both formulas carry a
// √(n−3) term, so n must exceed 3.
const minCompleteCases = 4

// SteigerResult is the full output of a correlation-comparison sweep.
type SteigerResult struct {
	Method      domainstats.Method
	Columns     []string
	Comparisons []domainstats.SteigerComparison
	Skipped     []domainstats.SkippedComparison
}

// SteigerSweep runs Steiger's Z test over every comparison of correlation
// pairs drawn from the named columns. First-order pairs are the
// 2-combinations of the columns in the given order; comparisons are the
// 2-combinations of those pairs. Each comparison is computed on its own
// complete cases, so rows missing an uninvolved variable still count.
//
// A comparison whose correlations share a variable uses the overlapping
// form of the test; one whose pairs are disjoint uses the non-overlapping
// form with the Fisher transform. Comparisons that cannot be tested (too
// few complete cases, a constant column, a collapsed denominator) are
// reported as skipped rather than failing the sweep.
func SteigerSweep(f *frame.Frame, columns []string, method domainstats.Method) (*SteigerResult, error) {
	if _, err := domainstats.ParseMethod(method.String()); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		columns = f.Columns()
	}
	if len(columns) < 3 {
		return nil, fmt.Errorf("need at least 3 columns for a comparison, got %d", len(columns))
	}

	// Validate the selection up front so a typo fails the whole sweep
	// instead of surfacing as a skip.
	for _, column := range columns {
		if !f.HasColumn(column) {
			return nil, core.NewColumnNotFoundError(column)
		}
	}

	pairs := firstOrderPairs(columns)

	result := &SteigerResult{
		Method:  method,
		Columns: append([]string(nil), columns...),
	}

	for i := 0; i < len(pairs); i++ {
		for j := i + 1; j < len(pairs); j++ {
			comparison, skip := compareCorrelations(f, pairs[i], pairs[j], method)
			if skip != nil {
				result.Skipped = append(result.Skipped, *skip)
				continue
			}
			result.Comparisons = append(result.Comparisons, *comparison)
		}
	}

	return result, nil
}

// firstOrderPairs enumerates the 2-combinations of columns in order.
func firstOrderPairs(columns []string) []domainstats.Pair {
	pairs := make([]domainstats.Pair, 0, len(columns)*(len(columns)-1)/2)
	for i := 0; i < len(columns); i++ {
		for j := i + 1; j < len(columns); j++ {
			pairs = append(pairs, domainstats.Pair{X: columns[i], Y: columns[j]})
		}
	}
	return pairs
}

// distinctVariables flattens two pairs into their distinct variables,
// preserving first-occurrence order. Three distinct variables means the
// correlations overlap; four means they do not.
func distinctVariables(a, b domainstats.Pair) []string {
	seen := make(map[string]bool, 4)
	out := make([]string, 0, 4)
	for _, v := range [4]string{a.X, a.Y, b.X, b.Y} {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// sharedVariable returns the variable the two pairs have in common.
func sharedVariable(a, b domainstats.Pair) string {
	if a.X == b.X || a.X == b.Y {
		return a.X
	}
	return a.Y
}

// otherVariable returns the pair's variable that is not the shared one.
func otherVariable(p domainstats.Pair, shared string) string {
	if p.X == shared {
		return p.Y
	}
	return p.X
}

func compareCorrelations(f *frame.Frame, pairA, pairB domainstats.Pair, method domainstats.Method) (*domainstats.SteigerComparison, *domainstats.SkippedComparison) {
	variables := distinctVariables(pairA, pairB)
	overlapping := len(variables) == 3

	complete, err := f.CompleteCases(variables...)
	if err != nil {
		// Columns were validated before the sweep started.
		return nil, skipped(pairA, pairB, domainstats.SkipInsufficientN, err.Error())
	}

	n := complete.RowCount()
	if n < minCompleteCases {
		detail := fmt.Sprintf("%d complete cases, need at least %d", n, minCompleteCases)
		return nil, skipped(pairA, pairB, domainstats.SkipInsufficientN, detail)
	}

	data := make(map[string][]float64, len(variables))
	for _, v := range variables {
		column, err := complete.NumericColumn(v)
		if err != nil {
			return nil, skipped(pairA, pairB, domainstats.SkipInsufficientN, err.Error())
		}
		data[v] = column
	}

	corr := func(x, y string) (float64, error) {
		return correlate(method.String(), data[x], data[y])
	}

	var z float64
	var shared string
	var r1, r2 float64

	if overlapping {
		// The two tested correlations are the ones involving the shared
		// variable; the third closes the triangle.
		shared = sharedVariable(pairA, pairB)
		a := otherVariable(pairA, shared)
		b := otherVariable(pairB, shared)

		rka, err := corr(shared, a)
		if err != nil {
			return nil, skipCorrelation(pairA, pairB, err)
		}
		rkb, err := corr(shared, b)
		if err != nil {
			return nil, skipCorrelation(pairA, pairB, err)
		}
		rab, err := corr(a, b)
		if err != nil {
			return nil, skipCorrelation(pairA, pairB, err)
		}

		r1, r2 = rka, rkb
		z, err = steigerOverlapping(rka, rkb, rab, n)
		if err != nil {
			return nil, skipped(pairA, pairB, domainstats.SkipDegenerate, err.Error())
		}
	} else {
		v1, v2, v3, v4 := variables[0], variables[1], variables[2], variables[3]

		rs := [6]float64{}
		for i, pair := range [6][2]string{
			{v1, v2}, {v3, v4}, {v1, v3}, {v1, v4}, {v2, v3}, {v2, v4},
		} {
			r, err := corr(pair[0], pair[1])
			if err != nil {
				return nil, skipCorrelation(pairA, pairB, err)
			}
			rs[i] = r
		}

		r1, r2 = rs[0], rs[1]
		var err error
		z, err = steigerNonOverlapping(rs[0], rs[1], rs[2], rs[3], rs[4], rs[5], n)
		if err != nil {
			return nil, skipped(pairA, pairB, domainstats.SkipDegenerate, err.Error())
		}
	}

	p := dist.TwoTailedNormalP(z)

	return &domainstats.SteigerComparison{
		PairA:       pairA,
		PairB:       pairB,
		Overlapping: overlapping,
		Shared:      shared,
		N:           n,
		R1:          r1,
		R2:          r2,
		Z:           format.Round(z, 2),
		P:           p,
		PFormatted:  format.PValue(p),
	}, nil
}

// steigerOverlapping computes the Z statistic for two correlations sharing
// one variable: r_ka and r_kb are tested, r_ab is the correlation between
// the non-shared variables.
func steigerOverlapping(rka, rkb, rab float64, n int) (float64, error) {
	numerator := (rka - rkb) * math.Sqrt(float64(n-3)) * math.Sqrt(1+rab)
	determinant := 1 - rka*rka - rkb*rkb - rab*rab + 2*rka*rkb*rab
	denominator := math.Sqrt(2 * determinant)

	if denominator == 0 || math.IsNaN(denominator) {
		return 0, fmt.Errorf("%w: correlation determinant collapsed", core.ErrDegenerate)
	}
	return numerator / denominator, nil
}

// steigerNonOverlapping computes the Z statistic for two correlations with
// no variable in common, via the Fisher transform and the pooled covariance
// term of Steiger's equation for dependent, non-overlapping correlations.
func steigerNonOverlapping(r12, r34, r13, r14, r23, r24 float64, n int) (float64, error) {
	if math.Abs(r12) == 1 || math.Abs(r34) == 1 {
		return 0, fmt.Errorf("%w: perfect correlation has no finite Fisher transform", core.ErrDegenerate)
	}

	rbar := 0.5 * (r12 + r34)
	sNum := (r13-rbar*r23)*(r24-rbar*r23) +
		(r14-rbar*r13)*(r23-rbar*r13) +
		(r13-rbar*r14)*(r24-rbar*r14) +
		(r14-rbar*r24)*(r23-rbar*r24)
	sDenom := (1 - rbar*rbar) * (1 - rbar*rbar)
	if sDenom == 0 {
		return 0, fmt.Errorf("%w: mean correlation at unity", core.ErrDegenerate)
	}
	s := 0.5 * sNum / sDenom

	denominator := math.Sqrt(2 - 2*s)
	if denominator == 0 || math.IsNaN(denominator) {
		return 0, fmt.Errorf("%w: covariance term collapsed", core.ErrDegenerate)
	}

	return math.Sqrt(float64(n-3)) * (math.Atanh(r12) - math.Atanh(r34)) / denominator, nil
}

func skipped(a, b domainstats.Pair, reason domainstats.SkipReason, detail string) *domainstats.SkippedComparison {
	return &domainstats.SkippedComparison{PairA: a, PairB: b, Reason: reason, Detail: detail}
}

// skipCorrelation maps a correlation failure onto a skip reason.
func skipCorrelation(a, b domainstats.Pair, err error) *domainstats.SkippedComparison {
	reason := domainstats.SkipDegenerate
	switch {
	case errors.Is(err, core.ErrConstantColumn):
		reason = domainstats.SkipConstantColumn
	case errors.Is(err, core.ErrInsufficientData):
		reason = domainstats.SkipInsufficientN
	}
	return skipped(a, b, reason, err.Error())
}

// Payload converts the sweep into its archival artifact form.
func (r *SteigerResult) Payload(fingerprint core.Fingerprint) domainstats.SteigerSweepPayload {
	return domainstats.SteigerSweepPayload{
		Method:      r.Method,
		Columns:     append([]string(nil), r.Columns...),
		Comparisons: append([]domainstats.SteigerComparison(nil), r.Comparisons...),
		Skipped:     append([]domainstats.SkippedComparison(nil), r.Skipped...),
		Fingerprint: fingerprint,
		ComputedAt:  core.Now(),
	}
}

// Table renders the sweep as a display table matching the published layout.
func (r *SteigerResult) Table() *tables.Table {
	rows := make([][]string, 0, len(r.Comparisons))
	for _, c := range r.Comparisons {
		rows = append(rows, []string{
			c.Label(),
			fmt.Sprintf("%d", c.N),
			fmt.Sprintf("%.2f", c.Z),
			c.PFormatted,
		})
	}

	note := ""
	if len(r.Skipped) > 0 {
		note = fmt.Sprintf("%d comparison(s) skipped", len(r.Skipped))
	}

	return &tables.Table{
		Title:      "Steiger's Z comparisons",
		Subtitle:   fmt.Sprintf("%s correlations", r.Method),
		Columns:    []string{"Comparison", "n", "z", "p-value"},
		Rows:       rows,
		SourceNote: note,
	}
}

// Frame converts the sweep into an analysis frame for CSV export.
func (r *SteigerResult) Frame() (*frame.Frame, error) {
	f, err := frame.New([]string{"comparison", "n", "z", "p_value"})
	if err != nil {
		return nil, err
	}
	for _, c := range r.Comparisons {
		row := []string{
			c.Label(),
			fmt.Sprintf("%d", c.N),
			fmt.Sprintf("%.2f", c.Z),
			c.PFormatted,
		}
		if err := f.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return f, nil
}
