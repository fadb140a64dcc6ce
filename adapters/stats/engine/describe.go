package engine

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"studykit/domain/core"
	"studykit/domain/frame"
	domainstats "studykit/domain/stats"
	"studykit/internal/format"
	"studykit/internal/tables"
)

// DescribeResult holds per-variable descriptive summaries for a frame.
type DescribeResult struct {
	Columns   []domainstats.ColumnSummary
	TotalRows int
}

// Describe computes descriptive statistics for the named numeric columns
// (all columns when none are named). Missing and non-numeric cells are
// dropped per column, so each summary reflects that variable's own
// non-missing observations.
func Describe(f *frame.Frame, columns []string) (*DescribeResult, error) {
	if len(columns) == 0 {
		columns = f.Columns()
	}

	result := &DescribeResult{
		Columns:   make([]domainstats.ColumnSummary, 0, len(columns)),
		TotalRows: f.RowCount(),
	}

	for _, column := range columns {
		values, err := f.NumericColumn(column)
		if err != nil {
			return nil, err
		}

		summary := summarizeColumn(column, values)
		result.Columns = append(result.Columns, summary)
	}

	return result, nil
}

func summarizeColumn(column string, values []float64) domainstats.ColumnSummary {
	observed := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}

	summary := domainstats.ColumnSummary{
		Column:  column,
		N:       len(observed),
		Missing: len(values) - len(observed),
	}
	if len(observed) == 0 {
		summary.Mean = math.NaN()
		summary.StdDev = math.NaN()
		summary.Min = math.NaN()
		summary.Q25 = math.NaN()
		summary.Median = math.NaN()
		summary.Q75 = math.NaN()
		summary.Max = math.NaN()
		summary.Skewness = math.NaN()
		summary.Kurtosis = math.NaN()
		summary.NormalityP = math.NaN()
		summary.CILower = math.NaN()
		summary.CIUpper = math.NaN()
		return summary
	}

	mean, _ := stats.Mean(observed)
	stdDev, _ := stats.StandardDeviation(observed)
	min, _ := stats.Min(observed)
	max, _ := stats.Max(observed)
	median, _ := stats.Median(observed)
	q25, _ := stats.Percentile(observed, 25)
	q75, _ := stats.Percentile(observed, 75)

	summary.Mean = mean
	summary.StdDev = stdDev
	summary.Min = min
	summary.Max = max
	summary.Median = median
	summary.Q25 = q25
	summary.Q75 = q75
	summary.Skewness = skewness(observed, mean, stdDev)
	summary.Kurtosis = kurtosis(observed, mean, stdDev)
	summary.NormalityP = dagostinoK2(observed, mean, stdDev)
	summary.CILower, summary.CIUpper = dist.ConfidenceIntervalMean(mean, stdDev, len(observed), 0.95)

	return summary
}

// skewness computes the adjusted Fisher-Pearson standardized moment.
func skewness(data []float64, mean, stdDev float64) float64 {
	n := float64(len(data))
	if n < 3 || stdDev == 0 {
		return 0
	}

	var sum float64
	for _, v := range data {
		d := (v - mean) / stdDev
		sum += d * d * d
	}
	return (n / ((n - 1) * (n - 2))) * sum
}

// kurtosis computes the (non-excess) sample kurtosis.
func kurtosis(data []float64, mean, stdDev float64) float64 {
	n := float64(len(data))
	if n < 4 || stdDev == 0 {
		return 3
	}

	var sum float64
	for _, v := range data {
		d := (v - mean) / stdDev
		sum += d * d * d * d
	}
	return sum / n
}

// dagostinoK2 computes the two-sided D'Agostino K² normality p-value.
// It combines the skewness and kurtosis Z transforms into a chi-square
// statistic with 2 degrees of freedom. Small or degenerate samples return 1
// (no evidence against normality).
func dagostinoK2(data []float64, mean, stdDev float64) float64 {
	n := float64(len(data))
	if n < 8 || stdDev == 0 || math.IsNaN(stdDev) {
		return 1
	}

	g1 := skewness(data, mean, stdDev)
	g2 := kurtosis(data, mean, stdDev)

	// Skewness transform (D'Agostino)
	y := g1 * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := (3 * (n*n + 27*n - 70) * (n + 1) * (n + 3)) / ((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	if w2 <= 0 {
		return 1
	}
	delta := 1 / math.Sqrt(math.Log(math.Sqrt(w2)))
	alpha := math.Sqrt(2 / (w2 - 1))
	ay := y / alpha
	z1 := delta * math.Log(ay+math.Sqrt(ay*ay+1))

	// Kurtosis transform (Anscombe-Glynn)
	e := 3 * (n - 1) / (n + 1)
	v := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	if v <= 0 {
		return 1
	}
	x := (g2 - e) / math.Sqrt(v)

	sqrtBeta1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) * math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))
	if a <= 4 {
		return 1
	}

	term := 1 - 2/(9*a)
	den := 1 + x*math.Sqrt(2/(a-4))
	if den <= 0 {
		return 0
	}
	z2 := (term - math.Pow((1-2/a)/den, 1.0/3.0)) / math.Sqrt(2/(9*a))

	k2 := z1*z1 + z2*z2
	return dist.ChiSquareSurvival(k2, 2)
}

// Payload converts the summaries into their archival artifact form.
func (r *DescribeResult) Payload() domainstats.DescribePayload {
	return domainstats.DescribePayload{
		Columns:    append([]domainstats.ColumnSummary(nil), r.Columns...),
		TotalRows:  r.TotalRows,
		ComputedAt: core.Now(),
	}
}

// Table renders the summaries as a display table.
func (r *DescribeResult) Table() *tables.Table {
	rows := make([][]string, 0, len(r.Columns))
	for _, c := range r.Columns {
		rows = append(rows, []string{
			c.Column,
			fmt.Sprintf("%d", c.N),
			fmt.Sprintf("%d", c.Missing),
			formatStat(c.Mean),
			formatStat(c.StdDev),
			formatStat(c.Min),
			formatStat(c.Median),
			formatStat(c.Max),
			formatStat(c.Skewness),
		})
	}

	return &tables.Table{
		Title:      "Descriptive summary",
		Subtitle:   fmt.Sprintf("N = %d", r.TotalRows),
		Columns:    []string{"Variable", "n", "Missing", "Mean", "SD", "Min", "Median", "Max", "Skewness"},
		Rows:       rows,
		SourceNote: "Counts exclude missing observations per variable",
	}
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", format.Round(v, 2))
}
