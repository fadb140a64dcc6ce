package stats

import (
	"fmt"

	"studykit/domain/core"
)

// Method selects the correlation coefficient underlying a comparison.
type Method string

const (
	MethodPearson  Method = "pearson"
	MethodSpearman Method = "spearman"
)

// ParseMethod validates a method name. Only Pearson and Spearman are
// supported; anything else is rejected.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodPearson:
		return MethodPearson, nil
	case MethodSpearman:
		return MethodSpearman, nil
	default:
		return "", core.NewUnknownMethodError(s)
	}
}

func (m Method) String() string {
	return string(m)
}

// Pair is an ordered pair of variables whose correlation enters a comparison
type Pair struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// Label renders the pair the way it appears in comparison labels
func (p Pair) Label() string {
	return fmt.Sprintf("%s-%s", p.X, p.Y)
}

// Variables returns the pair's variables in order
func (p Pair) Variables() []string {
	return []string{p.X, p.Y}
}

// SkipReason represents structured reasons a comparison was not tested
type SkipReason string

const (
	// SkipInsufficientN means too few complete cases for the √(n−3) term.
	SkipInsufficientN SkipReason = "INSUFFICIENT_N"
	// SkipDegenerate means the test denominator collapsed to zero.
	SkipDegenerate SkipReason = "DEGENERATE"
	// SkipConstantColumn means a variable had no variance in the complete cases.
	SkipConstantColumn SkipReason = "CONSTANT_COLUMN"
)

// SteigerComparison is one tested comparison between two correlations
type SteigerComparison struct {
	PairA       Pair    `json:"pair_a"`
	PairB       Pair    `json:"pair_b"`
	Overlapping bool    `json:"overlapping"`
	Shared      string  `json:"shared,omitempty"` // shared variable when overlapping
	N           int     `json:"n"`                // complete cases used
	R1          float64 `json:"r1"`               // correlation of PairA
	R2          float64 `json:"r2"`               // correlation of PairB
	Z           float64 `json:"z"`                // reported at two decimals
	P           float64 `json:"p"`                // raw two-tailed p
	PFormatted  string  `json:"p_formatted"`
}

// Label renders the comparison the way it appears in the output table
func (c SteigerComparison) Label() string {
	return fmt.Sprintf("%s vs. %s", c.PairA.Label(), c.PairB.Label())
}

// SkippedComparison records why a comparison produced no statistic
type SkippedComparison struct {
	PairA  Pair       `json:"pair_a"`
	PairB  Pair       `json:"pair_b"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// Label renders the skipped comparison's label
func (s SkippedComparison) Label() string {
	return fmt.Sprintf("%s vs. %s", s.PairA.Label(), s.PairB.Label())
}

// SteigerSweepPayload is the artifact payload of a full comparison sweep
type SteigerSweepPayload struct {
	Method      Method              `json:"method"`
	Columns     []string            `json:"columns"`
	Comparisons []SteigerComparison `json:"comparisons"`
	Skipped     []SkippedComparison `json:"skipped,omitempty"`
	Fingerprint core.Fingerprint    `json:"fingerprint,omitempty"`
	ComputedAt  core.Timestamp      `json:"computed_at"`
}

// ColumnSummary holds the descriptive statistics of one numeric variable
type ColumnSummary struct {
	Column     string  `json:"column"`
	N          int     `json:"n"`       // non-missing observations
	Missing    int     `json:"missing"` // missing observations
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Min        float64 `json:"min"`
	Q25        float64 `json:"q25"`
	Median     float64 `json:"median"`
	Q75        float64 `json:"q75"`
	Max        float64 `json:"max"`
	Skewness   float64 `json:"skewness"`
	Kurtosis   float64 `json:"kurtosis"`
	NormalityP float64 `json:"normality_p"` // D'Agostino K² two-sided p
	CILower    float64 `json:"ci_lower"`    // 95% CI for the mean
	CIUpper    float64 `json:"ci_upper"`
}

// DescribePayload is the artifact payload of a descriptive summary run
type DescribePayload struct {
	Columns    []ColumnSummary `json:"columns"`
	TotalRows  int             `json:"total_rows"`
	ComputedAt core.Timestamp  `json:"computed_at"`
}
