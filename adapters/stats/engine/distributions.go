package engine

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distributions provides unified access to the distribution functions the
// engine needs, so CDF plumbing stays in one place.
type Distributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *Distributions {
	return &Distributions{}
}

// NormalCDF computes the cumulative distribution function of the standard normal
func (d *Distributions) NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalQuantile computes the quantile function of the standard normal (inverse CDF)
func (d *Distributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// TwoTailedNormalP converts a z statistic into a two-tailed p-value
func (d *Distributions) TwoTailedNormalP(z float64) float64 {
	if math.IsNaN(z) {
		return math.NaN()
	}
	return 2 * (1 - d.NormalCDF(math.Abs(z)))
}

// ChiSquareSurvival computes 1 - CDF for the chi-square distribution
func (d *Distributions) ChiSquareSurvival(x float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}

	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return 1 - chiDist.CDF(x)
}

// ConfidenceIntervalMean computes a t-based confidence interval for a mean
func (d *Distributions) ConfidenceIntervalMean(sampleMean, sampleStd float64, sampleSize int, confidenceLevel float64) (lower, upper float64) {
	if sampleSize < 2 {
		return sampleMean, sampleMean
	}

	df := float64(sampleSize - 1)
	alpha := 1.0 - confidenceLevel
	tCritical := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(1.0 - alpha/2.0)

	se := sampleStd / math.Sqrt(float64(sampleSize))
	margin := tCritical * se
	return sampleMean - margin, sampleMean + margin
}

// dist is the package-wide distributions instance used by the engine
var dist = NewDistributions()
