// Package testkit generates the deterministic demo dataset used by the
// preview app and examples: a synthetic baseline survey with correlated
// scales, a categorical site column, and select-all-that-apply fields.
package testkit

import (
	"fmt"
	"math/rand"

	"studykit/domain/frame"
)

// DemoConfig controls the synthetic survey shape.
type DemoConfig struct {
	Rows int
	Seed int64
}

// DefaultDemoConfig returns the demo shape used by the preview app.
func DefaultDemoConfig() DemoConfig {
	return DemoConfig{Rows: 120, Seed: 42}
}

// DemoFrame builds the synthetic baseline survey. The numeric scales are
// constructed with known correlation structure: stress tracks burnout,
// satisfaction runs against both, and sleep is nearly independent. Fixed
// seed keeps every rendering identical.
func DemoFrame(cfg DemoConfig) (*frame.Frame, error) {
	if cfg.Rows < 10 {
		cfg.Rows = 10
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	f, err := frame.New([]string{
		"record_id", "site",
		"stress", "burnout", "satisfaction", "sleep_hours",
		"ref_clinician", "ref_flyer", "ref_friend",
	})
	if err != nil {
		return nil, err
	}

	sites := []string{"north", "south", "east"}

	for i := 1; i <= cfg.Rows; i++ {
		latent := rng.NormFloat64()

		stress := 20 + latent*4 + rng.NormFloat64()*1.5
		burnout := 15 + latent*3.5 + rng.NormFloat64()*2.0
		satisfaction := 30 - latent*3 + rng.NormFloat64()*2.5
		sleep := 7 + rng.NormFloat64()*1.2

		row := []string{
			fmt.Sprintf("%d", i),
			sites[rng.Intn(len(sites))],
			fmt.Sprintf("%.1f", stress),
			fmt.Sprintf("%.1f", burnout),
			fmt.Sprintf("%.1f", satisfaction),
			fmt.Sprintf("%.1f", sleep),
			checkbox(rng, 0.55),
			checkbox(rng, 0.25),
			checkbox(rng, 0.40),
		}

		// Sprinkle missing values so listwise deletion has work to do.
		if rng.Float64() < 0.05 {
			row[3] = ""
		}
		if rng.Float64() < 0.05 {
			row[5] = "NA"
		}

		if err := f.AppendRow(row); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// NumericDemoColumns names the demo columns meant for correlation work.
func NumericDemoColumns() []string {
	return []string{"stress", "burnout", "satisfaction", "sleep_hours"}
}

// AllApplyDemoColumns names the demo select-all-that-apply group.
func AllApplyDemoColumns() []string {
	return []string{"ref_clinician", "ref_flyer", "ref_friend"}
}

// checkbox renders a REDCap-style checkbox cell: endorsed or blank.
func checkbox(rng *rand.Rand, p float64) string {
	if rng.Float64() < p {
		return "1"
	}
	return ""
}
