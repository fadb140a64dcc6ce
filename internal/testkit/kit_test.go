package testkit

import (
	"testing"

	"studykit/domain/frame"
)

// TestDemoFrameDeterministic tests that the fixed seed reproduces exactly
func TestDemoFrameDeterministic(t *testing.T) {
	first, err := DemoFrame(DefaultDemoConfig())
	if err != nil {
		t.Fatalf("DemoFrame failed: %v", err)
	}
	second, err := DemoFrame(DefaultDemoConfig())
	if err != nil {
		t.Fatalf("DemoFrame failed: %v", err)
	}

	if first.RowCount() != 120 {
		t.Errorf("Expected 120 rows, got %d", first.RowCount())
	}

	a := first.Records()
	b := second.Records()
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("Demo data not deterministic at [%d][%d]: '%s' vs '%s'", i, j, a[i][j], b[i][j])
			}
		}
	}
}

// TestDemoFrameShape tests columns and missingness
func TestDemoFrameShape(t *testing.T) {
	f, err := DemoFrame(DefaultDemoConfig())
	if err != nil {
		t.Fatalf("DemoFrame failed: %v", err)
	}

	for _, column := range NumericDemoColumns() {
		if !f.HasColumn(column) {
			t.Errorf("Missing numeric column '%s'", column)
		}
	}
	for _, column := range AllApplyDemoColumns() {
		cells, err := f.Column(column)
		if err != nil {
			t.Fatalf("Column failed: %v", err)
		}
		endorsed := 0
		for _, cell := range cells {
			if !frame.IsMissing(cell) {
				endorsed++
			}
		}
		// Indicators must vary for the all-apply table to accept them
		if endorsed == 0 || endorsed == f.RowCount() {
			t.Errorf("Column '%s' indicator does not vary (%d of %d)", column, endorsed, f.RowCount())
		}
	}

	// Burnout carries injected missing cells
	complete, err := f.CompleteCases("burnout", "sleep_hours")
	if err != nil {
		t.Fatalf("CompleteCases failed: %v", err)
	}
	if complete.RowCount() >= f.RowCount() {
		t.Error("Expected some missing burnout/sleep cells")
	}
}
