package format

import (
	"math"
	"testing"
)

// TestPValue tests default p-value formatting
func TestPValue(t *testing.T) {
	tests := []struct {
		p        float64
		expected string
	}{
		{0.5, "0.5000"},
		{0.04999, "0.0500"},
		{0.0432, "0.0432"},
		{0.0001, "0.0001"},
		{0.00009999, "<0.0001"},
		{0.0000001, "<0.0001"},
		{0, "<0.0001"},
		{1, "1.0000"},
	}

	for _, test := range tests {
		got := PValue(test.p)
		if got != test.expected {
			t.Errorf("PValue(%g): expected '%s', got '%s'", test.p, test.expected, got)
		}
	}
}

// TestPValueDigits tests precision control
func TestPValueDigits(t *testing.T) {
	tests := []struct {
		p        float64
		digits   int
		expected string
	}{
		{0.12345, 3, "0.123"},
		{0.12345, 2, "0.12"},
		{0.5, 6, "0.500000"},
		// Below-floor values keep the fixed threshold string
		{0.00005, 2, "<0.0001"},
		// Non-positive digits fall back to the default
		{0.5, 0, "0.5000"},
		{0.5, -3, "0.5000"},
	}

	for _, test := range tests {
		got := PValueDigits(test.p, test.digits)
		if got != test.expected {
			t.Errorf("PValueDigits(%g, %d): expected '%s', got '%s'", test.p, test.digits, test.expected, got)
		}
	}
}

// TestPValues tests elementwise formatting
func TestPValues(t *testing.T) {
	got := PValues([]float64{0.5, 0.00001, 0.0432})
	expected := []string{"0.5000", "<0.0001", "0.0432"}

	if len(got) != len(expected) {
		t.Fatalf("Expected %d values, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Index %d: expected '%s', got '%s'", i, expected[i], got[i])
		}
	}
}

// TestCountPercent tests count-with-percentage rendering
func TestCountPercent(t *testing.T) {
	if got := CountPercent(12, 34.5); got != "12 (34.5%)" {
		t.Errorf("Expected '12 (34.5%%)', got '%s'", got)
	}
	if got := CountPercent(0, 0); got != "0 (0.0%)" {
		t.Errorf("Expected '0 (0.0%%)', got '%s'", got)
	}
}

// TestRound tests half-away-from-zero rounding
func TestRound(t *testing.T) {
	tests := []struct {
		x        float64
		places   int
		expected float64
	}{
		{1.045, 2, 1.05},
		{0.125, 2, 0.13},
		{2.344, 2, 2.34},
		{2.346, 2, 2.35},
		{1.5, 0, 2},
		{-1.5, 0, -2},
	}

	for _, test := range tests {
		got := Round(test.x, test.places)
		if math.Abs(got-test.expected) > 1e-9 {
			t.Errorf("Round(%g, %d): expected %g, got %g", test.x, test.places, test.expected, got)
		}
	}
}
