package tables

import (
	"errors"
	"strings"
	"testing"

	"studykit/domain/core"
	"studykit/domain/frame"
)

func surveyFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.FromRecords([][]string{
		{"record_id", "clinic", "ref_phone", "ref_web", "ref_friend"},
		{"1", "north", "1", "", "1"},
		{"2", "south", "1", "1", ""},
		{"3", "north", "", "1", ""},
		{"4", "east", "1", "", ""},
		{"5", "north", "", "", "1"},
		{"6", "", "1", "1", ""},
	})
	if err != nil {
		t.Fatalf("Failed to build test frame: %v", err)
	}
	return f
}

// TestFreqProp tests the frequency/proportion table builder
func TestFreqProp(t *testing.T) {
	tbl, err := FreqProp(surveyFrame(t), "clinic")
	if err != nil {
		t.Fatalf("FreqProp failed: %v", err)
	}

	// Header N counts all rows, including the one with a missing clinic
	if tbl.Columns[1] != "N = 6" {
		t.Errorf("Expected header 'N = 6', got '%s'", tbl.Columns[1])
	}

	if len(tbl.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(tbl.Rows))
	}

	// Counts descend; proportions are over the 5 non-missing cells
	expected := [][]string{
		{"north", "3 (60.0%)"},
		{"east", "1 (20.0%)"},
		{"south", "1 (20.0%)"},
	}
	for i, want := range expected {
		if tbl.Rows[i][0] != want[0] || tbl.Rows[i][1] != want[1] {
			t.Errorf("Row %d: expected %v, got %v", i, want, tbl.Rows[i])
		}
	}
}

// TestFreqPropTieOrder tests that equal counts sort by label
func TestFreqPropTieOrder(t *testing.T) {
	f, err := frame.FromRecords([][]string{
		{"color"},
		{"red"}, {"blue"}, {"red"}, {"blue"},
	})
	if err != nil {
		t.Fatalf("Failed to build frame: %v", err)
	}

	tbl, err := FreqProp(f, "color")
	if err != nil {
		t.Fatalf("FreqProp failed: %v", err)
	}
	if tbl.Rows[0][0] != "blue" || tbl.Rows[1][0] != "red" {
		t.Errorf("Expected tie broken by label, got %v then %v", tbl.Rows[0][0], tbl.Rows[1][0])
	}
}

// TestFreqPropUnknownColumn tests the error path for a bad column name
func TestFreqPropUnknownColumn(t *testing.T) {
	_, err := FreqProp(surveyFrame(t), "missing_column")
	if err == nil {
		t.Fatal("Expected error for unknown column, got none")
	}
	if !errors.Is(err, core.ErrColumnNotFound) {
		t.Errorf("Expected ErrColumnNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing_column") {
		t.Errorf("Error should name the column: %v", err)
	}
}

// TestAllApply tests the select-all-that-apply summary
func TestAllApply(t *testing.T) {
	f := surveyFrame(t)

	tbl, err := AllApply(f, []string{"ref_phone", "ref_web", "ref_friend"}, "Referral source", false)
	if err != nil {
		t.Fatalf("AllApply failed: %v", err)
	}

	if tbl.Columns[0] != "Referral source" || tbl.Columns[1] != "N = 6" {
		t.Errorf("Unexpected header: %v", tbl.Columns)
	}

	// Unsorted: frame argument order, count over all 6 rows
	expected := [][]string{
		{"ref_phone", "4, (66.7%)"},
		{"ref_web", "3, (50.0%)"},
		{"ref_friend", "2, (33.3%)"},
	}
	for i, want := range expected {
		if tbl.Rows[i][0] != want[0] || tbl.Rows[i][1] != want[1] {
			t.Errorf("Row %d: expected %v, got %v", i, want, tbl.Rows[i])
		}
	}
}

// TestAllApplySorted tests descending sort by count
func TestAllApplySorted(t *testing.T) {
	tbl, err := AllApply(surveyFrame(t), []string{"ref_friend", "ref_phone", "ref_web"}, "Referral source", true)
	if err != nil {
		t.Fatalf("AllApply failed: %v", err)
	}

	order := []string{"ref_phone", "ref_web", "ref_friend"}
	for i, want := range order {
		if tbl.Rows[i][0] != want {
			t.Errorf("Row %d: expected '%s', got '%s'", i, want, tbl.Rows[i][0])
		}
	}
}

// TestAllApplyRejectsConstantColumn tests that a fully-answered column fails
func TestAllApplyRejectsConstantColumn(t *testing.T) {
	// record_id is answered on every row, so its indicator never varies
	_, err := AllApply(surveyFrame(t), []string{"record_id"}, "IDs", false)
	if err == nil {
		t.Fatal("Expected error for non-binary column, got none")
	}
	if !errors.Is(err, core.ErrColumnNotBinary) {
		t.Errorf("Expected ErrColumnNotBinary, got %v", err)
	}
	if !strings.Contains(err.Error(), "record_id") {
		t.Errorf("Error should name the column: %v", err)
	}
}

// TestAllApplyEmptyColumns tests the empty-selection error
func TestAllApplyEmptyColumns(t *testing.T) {
	_, err := AllApply(surveyFrame(t), nil, "Empty", false)
	if !errors.Is(err, core.ErrNoColumns) {
		t.Errorf("Expected ErrNoColumns, got %v", err)
	}
}

// TestMarkdownRender tests the pipe-table renderer
func TestMarkdownRender(t *testing.T) {
	tbl := &Table{
		Title:   "Clinic",
		Columns: []string{"clinic", "N = 6"},
		Rows:    [][]string{{"north", "3 (60.0%)"}},
	}

	md := tbl.Markdown()
	if !strings.Contains(md, "### Clinic") {
		t.Error("Markdown should include the title heading")
	}
	if !strings.Contains(md, "| clinic | N = 6 |") {
		t.Errorf("Markdown missing header row:\n%s", md)
	}
	if !strings.Contains(md, "| north | 3 (60.0%) |") {
		t.Errorf("Markdown missing data row:\n%s", md)
	}
}

// TestCSVRender tests the CSV renderer round-trips through Records
func TestCSVRender(t *testing.T) {
	tbl := &Table{
		Columns: []string{"a", "b"},
		Rows:    [][]string{{"x", "1"}, {"y, z", "2"}},
	}

	got := tbl.CSV()
	want := "a,b\nx,1\n\"y, z\",2\n"
	if got != want {
		t.Errorf("Expected CSV %q, got %q", want, got)
	}
}

// TestHTMLRender tests the HTML fragment renderer escapes content
func TestHTMLRender(t *testing.T) {
	tbl := &Table{
		Title:   "Summary",
		Columns: []string{"label", "value"},
		Rows:    [][]string{{"<script>", "1"}},
	}

	html, err := tbl.HTML()
	if err != nil {
		t.Fatalf("HTML render failed: %v", err)
	}
	if !strings.Contains(html, "<caption>Summary</caption>") {
		t.Errorf("HTML missing caption:\n%s", html)
	}
	if strings.Contains(html, "<script>") {
		t.Error("HTML should escape cell content")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Errorf("Expected escaped cell, got:\n%s", html)
	}
}
