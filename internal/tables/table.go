// Package tables builds the formatted display tables used in study
// reports: frequency/proportion tables, select-all-that-apply summaries,
// and per-variable descriptive summaries. A Table is format-independent;
// renderers turn it into Markdown, CSV, or HTML.
package tables

import (
	"encoding/csv"
	"strings"
)

// Table is a formatted display table: a titled grid of pre-rendered
// string cells, ready to hand to any renderer or file writer.
type Table struct {
	Title      string     `json:"title,omitempty"`
	Subtitle   string     `json:"subtitle,omitempty"`
	Columns    []string   `json:"columns"`
	Rows       [][]string `json:"rows"`
	SourceNote string     `json:"source_note,omitempty"`
}

// Records returns the table as CSV-shaped records: header first, then rows.
// Title and source note are not included; they belong to the rendering.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, append([]string(nil), t.Columns...))
	for _, row := range t.Rows {
		records = append(records, append([]string(nil), row...))
	}
	return records
}

// Markdown renders the table as a pipe table with the title as a heading.
func (t *Table) Markdown() string {
	var b strings.Builder

	if t.Title != "" {
		b.WriteString("### ")
		b.WriteString(t.Title)
		b.WriteString("\n\n")
	}
	if t.Subtitle != "" {
		b.WriteString(t.Subtitle)
		b.WriteString("\n\n")
	}

	b.WriteString("| ")
	b.WriteString(strings.Join(escapeCells(t.Columns), " | "))
	b.WriteString(" |\n|")
	for range t.Columns {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	for _, row := range t.Rows {
		b.WriteString("| ")
		b.WriteString(strings.Join(escapeCells(row), " | "))
		b.WriteString(" |\n")
	}

	if t.SourceNote != "" {
		b.WriteString("\n_")
		b.WriteString(t.SourceNote)
		b.WriteString("_\n")
	}

	return b.String()
}

// CSV renders the table body (header + rows) as CSV text.
func (t *Table) CSV() string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	// csv.Writer only errors on a broken underlying writer; strings.Builder
	// never fails.
	_ = w.WriteAll(t.Records())
	w.Flush()
	return b.String()
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, cell := range cells {
		out[i] = strings.ReplaceAll(cell, "|", "\\|")
	}
	return out
}
