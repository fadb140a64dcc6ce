package tables

import (
	"fmt"
	"sort"

	"studykit/domain/core"
	"studykit/domain/frame"
	"studykit/internal/format"
)

// FreqProp builds a frequency/proportion table for one categorical column.
// Missing cells are excluded from the counts; proportions are percentages of
// the non-missing total. Rows sort by count descending, label ascending on
// ties. The header carries the total row count of the frame, including rows
// whose cell was missing.
func FreqProp(f *frame.Frame, column string) (*Table, error) {
	cells, err := f.Column(column)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	answered := 0
	for _, cell := range cells {
		if frame.IsMissing(cell) {
			continue
		}
		if _, seen := counts[cell]; !seen {
			order = append(order, cell)
		}
		counts[cell]++
		answered++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return order[i] < order[j]
	})

	rows := make([][]string, 0, len(order))
	for _, label := range order {
		count := counts[label]
		pct := 0.0
		if answered > 0 {
			pct = format.Round(float64(count)/float64(answered)*100, 1)
		}
		rows = append(rows, []string{label, format.CountPercent(count, pct)})
	}

	return &Table{
		Columns: []string{column, fmt.Sprintf("N = %d", f.RowCount())},
		Rows:    rows,
	}, nil
}

// AllApply builds a select-all-that-apply summary. Each named column is
// reduced to an answered indicator: a non-missing cell counts as an
// endorsement. A column whose indicator never varies (everyone answered, or
// no one did) is rejected as not binary so malformed exports surface early.
// Proportions are over the total row count.
func AllApply(f *frame.Frame, columns []string, groupTitle string, sortByPercentage bool) (*Table, error) {
	if len(columns) == 0 {
		return nil, core.ErrNoColumns
	}

	n := f.RowCount()

	type item struct {
		label string
		count int
	}
	items := make([]item, 0, len(columns))

	for _, column := range columns {
		cells, err := f.Column(column)
		if err != nil {
			return nil, err
		}

		endorsed := 0
		for _, cell := range cells {
			if !frame.IsMissing(cell) {
				endorsed++
			}
		}
		if endorsed == 0 || endorsed == n {
			return nil, core.NewNotBinaryError(column)
		}

		items = append(items, item{label: column, count: endorsed})
	}

	if sortByPercentage {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].count > items[j].count
		})
	}

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		pct := float64(it.count) / float64(n) * 100
		rows = append(rows, []string{it.label, fmt.Sprintf("%d, (%.1f%%)", it.count, pct)})
	}

	return &Table{
		Columns: []string{groupTitle, fmt.Sprintf("N = %d", n)},
		Rows:    rows,
	}, nil
}
