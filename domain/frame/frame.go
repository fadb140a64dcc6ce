package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"studykit/domain/core"
)

// Frame is the in-memory analysis dataset: ordered named columns over
// row-major string cells, as exported by the capture system. Cells keep the
// raw export text; typed views are derived on access.
type Frame struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// missingTokens are the cell values treated as missing besides the empty
// cell. Comparison is case-insensitive after trimming.
var missingTokens = map[string]bool{
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
}

// IsMissing reports whether a raw cell counts as a missing observation.
func IsMissing(cell string) bool {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return true
	}
	return missingTokens[strings.ToLower(trimmed)]
}

// New creates an empty frame with the given column names
func New(columns []string) (*Frame, error) {
	if len(columns) == 0 {
		return nil, core.ErrNoColumns
	}

	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: position %d", core.ErrEmptyHeader, i)
		}
		if _, exists := index[name]; exists {
			return nil, fmt.Errorf("%w: '%s'", core.ErrDuplicateColumn, name)
		}
		index[name] = i
	}

	return &Frame{
		columns: append([]string(nil), columns...),
		index:   index,
	}, nil
}

// FromRecords builds a frame from CSV-shaped records: the first record is
// the header, the rest are rows. Ragged rows are rejected.
func FromRecords(records [][]string) (*Frame, error) {
	if len(records) == 0 {
		return nil, core.ErrNoColumns
	}

	f, err := New(records[0])
	if err != nil {
		return nil, err
	}

	for i, row := range records[1:] {
		if err := f.AppendRow(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	return f, nil
}

// Columns returns a copy of the column names in order
func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// ColumnCount returns the number of columns
func (f *Frame) ColumnCount() int {
	return len(f.columns)
}

// RowCount returns the number of data rows
func (f *Frame) RowCount() int {
	return len(f.rows)
}

// HasColumn checks whether a column exists
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// AppendRow adds one data row; cell count must match the column count
func (f *Frame) AppendRow(cells []string) error {
	if len(cells) != len(f.columns) {
		return fmt.Errorf("%w: got %d cells, want %d", core.ErrRowLength, len(cells), len(f.columns))
	}
	f.rows = append(f.rows, append([]string(nil), cells...))
	return nil
}

// Column returns the raw cells of one column
func (f *Frame) Column(name string) ([]string, error) {
	idx, ok := f.index[name]
	if !ok {
		return nil, core.NewColumnNotFoundError(name)
	}

	cells := make([]string, len(f.rows))
	for i, row := range f.rows {
		cells[i] = row[idx]
	}
	return cells, nil
}

// NumericColumn returns one column parsed as float64. Missing and
// non-numeric cells become NaN, mirroring coerced numeric conversion.
func (f *Frame) NumericColumn(name string) ([]float64, error) {
	idx, ok := f.index[name]
	if !ok {
		return nil, core.NewColumnNotFoundError(name)
	}

	values := make([]float64, len(f.rows))
	for i, row := range f.rows {
		values[i] = parseCell(row[idx])
	}
	return values, nil
}

// Cell returns a single cell by row index and column name
func (f *Frame) Cell(row int, name string) (string, error) {
	idx, ok := f.index[name]
	if !ok {
		return "", core.NewColumnNotFoundError(name)
	}
	if row < 0 || row >= len(f.rows) {
		return "", fmt.Errorf("row index %d out of range [0,%d)", row, len(f.rows))
	}
	return f.rows[row][idx], nil
}

// Select returns a new frame restricted to the named columns, in the order
// given
func (f *Frame) Select(names ...string) (*Frame, error) {
	if len(names) == 0 {
		return nil, core.ErrNoColumns
	}

	indices := make([]int, len(names))
	for i, name := range names {
		idx, ok := f.index[name]
		if !ok {
			return nil, core.NewColumnNotFoundError(name)
		}
		indices[i] = idx
	}

	out, err := New(names)
	if err != nil {
		return nil, err
	}
	for _, row := range f.rows {
		cells := make([]string, len(indices))
		for i, idx := range indices {
			cells[i] = row[idx]
		}
		out.rows = append(out.rows, cells)
	}
	return out, nil
}

// CompleteCases returns a new frame keeping only rows with no missing cell
// in any of the named columns (all columns when none are named). This is the
// listwise deletion applied before each comparison.
func (f *Frame) CompleteCases(names ...string) (*Frame, error) {
	if len(names) == 0 {
		names = f.columns
	}

	indices := make([]int, len(names))
	for i, name := range names {
		idx, ok := f.index[name]
		if !ok {
			return nil, core.NewColumnNotFoundError(name)
		}
		indices[i] = idx
	}

	out, err := New(f.columns)
	if err != nil {
		return nil, err
	}
	for _, row := range f.rows {
		complete := true
		for _, idx := range indices {
			if IsMissing(row[idx]) {
				complete = false
				break
			}
		}
		if complete {
			out.rows = append(out.rows, append([]string(nil), row...))
		}
	}
	return out, nil
}

// Records returns the frame as CSV-shaped records: header first, then rows
func (f *Frame) Records() [][]string {
	records := make([][]string, 0, len(f.rows)+1)
	records = append(records, f.Columns())
	for _, row := range f.rows {
		records = append(records, append([]string(nil), row...))
	}
	return records
}

func parseCell(cell string) float64 {
	trimmed := strings.TrimSpace(cell)
	if IsMissing(trimmed) {
		return math.NaN()
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return math.NaN()
	}
	return value
}
