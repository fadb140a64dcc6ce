package engine

import (
	"fmt"

	"studykit/domain/core"
	"studykit/domain/frame"
	domainstats "studykit/domain/stats"
)

// Matrix computes the correlation matrix of the named columns on the given
// frame. The frame is expected to already hold complete cases; NaN cells in
// a column make its correlations NaN. The result is symmetric with a unit
// diagonal, rows and columns in the given order.
func Matrix(f *frame.Frame, columns []string, method domainstats.Method) ([][]float64, error) {
	if _, err := domainstats.ParseMethod(method.String()); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		columns = f.Columns()
	}
	if len(columns) < 2 {
		return nil, fmt.Errorf("need at least 2 columns for a correlation matrix, got %d", len(columns))
	}

	data := make([][]float64, len(columns))
	for i, column := range columns {
		values, err := f.NumericColumn(column)
		if err != nil {
			return nil, err
		}
		data[i] = values
	}

	matrix := make([][]float64, len(columns))
	for i := range matrix {
		matrix[i] = make([]float64, len(columns))
		matrix[i][i] = 1
	}

	for i := 0; i < len(columns); i++ {
		for j := i + 1; j < len(columns); j++ {
			r, err := correlate(method.String(), data[i], data[j])
			if err != nil {
				return nil, fmt.Errorf("correlating '%s' with '%s': %w", columns[i], columns[j], err)
			}
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}

	return matrix, nil
}

// MatrixFrame renders a correlation matrix as a display frame with the
// variable names as the first column, for CSV export.
func MatrixFrame(columns []string, matrix [][]float64) (*frame.Frame, error) {
	if len(matrix) != len(columns) {
		return nil, fmt.Errorf("matrix size %d does not match %d columns", len(matrix), len(columns))
	}

	header := append([]string{"variable"}, columns...)
	f, err := frame.New(header)
	if err != nil {
		return nil, err
	}
	for i, column := range columns {
		if len(matrix[i]) != len(columns) {
			return nil, fmt.Errorf("%w: matrix row %d has %d cells", core.ErrRowLength, i, len(matrix[i]))
		}
		row := make([]string, 0, len(columns)+1)
		row = append(row, column)
		for _, r := range matrix[i] {
			row = append(row, fmt.Sprintf("%.4f", r))
		}
		if err := f.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return f, nil
}
