// Package excel reads and writes the tabular files the toolkit exchanges
// with collaborators: CSV for pipelines, XLSX for hand-off to investigators.
package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"studykit/domain/frame"
	"studykit/internal/errors"
)

// Reader loads CSV and XLSX files into analysis frames.
type Reader struct{}

// NewReader creates a file reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadFile loads a data file into a frame, switching on the extension.
// The first row is the header; short rows are padded with empty cells.
func (r *Reader) ReadFile(path string) (*frame.Frame, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.FileError(path, fmt.Errorf("file not found"))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return r.readCSV(path)
	case ".xlsx":
		return r.readXLSX(path)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type '%s' (expected .csv or .xlsx)", filepath.Ext(path)))
	}
}

func (r *Reader) readCSV(path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.FileError(path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.FileError(path, err)
	}

	return buildFrame(path, records)
}

func (r *Reader) readXLSX(path string) (*frame.Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.FileError(path, err)
	}
	defer f.Close()

	// First sheet, whatever its name.
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.FileError(path, fmt.Errorf("workbook has no sheets"))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.FileError(path, err)
	}

	return buildFrame(path, rows)
}

// buildFrame pads ragged rows to the header width before constructing the
// frame. Excel trims trailing empty cells on read, so padding is routine.
func buildFrame(path string, records [][]string) (*frame.Frame, error) {
	if len(records) == 0 {
		return nil, errors.FileError(path, fmt.Errorf("file has no rows"))
	}

	width := len(records[0])
	for i, row := range records {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			records[i] = padded
		} else if len(row) > width {
			records[i] = row[:width]
		}
	}

	f, err := frame.FromRecords(records)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("invalid data in %s", path))
	}
	return f, nil
}
