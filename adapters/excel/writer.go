package excel

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"studykit/internal/errors"
	"studykit/internal/tables"
)

// Writer saves records and display tables to CSV and XLSX files.
type Writer struct{}

// NewWriter creates a file writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteCSV saves records to a CSV file.
func (w *Writer) WriteCSV(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.FileError(path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		return errors.FileError(path, err)
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "flushing "+path)
}

// WriteXLSX saves records to a single-sheet workbook. Numeric-looking cells
// are written as numbers so downstream spreadsheets sort and chart them.
func (w *Writer) WriteXLSX(path, sheet string, records [][]string) error {
	if sheet == "" {
		sheet = "Sheet1"
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return errors.FileError(path, err)
		}
	}

	for i, row := range records {
		for j, cell := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return errors.FileError(path, err)
			}
			if err := f.SetCellValue(sheet, name, cellValue(i, cell)); err != nil {
				return errors.FileError(path, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.FileError(path, err)
	}
	return nil
}

// WriteTableXLSX saves a display table with its title on the first row.
func (w *Writer) WriteTableXLSX(path string, table *tables.Table) error {
	records := make([][]string, 0, len(table.Rows)+2)
	if table.Title != "" {
		records = append(records, []string{table.Title})
	}
	records = append(records, table.Records()...)
	return w.WriteXLSX(path, "Sheet1", records)
}

// cellValue types a cell for the spreadsheet: header rows stay text,
// numeric-looking body cells become numbers.
func cellValue(row int, cell string) interface{} {
	if row == 0 {
		return cell
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		return v
	}
	return cell
}
