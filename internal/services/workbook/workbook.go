package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Workbook is a parsed spreadsheet report.
type Workbook struct {
	file *excelize.File
}

// Open wraps an already parsed file.
func Open(file *excelize.File) *Workbook {
	return &Workbook{file: file}
}

// File exposes the underlying excelize file.
func (w *Workbook) File() *excelize.File {
	return w.file
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// ActiveTitle is the name of the active sheet.
func (w *Workbook) ActiveTitle() string {
	return w.file.GetSheetName(w.file.GetActiveSheetIndex())
}

// rows returns every row of the active sheet.
func (w *Workbook) rows() ([][]string, error) {
	return w.file.GetRows(w.ActiveTitle())
}

// Row returns the values of row n (1-based) on the active sheet. Trailing
// empty cells are dropped.
func (w *Workbook) Row(n int) ([]string, error) {
	rows, err := w.rows()
	if err != nil {
		return nil, err
	}
	if n < 1 || n > len(rows) {
		return nil, fmt.Errorf("row %d out of range (sheet has %d rows)", n, len(rows))
	}
	return rows[n-1], nil
}

// Column returns the values below headerRow in the column whose header
// is name. Rows without a value in that column contribute "".
func (w *Workbook) Column(headerRow int, name string) ([]string, error) {
	headers, err := w.Row(headerRow)
	if err != nil {
		return nil, err
	}
	col := -1
	for i, header := range headers {
		if header == name {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("no %q column in row %d", name, headerRow)
	}

	rows, err := w.rows()
	if err != nil {
		return nil, err
	}
	var values []string
	for _, row := range rows[headerRow:] {
		if col < len(row) {
			values = append(values, row[col])
		} else {
			values = append(values, "")
		}
	}
	return values, nil
}
