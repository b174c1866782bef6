package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when a requested worksheet does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// IsSpreadsheet reports whether a file name looks like an XLSX workbook.
func IsSpreadsheet(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xlsx")
}

// FromXLSX renders one worksheet of an XLSX workbook as comma-separated
// text. An empty sheet name selects the first sheet. Rows are written as
// the sheet stores them, so cells missing from a short row stay missing.
func FromXLSX(data []byte, sheet string) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", &ParseError{Err: ErrMalformed, Msg: fmt.Sprintf("open workbook: %v", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil
	}
	if sheet == "" {
		sheet = sheets[0]
	} else {
		name, ok := findFold(sheets, sheet)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
		}
		sheet = name
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(rows[0]); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, record := range rows[1:] {
		if isBlank(record) {
			continue
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func findFold(list []string, s string) (string, bool) {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return v, true
		}
	}
	return "", false
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
