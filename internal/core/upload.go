package core

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/flowmap/internal/tabular"
)

// MaxFileSize is the default upload size limit (100MB).
const MaxFileSize int64 = 100 * 1024 * 1024

// ErrNoFile is returned when an upload carries no bytes.
var ErrNoFile = errors.New("no file provided")

// ErrFileTooLarge is returned when an upload exceeds the configured limit.
var ErrFileTooLarge = errors.New("file too large")

// DecodeUpload turns uploaded bytes into delimited text. XLSX workbooks are
// rendered from sheet (first sheet when empty); anything else is treated as
// CSV with its BOM and invalid UTF-8 cleaned up.
func DecodeUpload(fileName string, data []byte, sheet string) (string, error) {
	if len(data) == 0 {
		return "", ErrNoFile
	}

	if tabular.IsSpreadsheet(fileName) {
		text, err := tabular.FromXLSX(data, sheet)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", fileName, err)
		}
		return text, nil
	}

	return tabular.Sanitize(data), nil
}

// CheckSize rejects uploads larger than limit. A non-positive limit falls
// back to MaxFileSize.
func CheckSize(size, limit int64) error {
	if limit <= 0 {
		limit = MaxFileSize
	}
	if size > limit {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, size, limit)
	}
	return nil
}
