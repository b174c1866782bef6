package core

import (
	"strings"

	"github.com/JonMunkholm/flowmap/internal/tabular"
)

// normalizeHeader prepares a column name for case-insensitive comparison.
// Surrounding whitespace and an Excel formula wrapper (="id") are dropped.
func normalizeHeader(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}

	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeID is the form in which location ids and flow endpoints are
// compared.
func normalizeID(s string) string {
	return strings.TrimSpace(s)
}

// cell reads the value of a mapped field from a row. The second result is
// false when the field has no mapping or the row lacks the column.
func cell(row tabular.Row, m FieldMapping, field string) (string, bool) {
	col, ok := m.Column(field)
	if !ok {
		return "", false
	}
	v, ok := row[col]
	return v, ok
}
