package tabular

// sanitize.go cleans up raw uploaded bytes before they reach the parser:
//
//   - a leading UTF-8 BOM (0xEF 0xBB 0xBF) from Windows tools is removed
//   - invalid UTF-8 sequences are replaced with U+FFFD

import (
	"bytes"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Sanitize strips a UTF-8 BOM and replaces invalid UTF-8 with the
// replacement character.
func Sanitize(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.String()
}
