// Package tabular turns raw delimiter-separated text into an ordered column
// list and a sequence of rows keyed by column name.
//
// Parsing is forgiving about shape: rows with too few fields leave the
// missing columns absent, surplus fields are dropped, blank lines are
// skipped, and a stray quote inside a field is kept as a literal character.
// Only input that cannot be read as delimited text at all (a quoted field
// that never closes, binary content) produces an error.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrMalformed is wrapped by ParseError when the text is not valid
// delimiter-separated data.
var ErrMalformed = errors.New("malformed csv")

// ErrBinary is wrapped by ParseError when the input looks like binary data.
var ErrBinary = errors.New("binary content")

// ParseError describes a structural failure of the whole input.
type ParseError struct {
	Line int   // 1-indexed line where parsing stopped, 0 if unknown
	Err  error // ErrMalformed or ErrBinary
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v on line %d: %s", e.Err, e.Line, e.Msg)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Row maps a column name to its raw cell value.
type Row map[string]string

// Table is the parsed form of a delimited document.
type Table struct {
	Columns []string // header entries in source order, duplicates kept
	Rows    []Row
	Lines   []int // source line where each row starts, parallel to Rows
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Preview returns at most n leading rows.
func (t *Table) Preview(n int) []Row {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	if n < 0 {
		n = 0
	}
	return t.Rows[:n]
}

// Parse parses comma-separated text.
func Parse(text string) (*Table, error) {
	return ParseDelimited(text, ',')
}

// ParseDelimited parses text separated by delim. The first record is the
// header. Empty input yields an empty table.
func ParseDelimited(text string, delim rune) (*Table, error) {
	if strings.TrimSpace(text) == "" {
		return &Table{Columns: []string{}, Rows: []Row{}, Lines: []int{}}, nil
	}

	if i := strings.IndexByte(text, 0); i >= 0 {
		return nil, &ParseError{
			Line: strings.Count(text[:i], "\n") + 1,
			Err:  ErrBinary,
			Msg:  "input contains NUL bytes",
		}
	}

	if line := openQuoteLine(text, delim); line > 0 {
		return nil, &ParseError{
			Line: line,
			Err:  ErrMalformed,
			Msg:  "quoted field is never closed",
		}
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, toParseError(err)
	}

	table := &Table{
		Columns: append([]string(nil), header...),
		Rows:    make([]Row, 0, 16),
		Lines:   make([]int, 0, 16),
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, toParseError(err)
		}
		line, _ := r.FieldPos(0)
		table.Rows = append(table.Rows, makeRow(table.Columns, record))
		table.Lines = append(table.Lines, line)
	}

	return table, nil
}

// makeRow pairs record fields with column names. Missing trailing fields
// stay absent from the row; a repeated column name keeps the later value.
func makeRow(columns, record []string) Row {
	row := make(Row, len(columns))
	for i, col := range columns {
		if i >= len(record) {
			break
		}
		row[col] = record[i]
	}
	return row
}

// openQuoteLine returns the line on which a quoted field opens without ever
// closing, or 0. Quotes are read the way a lazy-quote csv.Reader reads
// them: only a quote at the start of a field opens it, and any other quote
// inside the field closes it only when the field ends there.
func openQuoteLine(text string, delim rune) int {
	line, opened := 1, 0
	fieldStart, quoted := true, false

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size

		switch {
		case quoted:
			if r == '\n' {
				line++
				continue
			}
			if r != '"' {
				continue
			}
			if strings.HasPrefix(text[i:], `"`) {
				i++ // escaped quote
				continue
			}
			next, _ := utf8.DecodeRuneInString(text[i:])
			if i == len(text) || next == delim || next == '\n' || strings.HasPrefix(text[i:], "\r\n") {
				quoted = false
			}
		case r == '"' && fieldStart:
			quoted, opened = true, line
			fieldStart = false
		case r == delim:
			fieldStart = true
		case r == '\n':
			line++
			fieldStart = true
		default:
			fieldStart = false
		}
	}

	if quoted {
		return opened
	}
	return 0
}

func toParseError(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{
			Line: csvErr.Line,
			Err:  ErrMalformed,
			Msg:  csvErr.Err.Error(),
		}
	}
	return &ParseError{Err: ErrMalformed, Msg: err.Error()}
}

// ParseBytes sanitizes data (BOM, invalid UTF-8) and parses it as
// comma-separated text.
func ParseBytes(data []byte) (*Table, error) {
	return Parse(Sanitize(data))
}
