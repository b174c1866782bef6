package core

// convert.go turns raw cell text into numbers and timestamps.
//
// Numeric conversion follows the rules of a unary numeric cast: surrounding
// whitespace is ignored, an empty cell is zero, and anything that is not a
// complete numeric literal is NaN. Nothing is cleaned up first; "1,234" or
// "$5" are not numbers.
//
// Time conversion tries a fixed list of layouts. Date-only ISO forms are
// read as UTC; every other form without an explicit zone is read in the
// caller's location.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// decimalRegex matches a complete decimal literal with optional exponent.
var decimalRegex = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ToNumber converts a cell to a float64, returning NaN for non-numeric text.
func ToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return radixNumber(s[2:], 16)
		case 'o', 'O':
			return radixNumber(s[2:], 8)
		case 'b', 'B':
			return radixNumber(s[2:], 2)
		}
	}

	if !decimalRegex.MatchString(s) {
		return math.NaN()
	}

	// Overflow yields ±Inf together with ErrRange, which is the value we want.
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return v
		}
		return math.NaN()
	}
	return v
}

// radixNumber reads an unsigned integer literal in the given base.
func radixNumber(digits string, base int) float64 {
	var v float64
	for _, r := range digits {
		d, ok := digitValue(r)
		if !ok || d >= base {
			return math.NaN()
		}
		v = v*float64(base) + float64(d)
	}
	return v
}

func digitValue(r rune) (int, bool) {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0'), true
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10, true
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10, true
	}
	return 0, false
}

// Date layouts split by how the zone is resolved.
var (
	// Date-only ISO forms, always UTC.
	utcLayouts = []string{
		"2006-01-02", "2006-01", "2006",
	}
	// Forms carrying their own offset.
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04Z07:00",
		"2006-01-02 15:04:05Z07:00",
		time.RFC1123Z,
		time.RFC1123,
	}
	// Forms read in the configured location.
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-1-2",
		"2006/1/2", "2006/1/2 15:04:05", "2006/1/2 15:04",
		"2006.1.2",
		"1/2/2006", "1/2/2006 15:04:05", "1/2/2006 15:04",
		"Jan 2, 2006", "Jan 2 2006", "January 2, 2006", "January 2 2006",
		"2 Jan 2006", "2 January 2006",
		"Jan 2006", "January 2006",
		"Mon Jan 2 2006", "Mon Jan 2 2006 15:04:05",
	}
)

// ParseTime reads a time cell. loc resolves layouts without an explicit
// zone; nil means UTC. The second result is false for unreadable text.
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range utcLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
