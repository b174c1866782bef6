package core

import (
	"math"
	"time"

	"github.com/JonMunkholm/flowmap/internal/tabular"
)

// CoerceOptions controls how flow time cells are read.
type CoerceOptions struct {
	// Location resolves times written without a zone. Nil means UTC.
	Location *time.Location
}

// CoerceLocations projects each row onto a Location through mapping.
// Unmapped or missing numeric cells become NaN; unmapped text fields are
// empty. IDs are trimmed so they compare equal to prepared flow endpoints.
// Rows are never dropped or reordered.
func CoerceLocations(rows []tabular.Row, mapping FieldMapping) []Location {
	out := make([]Location, len(rows))
	for i, row := range rows {
		out[i] = Location{
			ID:   normalizeID(text(row, mapping, FieldID)),
			Name: text(row, mapping, FieldName),
			Lat:  number(row, mapping, FieldLat),
			Lon:  number(row, mapping, FieldLon),
		}
	}
	return out
}

// CoerceFlows projects each row onto a Flow through mapping. Time is set
// only when a time column is mapped and the cell is non-empty; unreadable
// times carry the invalid marker.
func CoerceFlows(rows []tabular.Row, mapping FieldMapping, opts CoerceOptions) []Flow {
	out := make([]Flow, len(rows))
	for i, row := range rows {
		out[i] = Flow{
			Origin: text(row, mapping, FieldOrigin),
			Dest:   text(row, mapping, FieldDest),
			Count:  number(row, mapping, FieldCount),
			Time:   timestamp(row, mapping, opts.Location),
		}
	}
	return out
}

func text(row tabular.Row, m FieldMapping, field string) string {
	v, _ := cell(row, m, field)
	return v
}

func number(row tabular.Row, m FieldMapping, field string) float64 {
	v, ok := cell(row, m, field)
	if !ok {
		return math.NaN()
	}
	return ToNumber(v)
}

func timestamp(row tabular.Row, m FieldMapping, loc *time.Location) *Timestamp {
	v, ok := cell(row, m, FieldTime)
	if !ok || isBlank(v) {
		return nil
	}
	t, ok := ParseTime(v, loc)
	if !ok {
		return InvalidTime()
	}
	return ValidTime(t)
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\r' && r != '\n' {
			return false
		}
	}
	return true
}
