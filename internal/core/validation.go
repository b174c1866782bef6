package core

// validation.go collects the data-level problems of a coerced dataset.
//
// Degraded values (NaN coordinates or counts, unreadable times, blank
// endpoint ids) never stop an import. They are counted here and a bounded
// sample is kept so a caller can show the user which rows need attention.

import (
	"fmt"
	"math"
	"strings"

	"github.com/JonMunkholm/flowmap/internal/properties"
)

// maxIssueSamples bounds the number of issues kept in a Summary.
const maxIssueSamples = 20

// Issue describes one degraded field of one input row.
type Issue struct {
	Entity  EntityType `json:"entity"`
	Line    int        `json:"line"` // 1-based, header is line 1
	Field   string     `json:"field"`
	Value   string     `json:"value,omitempty"`
	Message string     `json:"message"`
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s line %d: %s: %s", i.Entity, i.Line, i.Field, i.Message)
}

// Summary is the validation report of a dataset.
type Summary struct {
	Locations          int      `json:"locations"`
	FlowRows           int      `json:"flowRows"`
	InvalidCoordinates int      `json:"invalidCoordinates"`
	InvalidCounts      int      `json:"invalidCounts"`
	InvalidTimes       int      `json:"invalidTimes"`
	EmptyIdentifiers   int      `json:"emptyIdentifiers"`
	Issues             []Issue  `json:"issues"`
	Truncated          bool     `json:"truncated"`
	Warnings           []string `json:"warnings,omitempty"`
}

// Clean reports whether no degraded values were found.
func (s Summary) Clean() bool {
	return s.InvalidCoordinates == 0 && s.InvalidCounts == 0 &&
		s.InvalidTimes == 0 && s.EmptyIdentifiers == 0
}

// SummaryOptions carries the context needed for dataset-level warnings.
type SummaryOptions struct {
	TimeMapped bool   // a time column is mapped for flows
	Template   string // template selected for this dataset, if any

	// Source lines of each record, as reported in Table.Lines. When absent
	// a record is assumed to sit on line index+2.
	LocationLines []int
	FlowLines     []int
}

// Summarize inspects coerced records. flows must be the per-row output of
// CoerceFlows, before aggregation, so issues point at source lines.
func Summarize(locations []Location, flows []Flow, opts SummaryOptions) Summary {
	s := Summary{
		Locations: len(locations),
		FlowRows:  len(flows),
		Issues:    []Issue{},
	}

	for i, l := range locations {
		line := sourceLine(opts.LocationLines, i)
		if strings.TrimSpace(l.ID) == "" {
			s.EmptyIdentifiers++
			s.add(Issue{Entity: EntityLocations, Line: line, Field: FieldID, Message: "empty location id"})
		}
		if !isFinite(l.Lat) || !isFinite(l.Lon) {
			s.InvalidCoordinates++
			field := FieldLat
			if isFinite(l.Lat) {
				field = FieldLon
			}
			s.add(Issue{Entity: EntityLocations, Line: line, Field: field, Message: "invalid number"})
		}
	}

	for i, f := range flows {
		line := sourceLine(opts.FlowLines, i)
		if strings.TrimSpace(f.Origin) == "" || strings.TrimSpace(f.Dest) == "" {
			s.EmptyIdentifiers++
			field := FieldOrigin
			if strings.TrimSpace(f.Origin) != "" {
				field = FieldDest
			}
			s.add(Issue{Entity: EntityFlows, Line: line, Field: field, Message: "empty flow endpoint"})
		}
		if math.IsNaN(f.Count) {
			s.InvalidCounts++
			s.add(Issue{Entity: EntityFlows, Line: line, Field: FieldCount, Message: "invalid number"})
		}
		if f.Time != nil && !f.Time.Valid {
			s.InvalidTimes++
			s.add(Issue{Entity: EntityFlows, Line: line, Field: FieldTime, Message: "invalid date"})
		}
	}

	if opts.Template != "" && properties.RequiresTimeData(opts.Template) && !opts.TimeMapped {
		s.Warnings = append(s.Warnings, fmt.Sprintf(
			"template %q is designed for time-series data but no time column is mapped", opts.Template))
	}

	return s
}

func (s *Summary) add(issue Issue) {
	if len(s.Issues) >= maxIssueSamples {
		s.Truncated = true
		return
	}
	s.Issues = append(s.Issues, issue)
}

func sourceLine(lines []int, i int) int {
	if i < len(lines) {
		return lines[i]
	}
	return i + 2
}
