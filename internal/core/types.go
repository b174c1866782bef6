package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/JonMunkholm/flowmap/internal/properties"
)

// EntityType names one of the two tabular inputs of a flow map.
type EntityType string

const (
	EntityLocations EntityType = "locations"
	EntityFlows     EntityType = "flows"
)

// Entities lists the entity types in presentation order.
var Entities = []EntityType{EntityLocations, EntityFlows}

// Field names shared by mappings, records and exports.
const (
	FieldID     = "id"
	FieldName   = "name"
	FieldLat    = "lat"
	FieldLon    = "lon"
	FieldOrigin = "origin"
	FieldDest   = "dest"
	FieldCount  = "count"
	FieldTime   = "time"
)

var requiredFields = map[EntityType][]string{
	EntityLocations: {FieldID, FieldLat, FieldLon, FieldName},
	EntityFlows:     {FieldOrigin, FieldDest, FieldCount, FieldTime},
}

// RequiredFields returns the fields an entity type is built from, in
// presentation order. The flows "time" field is optional in practice.
func RequiredFields(entity EntityType) []string {
	return append([]string(nil), requiredFields[entity]...)
}

// IsOptionalField reports whether a missing mapping for field is acceptable.
func IsOptionalField(entity EntityType, field string) bool {
	return entity == EntityFlows && field == FieldTime
}

// ParseEntity converts a path segment or flag value to an EntityType.
func ParseEntity(s string) (EntityType, error) {
	switch EntityType(strings.ToLower(strings.TrimSpace(s))) {
	case EntityLocations:
		return EntityLocations, nil
	case EntityFlows:
		return EntityFlows, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, s)
}

// FieldMapping maps a required field name to a source column name.
//
// A nil mapping means matching was never attempted. A non-nil empty mapping
// is a confirmed "nothing mapped" and must be kept as-is.
type FieldMapping map[string]string

// Clone returns an independent copy, preserving nil.
func (m FieldMapping) Clone() FieldMapping {
	if m == nil {
		return nil
	}
	out := make(FieldMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Column returns the source column for field, treating "" as unmapped.
func (m FieldMapping) Column(field string) (string, bool) {
	col, ok := m[field]
	if !ok || col == "" {
		return "", false
	}
	return col, true
}

// Location is a named point on the map. Lat and Lon may be NaN when the
// source value was not numeric.
type Location struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Valid reports whether both coordinates are finite.
func (l Location) Valid() bool {
	return isFinite(l.Lat) && isFinite(l.Lon)
}

func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID   string   `json:"id"`
		Name string   `json:"name"`
		Lat  *float64 `json:"lat"`
		Lon  *float64 `json:"lon"`
	}{l.ID, l.Name, jsonNumber(l.Lat), jsonNumber(l.Lon)})
}

// Timestamp is a coerced time cell. Valid is false when the source text
// could not be read as a calendar time.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// ValidTime wraps t as a valid Timestamp.
func ValidTime(t time.Time) *Timestamp {
	return &Timestamp{Time: t, Valid: true}
}

// InvalidTime returns the marker for an unparseable time cell.
func InvalidTime() *Timestamp {
	return &Timestamp{}
}

func (t Timestamp) String() string {
	if !t.Valid {
		return "Invalid Date"
	}
	return t.Time.Format(time.RFC3339)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Flow is a directed, weighted edge between two location ids. Count may be
// NaN. Time is nil when no time column is mapped or the cell is empty.
type Flow struct {
	Origin string
	Dest   string
	Count  float64
	Time   *Timestamp
}

// HasTime reports whether the flow carries a time value, valid or not.
func (f Flow) HasTime() bool {
	return f.Time != nil
}

func (f Flow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Origin string     `json:"origin"`
		Dest   string     `json:"dest"`
		Count  *float64   `json:"count"`
		Time   *Timestamp `json:"time,omitempty"`
	}{f.Origin, f.Dest, jsonNumber(f.Count), f.Time})
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// jsonNumber returns nil for values encoding/json cannot represent.
func jsonNumber(v float64) *float64 {
	if !isFinite(v) {
		return nil
	}
	return &v
}

// Sentinel errors returned by the service and pipeline.
var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrProjectIncomplete = errors.New("project is missing location or flow data")
	ErrNameRequired      = errors.New("project name is required")
	ErrUnknownEntity     = errors.New("unknown entity type")
)

// DataSection is one stored CSV input together with its field mapping.
type DataSection struct {
	CSVContent string       `json:"csvContent"`
	Mapping    FieldMapping `json:"mapping"`
}

// PropertiesSection holds the stored property configuration of a project.
type PropertiesSection struct {
	Config properties.Config `json:"config"`
}

// Project is a persisted flow map: raw inputs, mappings and properties.
// Coerced records are never stored.
type Project struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	LocationData   *DataSection       `json:"locationData,omitempty"`
	FlowData       *DataSection       `json:"flowData,omitempty"`
	PropertiesData *PropertiesSection `json:"propertiesData,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// Section returns the data section for entity.
func (p *Project) Section(entity EntityType) *DataSection {
	switch entity {
	case EntityLocations:
		return p.LocationData
	case EntityFlows:
		return p.FlowData
	}
	return nil
}

// SetSection replaces the data section for entity.
func (p *Project) SetSection(entity EntityType, s *DataSection) {
	switch entity {
	case EntityLocations:
		p.LocationData = s
	case EntityFlows:
		p.FlowData = s
	}
}

// ProjectSummary is the list view of a project.
type ProjectSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	HasLocations bool      `json:"hasLocations"`
	HasFlows     bool      `json:"hasFlows"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary returns the list view of p.
func (p *Project) Summary() ProjectSummary {
	return ProjectSummary{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		HasLocations: p.LocationData != nil,
		HasFlows:     p.FlowData != nil,
		UpdatedAt:    p.UpdatedAt,
	}
}
