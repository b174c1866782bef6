package core

import (
	"fmt"

	"github.com/JonMunkholm/flowmap/internal/tabular"
)

// previewRows is the number of sample rows shown next to a mapping.
const previewRows = 5

// SchemaPreview describes one uploaded table for the mapping step.
type SchemaPreview struct {
	Entity   EntityType    `json:"entity"`
	Columns  []string      `json:"columns"`
	Fields   []string      `json:"fields"`
	Mapping  FieldMapping  `json:"mapping"`
	Proposed bool          `json:"proposed"` // mapping came from the matcher
	Unmapped []string      `json:"unmapped"`
	Dangling []string      `json:"dangling,omitempty"`
	Preview  []tabular.Row `json:"preview"`
	RowCount int           `json:"rowCount"`
}

// DescribeSchema parses csv and reports its columns, a short preview and the
// mapping to use: existing when recorded, otherwise the matcher's proposal.
func DescribeSchema(csv string, entity EntityType, existing FieldMapping) (*SchemaPreview, error) {
	if _, ok := requiredFields[entity]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}

	table, err := tabular.Parse(csv)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", entity, err)
	}

	mapping := Bootstrap(table.Columns, entity, existing)
	return &SchemaPreview{
		Entity:   entity,
		Columns:  table.Columns,
		Fields:   RequiredFields(entity),
		Mapping:  mapping,
		Proposed: existing == nil,
		Unmapped: Unmapped(mapping, entity),
		Dangling: Dangling(mapping, table.Columns),
		Preview:  table.Preview(previewRows),
		RowCount: table.Len(),
	}, nil
}
