package core

// matcher.go proposes a field mapping from the columns of a freshly parsed
// table. Matching is a one-shot bootstrap: once a mapping is recorded for a
// dataset, even an empty one, it is never recomputed.

// fieldSynonyms lists, per required field, the alternative column names
// accepted when no column carries the field's own name.
var fieldSynonyms = map[string][]string{
	FieldLat:  {"latitude"},
	FieldLon:  {"longitude", "lng"},
	FieldTime: {"date", "timestamp", "datetime", "year", "month"},
}

// Match proposes a source column for each required field. Comparison is
// case-insensitive. A column named exactly like the field wins over any
// synonym; among equal candidates the first column in source order wins.
// Fields without a candidate are left out of the result.
func Match(columns []string, fields []string) FieldMapping {
	normalized := make([]string, len(columns))
	for i, c := range columns {
		normalized[i] = normalizeHeader(c)
	}

	mapping := make(FieldMapping, len(fields))
	for _, field := range fields {
		if col, ok := matchField(columns, normalized, field); ok {
			mapping[field] = col
		}
	}
	return mapping
}

func matchField(columns, normalized []string, field string) (string, bool) {
	want := normalizeHeader(field)
	for i, c := range normalized {
		if c == want {
			return columns[i], true
		}
	}

	synonyms := fieldSynonyms[want]
	for i, c := range normalized {
		for _, syn := range synonyms {
			if c == syn {
				return columns[i], true
			}
		}
	}
	return "", false
}

// Bootstrap returns existing when a mapping has already been recorded and
// runs Match against the entity's required fields otherwise.
func Bootstrap(columns []string, entity EntityType, existing FieldMapping) FieldMapping {
	if existing != nil {
		return existing.Clone()
	}
	return Match(columns, requiredFields[entity])
}

// Unmapped lists the required fields of entity that have no usable mapping,
// in presentation order. Optional fields are not reported.
func Unmapped(m FieldMapping, entity EntityType) []string {
	var missing []string
	for _, field := range requiredFields[entity] {
		if IsOptionalField(entity, field) {
			continue
		}
		if _, ok := m.Column(field); !ok {
			missing = append(missing, field)
		}
	}
	return missing
}

// Dangling lists mapped fields whose source column is not among columns.
// This happens when a file is replaced after its mapping was confirmed.
func Dangling(m FieldMapping, columns []string) []string {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	var out []string
	for _, field := range allFields {
		if col, ok := m.Column(field); ok && !present[col] {
			out = append(out, field)
		}
	}
	return out
}

var allFields = []string{
	FieldID, FieldLat, FieldLon, FieldName,
	FieldOrigin, FieldDest, FieldCount, FieldTime,
}
