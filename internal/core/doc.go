// Package core turns raw location and flow tables into a typed, validated
// flow map dataset.
//
// The package has no transport or storage dependencies. Web handlers, the
// CLI and tests all drive it through the same functions.
//
// # Pipeline
//
// An import moves through fixed stages:
//
//  1. [tabular.Parse] splits the text into columns and rows
//  2. [Bootstrap] proposes a [FieldMapping] with [Match], but only when no
//     mapping has been recorded yet
//  3. [CoerceLocations] and [CoerceFlows] project each row onto a record
//  4. [PrepareFlows] trims endpoint ids and merges flows sharing origin,
//     destination and time bucket
//
// [BuildDataset] runs all stages for both entities and merges the property
// configuration, returning the {locations, flows, config} triple together
// with a validation [Summary].
//
// # Degraded Values
//
// Coercion never drops a row. A non-numeric coordinate or count becomes NaN
// and an unreadable time becomes an invalid [Timestamp]. Only a structural
// parse failure aborts an import.
//
//	ds, err := core.BuildDataset(ctx, core.DatasetInput{
//	    LocationCSV: locations,
//	    FlowCSV:     flows,
//	    Template:    "Dark Teal",
//	})
//	if err != nil {
//	    return err // *tabular.ParseError for broken input
//	}
//	for _, issue := range ds.Summary.Issues {
//	    fmt.Println(issue)
//	}
//
// # Projects
//
// [Service] stores raw inputs, mappings and property configurations through
// a [ProjectStore] and rebuilds datasets on demand. Coerced records are never
// persisted.
package core
