package core

import (
	"fmt"
	"strconv"

	"github.com/jszwec/csvutil"
)

type locationRecord struct {
	ID   string `csv:"id"`
	Name string `csv:"name"`
	Lat  string `csv:"lat"`
	Lon  string `csv:"lon"`
}

type flowRecord struct {
	Origin string `csv:"origin"`
	Dest   string `csv:"dest"`
	Count  string `csv:"count"`
	Time   string `csv:"time"`
}

// ExportLocationsCSV encodes normalized locations as CSV with an
// id,name,lat,lon header. NaN coordinates are written as "NaN".
func ExportLocationsCSV(locations []Location) ([]byte, error) {
	records := make([]locationRecord, len(locations))
	for i, l := range locations {
		records[i] = locationRecord{ID: l.ID, Name: l.Name, Lat: formatNumber(l.Lat), Lon: formatNumber(l.Lon)}
	}
	return marshalRecords(records, EntityLocations)
}

// ExportFlowsCSV encodes normalized flows as CSV with an
// origin,dest,count,time header. Absent times are empty; invalid times are
// written as "Invalid Date".
func ExportFlowsCSV(flows []Flow) ([]byte, error) {
	records := make([]flowRecord, len(flows))
	for i, f := range flows {
		r := flowRecord{Origin: f.Origin, Dest: f.Dest, Count: formatNumber(f.Count)}
		if f.Time != nil {
			r.Time = f.Time.String()
		}
		records[i] = r
	}
	return marshalRecords(records, EntityFlows)
}

// formatNumber writes the shortest decimal form; NaN stays "NaN".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func marshalRecords(records any, entity EntityType) ([]byte, error) {
	data, err := csvutil.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", entity, err)
	}
	return data, nil
}
