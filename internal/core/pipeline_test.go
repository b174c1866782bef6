package core

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/JonMunkholm/flowmap/internal/properties"
	"github.com/JonMunkholm/flowmap/internal/tabular"
)

const sampleLocations = `id,name,lat,lon
1,New York,40.713543,-74.011219
2,London,51.507425,-0.127738
3,Rio de Janeiro,-22.906241,-43.180244`

const sampleFlows = `origin,dest,count
1,2,42
2,1,51
3,1,50
2,3,40
1,3,22
3,2,42`

func TestBuildDataset_Sample(t *testing.T) {
	ds, err := BuildDataset(context.Background(), DatasetInput{
		LocationCSV: sampleLocations,
		FlowCSV:     sampleFlows,
	})
	if err != nil {
		t.Fatalf("BuildDataset() error = %v", err)
	}

	if len(ds.Locations) != 3 {
		t.Errorf("locations = %d, want 3", len(ds.Locations))
	}
	if len(ds.Flows) != 6 {
		t.Fatalf("flows = %d, want 6 (no pair repeats)", len(ds.Flows))
	}

	wantCounts := []float64{42, 51, 50, 40, 22, 42}
	var total float64
	for i, f := range ds.Flows {
		if f.Count != wantCounts[i] {
			t.Errorf("flow %d count = %v, want %v", i, f.Count, wantCounts[i])
		}
		total += f.Count
	}
	if total != 247 {
		t.Errorf("total count = %v, want 247", total)
	}

	if ds.Locations[2].Name != "Rio de Janeiro" || ds.Locations[2].Lat != -22.906241 {
		t.Errorf("location 3 = %+v", ds.Locations[2])
	}
	if len(ds.LocationSchema.Unmapped) != 0 || len(ds.FlowSchema.Unmapped) != 0 {
		t.Errorf("unmapped fields: %v / %v", ds.LocationSchema.Unmapped, ds.FlowSchema.Unmapped)
	}
	if ds.Config[properties.KeyDarkMode] != properties.No {
		t.Errorf("config = %v, want darkMode default", ds.Config)
	}
	if !ds.Summary.Clean() {
		t.Errorf("summary not clean: %+v", ds.Summary)
	}
}

func TestBuildDataset_ConfigPrecedence(t *testing.T) {
	ds, err := BuildDataset(context.Background(), DatasetInput{
		LocationCSV: sampleLocations,
		FlowCSV:     sampleFlows,
		Config:      properties.Config{properties.KeyFadeAmount: "10"},
		Template:    "Animated Sunset",
		Overrides:   properties.Config{properties.KeyBaseMapOpacity: "30"},
	})
	if err != nil {
		t.Fatalf("BuildDataset() error = %v", err)
	}

	if ds.Settings.FadeAmount != 24 || ds.Settings.BaseMapOpacity != 30 {
		t.Errorf("settings = %+v", ds.Settings)
	}
	if ds.Settings.Scheme != "Sunset" || !ds.Settings.AnimateFlows {
		t.Errorf("template not applied: %+v", ds.Settings)
	}
}

func TestBuildDataset_KeepsExistingMapping(t *testing.T) {
	ds, err := BuildDataset(context.Background(), DatasetInput{
		LocationCSV:     sampleLocations,
		LocationMapping: FieldMapping{},
		FlowCSV:         sampleFlows,
	})
	if err != nil {
		t.Fatalf("BuildDataset() error = %v", err)
	}

	if len(ds.LocationSchema.Mapping) != 0 {
		t.Errorf("confirmed empty mapping overwritten: %v", ds.LocationSchema.Mapping)
	}
	if !math.IsNaN(ds.Locations[0].Lat) || ds.Locations[0].ID != "" {
		t.Errorf("unmapped record = %+v", ds.Locations[0])
	}
	if ds.Summary.InvalidCoordinates != 3 {
		t.Errorf("InvalidCoordinates = %d, want 3", ds.Summary.InvalidCoordinates)
	}
}

func TestBuildDataset_EndpointsMatchLocationIDs(t *testing.T) {
	ds, err := BuildDataset(context.Background(), DatasetInput{
		LocationCSV: "name,id,lat,lon\nNew York, 1,40.7,-74.0\nLondon,2 ,51.5,-0.1\n",
		FlowCSV:     "origin,dest,count\n 1, 2,5\n",
	})
	if err != nil {
		t.Fatalf("BuildDataset() error = %v", err)
	}

	ids := make(map[string]bool, len(ds.Locations))
	for _, l := range ds.Locations {
		ids[l.ID] = true
	}
	for _, f := range ds.Flows {
		if !ids[f.Origin] || !ids[f.Dest] {
			t.Errorf("flow %q->%q does not match any location id in %v", f.Origin, f.Dest, ids)
		}
	}
}

func TestBuildDataset_IssueLinesFollowSource(t *testing.T) {
	ds, err := BuildDataset(context.Background(), DatasetInput{
		LocationCSV: sampleLocations,
		FlowCSV:     "origin,dest,count\n1,2,5\n\n2,\"3\n\",x\n3,1,abc\n",
	})
	if err != nil {
		t.Fatalf("BuildDataset() error = %v", err)
	}

	var lines []int
	for _, is := range ds.Summary.Issues {
		if is.Entity == EntityFlows && is.Field == FieldCount {
			lines = append(lines, is.Line)
		}
	}
	if want := []int{4, 6}; !slices.Equal(lines, want) {
		t.Errorf("count issue lines = %v, want %v", lines, want)
	}
}

func TestBuildDataset_StructuralFailure(t *testing.T) {
	_, err := BuildDataset(context.Background(), DatasetInput{
		LocationCSV: sampleLocations,
		FlowCSV:     "origin,dest,count\n1,\"2,3\n",
	})
	if err == nil {
		t.Fatal("BuildDataset() expected error")
	}

	var pe *tabular.ParseError
	if !errors.As(err, &pe) {
		t.Errorf("error should wrap *tabular.ParseError, got %T", err)
	}
	if !strings.Contains(err.Error(), "flows") {
		t.Errorf("error %q should name the entity", err)
	}
	if MapError(err).Code != "FILE002" {
		t.Errorf("MapError code = %s, want FILE002", MapError(err).Code)
	}
}

func TestBuildDataset_EmptyInputs(t *testing.T) {
	ds, err := BuildDataset(context.Background(), DatasetInput{})
	if err != nil {
		t.Fatalf("BuildDataset() error = %v", err)
	}
	if len(ds.Locations) != 0 || len(ds.Flows) != 0 {
		t.Errorf("dataset = %d locations, %d flows; want empty", len(ds.Locations), len(ds.Flows))
	}
	if got := ds.LocationSchema.Unmapped; len(got) != 4 {
		t.Errorf("Unmapped = %v, want all location fields", got)
	}
}

func TestBuildDataset_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildDataset(ctx, DatasetInput{LocationCSV: sampleLocations, FlowCSV: sampleFlows})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestBuildDataset_TimeSeriesWarning(t *testing.T) {
	ds, err := BuildDataset(context.Background(), DatasetInput{
		LocationCSV: sampleLocations,
		FlowCSV:     sampleFlows,
		Template:    "Time-Series: Daily Flow",
	})
	if err != nil {
		t.Fatalf("BuildDataset() error = %v", err)
	}
	if len(ds.Summary.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one time-series warning", ds.Summary.Warnings)
	}
}

func TestDataset_JSON(t *testing.T) {
	ds, err := BuildDataset(context.Background(), DatasetInput{
		LocationCSV: "id,name,lat,lon\n1,A,abc,2\n",
		FlowCSV:     "origin,dest,count,time\n1,2,x,2025/7/1\n1,3,1,never\n",
	})
	if err != nil {
		t.Fatalf("BuildDataset() error = %v", err)
	}

	data, err := json.Marshal(ds)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	var decoded struct {
		Locations []map[string]any `json:"locations"`
		Flows     []map[string]any `json:"flows"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if decoded.Locations[0]["lat"] != nil {
		t.Errorf("NaN lat encoded as %v, want null", decoded.Locations[0]["lat"])
	}
	if decoded.Flows[0]["count"] != nil {
		t.Errorf("NaN count encoded as %v, want null", decoded.Flows[0]["count"])
	}
	if decoded.Flows[0]["time"] != "2025-07-01T00:00:00Z" {
		t.Errorf("time encoded as %v", decoded.Flows[0]["time"])
	}
	if v, ok := decoded.Flows[1]["time"]; !ok || v != nil {
		t.Errorf("invalid time encoded as %v (present=%v), want null", v, ok)
	}
}
