package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/flowmap/internal/core"
	"github.com/JonMunkholm/flowmap/internal/properties"
)

type importOptions struct {
	locations       string
	flows           string
	sheet           string
	locationMapping string
	flowMapping     string
	config          string
	template        string
	bucket          string
	timeZone        string
	format          string
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Build a dataset from a locations file and a flows file",
		Long: `import maps, coerces and aggregates the two tables and writes the result.
Files may be CSV or XLSX. Mappings and the property configuration are JSON
objects; omitted mappings are proposed from the column names.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.locations, "locations", "", "Locations file (required)")
	f.StringVar(&opts.flows, "flows", "", "Flows file (required)")
	f.StringVar(&opts.sheet, "sheet", "", "Worksheet to read from XLSX inputs (default: first)")
	f.StringVar(&opts.locationMapping, "location-mapping", "", `Location mapping as JSON, e.g. {"id":"Code"}`)
	f.StringVar(&opts.flowMapping, "flow-mapping", "", "Flow mapping as JSON")
	f.StringVar(&opts.config, "config", "", "Stored property configuration as JSON")
	f.StringVar(&opts.template, "template", "", "Template to apply over the configuration")
	f.StringVar(&opts.bucket, "bucket", "exact", "Flow time bucket: exact, hour, day")
	f.StringVar(&opts.timeZone, "tz", "UTC", "Time zone for times without an offset")
	f.StringVar(&opts.format, "format", "json", "Output: json, summary, csv-locations, csv-flows")

	_ = cmd.MarkFlagRequired("locations")
	_ = cmd.MarkFlagRequired("flows")
	return cmd
}

func runImport(cmd *cobra.Command, opts importOptions) error {
	in := core.DatasetInput{Template: opts.template}

	var err error
	if in.LocationCSV, err = readTable(opts.locations, opts.sheet); err != nil {
		return err
	}
	if in.FlowCSV, err = readTable(opts.flows, opts.sheet); err != nil {
		return err
	}
	if err := decodeFlagJSON("location-mapping", opts.locationMapping, &in.LocationMapping); err != nil {
		return err
	}
	if err := decodeFlagJSON("flow-mapping", opts.flowMapping, &in.FlowMapping); err != nil {
		return err
	}
	if err := decodeFlagJSON("config", opts.config, &in.Config); err != nil {
		return err
	}
	if opts.template != "" {
		if _, ok := properties.Lookup(opts.template); !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: unknown template %q ignored\n", opts.template)
		}
	}

	if in.Options.Bucket, err = core.ParseTimeBucket(opts.bucket); err != nil {
		return err
	}
	if in.Options.Location, err = time.LoadLocation(opts.timeZone); err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}

	ds, err := core.BuildDataset(cmd.Context(), in)
	if err != nil {
		return err
	}
	return writeDataset(cmd.OutOrStdout(), ds, opts.format)
}

// readTable loads a CSV or XLSX file as delimited text.
func readTable(path, sheet string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return core.DecodeUpload(filepath.Base(path), data, sheet)
}

// decodeFlagJSON leaves v untouched when raw is empty.
func decodeFlagJSON(flag, raw string, v any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("--%s: %w", flag, err)
	}
	return nil
}

func writeDataset(w io.Writer, ds *core.Dataset, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ds)
	case "summary":
		return writeSummary(w, ds)
	case "csv-locations":
		data, err := core.ExportLocationsCSV(ds.Locations)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "csv-flows":
		data, err := core.ExportFlowsCSV(ds.Flows)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}

func writeSummary(w io.Writer, ds *core.Dataset) error {
	s := ds.Summary
	fmt.Fprintf(w, "locations:           %d\n", len(ds.Locations))
	fmt.Fprintf(w, "flow rows:           %d\n", s.FlowRows)
	fmt.Fprintf(w, "flows (aggregated):  %d\n", len(ds.Flows))
	fmt.Fprintf(w, "invalid coordinates: %d\n", s.InvalidCoordinates)
	fmt.Fprintf(w, "invalid counts:      %d\n", s.InvalidCounts)
	fmt.Fprintf(w, "invalid times:       %d\n", s.InvalidTimes)
	fmt.Fprintf(w, "empty identifiers:   %d\n", s.EmptyIdentifiers)

	for _, schema := range []struct {
		entity core.EntityType
		s      core.Schema
	}{{core.EntityLocations, ds.LocationSchema}, {core.EntityFlows, ds.FlowSchema}} {
		if len(schema.s.Unmapped) > 0 {
			fmt.Fprintf(w, "unmapped %s fields: %v\n", schema.entity, schema.s.Unmapped)
		}
	}
	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	for _, issue := range s.Issues {
		fmt.Fprintf(w, "%s line %d: %s %q: %s\n", issue.Entity, issue.Line, issue.Field, issue.Value, issue.Message)
	}
	if s.Truncated {
		fmt.Fprintln(w, "(more issues not shown)")
	}
	_, err := fmt.Fprintf(w, "scheme: %s, dark mode: %v\n", ds.Settings.Scheme, ds.Settings.DarkMode)
	return err
}
