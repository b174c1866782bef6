package core

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/flowmap/internal/properties"
	"github.com/JonMunkholm/flowmap/internal/tabular"
)

// PipelineOptions carries the import settings shared by both entities.
type PipelineOptions struct {
	Bucket   TimeBucket
	Location *time.Location // nil means UTC
}

// DatasetInput is everything needed to build a dataset from raw text.
// A nil mapping asks the matcher for a proposal.
type DatasetInput struct {
	LocationCSV     string
	LocationMapping FieldMapping
	FlowCSV         string
	FlowMapping     FieldMapping

	Config    properties.Config // previously stored configuration
	Template  string            // optional template to apply on top
	Overrides properties.Config // explicit edits after the template

	Options PipelineOptions
}

// Schema reports how one entity's columns were mapped.
type Schema struct {
	Columns  []string     `json:"columns"`
	Mapping  FieldMapping `json:"mapping"`
	Unmapped []string     `json:"unmapped"`
}

// Dataset is the normalized {locations, flows, config} triple plus the
// information a caller needs to surface mapping and data problems.
type Dataset struct {
	Locations []Location          `json:"locations"`
	Flows     []Flow              `json:"flows"`
	Config    properties.Config   `json:"config"`
	Settings  properties.Settings `json:"settings"`

	LocationSchema Schema  `json:"locationSchema"`
	FlowSchema     Schema  `json:"flowSchema"`
	Summary        Summary `json:"summary"`
}

// entityResult holds the output of one pipeline branch.
type entityResult struct {
	schema    Schema
	locations []Location
	flowRows  []Flow
	lines     []int
}

// BuildDataset runs parse, bootstrap, coerce and prepare for both entities
// and merges the property configuration. A structural parse failure of
// either input aborts the whole build.
func BuildDataset(ctx context.Context, in DatasetInput) (*Dataset, error) {
	var locRes, flowRes entityResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := buildEntity(gctx, EntityLocations, in.LocationCSV, in.LocationMapping, in.Options)
		if err != nil {
			return err
		}
		locRes = res
		return nil
	})
	g.Go(func() error {
		res, err := buildEntity(gctx, EntityFlows, in.FlowCSV, in.FlowMapping, in.Options)
		if err != nil {
			return err
		}
		flowRes = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cfg properties.Config
	if in.Template != "" {
		cfg, _ = properties.ApplyTemplate(in.Config, in.Template)
		cfg = properties.Merge(cfg, nil, in.Overrides)
	} else {
		cfg = properties.Merge(in.Config, nil, in.Overrides)
	}

	_, timeMapped := flowRes.schema.Mapping.Column(FieldTime)
	summary := Summarize(locRes.locations, flowRes.flowRows, SummaryOptions{
		TimeMapped:    timeMapped,
		Template:      in.Template,
		LocationLines: locRes.lines,
		FlowLines:     flowRes.lines,
	})

	flows := PrepareFlows(flowRes.flowRows, PrepareOptions{
		Bucket:   in.Options.Bucket,
		Location: in.Options.Location,
	})

	return &Dataset{
		Locations:      locRes.locations,
		Flows:          flows,
		Config:         cfg,
		Settings:       properties.Decode(cfg),
		LocationSchema: locRes.schema,
		FlowSchema:     flowRes.schema,
		Summary:        summary,
	}, nil
}

func buildEntity(ctx context.Context, entity EntityType, csv string, mapping FieldMapping, opts PipelineOptions) (entityResult, error) {
	table, err := tabular.Parse(csv)
	if err != nil {
		return entityResult{}, fmt.Errorf("parse %s: %w", entity, err)
	}
	if err := ctx.Err(); err != nil {
		return entityResult{}, err
	}

	mapping = Bootstrap(table.Columns, entity, mapping)
	res := entityResult{
		schema: Schema{
			Columns:  table.Columns,
			Mapping:  mapping,
			Unmapped: Unmapped(mapping, entity),
		},
		lines: table.Lines,
	}

	switch entity {
	case EntityLocations:
		res.locations = CoerceLocations(table.Rows, mapping)
	case EntityFlows:
		res.flowRows = CoerceFlows(table.Rows, mapping, CoerceOptions{Location: opts.Location})
	}
	return res, nil
}
