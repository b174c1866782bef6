package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/flowmap/internal/properties"
	"github.com/JonMunkholm/flowmap/internal/tabular"
)

// ProjectStore persists projects. Implementations return ErrProjectNotFound
// (possibly wrapped) for unknown ids.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *Project) error
	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, id string) error
}

// Service provides project operations on top of the normalization pipeline.
type Service struct {
	store ProjectStore
	opts  PipelineOptions
	now   func() time.Time
}

// NewService creates a Service backed by store. opts apply to every
// dataset the service builds.
func NewService(store ProjectStore, opts PipelineOptions) *Service {
	return &Service{
		store: store,
		opts:  opts,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Options returns the pipeline options used for datasets.
func (s *Service) Options() PipelineOptions {
	return s.opts
}

// CreateProject stores a new, empty project.
func (s *Service) CreateProject(ctx context.Context, name, description string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	now := s.now()
	p := &Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// ListProjects returns all projects, most recently updated first.
func (s *Service) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	out := make([]ProjectSummary, len(projects))
	for i := range projects {
		out[i] = projects[i].Summary()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// GetProject loads one project.
func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// DeleteProject removes a project.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// SectionInput replaces one data section. A nil Mapping keeps the mapping
// already recorded for the section, or asks the matcher when there is none.
type SectionInput struct {
	CSVContent string       `json:"csvContent"`
	Mapping    FieldMapping `json:"mapping"`
}

// PropertiesInput updates the stored configuration: the template (if any) is
// applied over the stored values, then Overrides over the result.
type PropertiesInput struct {
	Template  string            `json:"template,omitempty"`
	Overrides properties.Config `json:"overrides,omitempty"`
}

// SaveRequest is a partial project update. Nil fields are left untouched.
type SaveRequest struct {
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	LocationData *SectionInput    `json:"locationData,omitempty"`
	FlowData     *SectionInput    `json:"flowData,omitempty"`
	Properties   *PropertiesInput `json:"propertiesData,omitempty"`
}

// SaveProject applies req to the project and stores it. CSV sections must
// parse; their coerced records are not stored.
func (s *Service) SaveProject(ctx context.Context, id string, req SaveRequest) (*Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		p.Name = name
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}

	sections := []struct {
		entity EntityType
		input  *SectionInput
	}{
		{EntityLocations, req.LocationData},
		{EntityFlows, req.FlowData},
	}
	for _, sec := range sections {
		if sec.input == nil {
			continue
		}
		section, err := prepareSection(sec.entity, *sec.input, p.Section(sec.entity))
		if err != nil {
			return nil, err
		}
		p.SetSection(sec.entity, section)
	}

	if req.Properties != nil {
		var stored properties.Config
		if p.PropertiesData != nil {
			stored = p.PropertiesData.Config
		}
		var tmpl properties.Config
		if t, ok := properties.Lookup(req.Properties.Template); ok {
			tmpl = t.Config
		}
		p.PropertiesData = &PropertiesSection{
			Config: properties.Merge(stored, tmpl, req.Properties.Overrides),
		}
	}

	p.UpdatedAt = s.now()
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

// prepareSection parses csv to validate it and settles the mapping.
func prepareSection(entity EntityType, in SectionInput, current *DataSection) (*DataSection, error) {
	table, err := tabular.Parse(in.CSVContent)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", entity, err)
	}

	mapping := in.Mapping
	if mapping == nil && current != nil {
		mapping = current.Mapping
	}
	return &DataSection{
		CSVContent: in.CSVContent,
		Mapping:    Bootstrap(table.Columns, entity, mapping),
	}, nil
}

// UploadSection decodes an uploaded file and stores it as the entity's
// section of the project.
func (s *Service) UploadSection(ctx context.Context, id string, entity EntityType, fileName string, data []byte, mapping FieldMapping) (*Project, error) {
	text, err := DecodeUpload(fileName, data, "")
	if err != nil {
		return nil, err
	}

	in := &SectionInput{CSVContent: text, Mapping: mapping}
	req := SaveRequest{}
	switch entity {
	case EntityLocations:
		req.LocationData = in
	case EntityFlows:
		req.FlowData = in
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	return s.SaveProject(ctx, id, req)
}

// LoadDataset rebuilds the dataset of a project from its stored inputs.
// The stored configuration is re-merged with the defaults.
func (s *Service) LoadDataset(ctx context.Context, id string) (*Dataset, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.LocationData == nil || p.FlowData == nil {
		return nil, fmt.Errorf("project %s: %w", id, ErrProjectIncomplete)
	}

	var cfg properties.Config
	if p.PropertiesData != nil {
		cfg = p.PropertiesData.Config
	}

	return BuildDataset(ctx, DatasetInput{
		LocationCSV:     p.LocationData.CSVContent,
		LocationMapping: p.LocationData.Mapping,
		FlowCSV:         p.FlowData.CSVContent,
		FlowMapping:     p.FlowData.Mapping,
		Config:          cfg,
		Options:         s.opts,
	})
}

// Import builds a dataset from raw inputs without touching the store.
// Zero pipeline options in the input fall back to the service's.
func (s *Service) Import(ctx context.Context, in DatasetInput) (*Dataset, error) {
	if in.Options.Bucket == "" {
		in.Options.Bucket = s.opts.Bucket
	}
	if in.Options.Location == nil {
		in.Options.Location = s.opts.Location
	}
	return BuildDataset(ctx, in)
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid project id %q: %w", id, ErrProjectNotFound)
	}
	return nil
}
