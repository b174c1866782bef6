package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/flowmap/internal/properties"
)

// mapStore is a minimal ProjectStore for service tests.
type mapStore struct {
	mu       sync.Mutex
	projects map[string]Project
}

func newMapStore() *mapStore {
	return &mapStore{projects: map[string]Project{}}
}

func (m *mapStore) CreateProject(_ context.Context, p *Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = *p
	return nil
}

func (m *mapStore) ListProjects(context.Context) ([]Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	return out, nil
}

func (m *mapStore) GetProject(_ context.Context, id string) (*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return &p, nil
}

func (m *mapStore) UpdateProject(_ context.Context, p *Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID]; !ok {
		return ErrProjectNotFound
	}
	m.projects[p.ID] = *p
	return nil
}

func (m *mapStore) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return ErrProjectNotFound
	}
	delete(m.projects, id)
	return nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(newMapStore(), PipelineOptions{})
	clock := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc
}

func TestService_CreateProject(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateProject(ctx, "   ", ""); !errors.Is(err, ErrNameRequired) {
		t.Errorf("blank name error = %v, want ErrNameRequired", err)
	}

	p, err := svc.CreateProject(ctx, " Commutes ", "weekday trips")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if p.Name != "Commutes" || p.ID == "" {
		t.Errorf("project = %+v", p)
	}
}

func TestService_ListProjectsNewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, _ := svc.CreateProject(ctx, "a", "")
	b, _ := svc.CreateProject(ctx, "b", "")
	name := "a2"
	if _, err := svc.SaveProject(ctx, a.ID, SaveRequest{Name: &name}); err != nil {
		t.Fatalf("SaveProject() error = %v", err)
	}

	list, err := svc.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Errorf("ListProjects() order = %+v", list)
	}
}

func TestService_GetProjectInvalidID(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetProject(context.Background(), "not-a-uuid")
	if !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("error = %v, want ErrProjectNotFound", err)
	}
	if got := MapError(err).Code; got != "PRJ004" {
		t.Errorf("MapError code = %s, want PRJ004", got)
	}
}

func TestService_SaveSectionBootstrapsOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p, _ := svc.CreateProject(ctx, "demo", "")

	p, err := svc.SaveProject(ctx, p.ID, SaveRequest{
		LocationData: &SectionInput{CSVContent: "ID,Latitude,Longitude,Name\n1,1,2,A\n"},
	})
	if err != nil {
		t.Fatalf("SaveProject() error = %v", err)
	}
	want := FieldMapping{"id": "ID", "lat": "Latitude", "lon": "Longitude", "name": "Name"}
	if got := p.LocationData.Mapping; len(got) != 4 || got["lat"] != want["lat"] {
		t.Errorf("bootstrapped mapping = %v, want %v", got, want)
	}

	// The user confirms an edited mapping.
	edited := FieldMapping{"id": "Name", "name": "ID"}
	p, err = svc.SaveProject(ctx, p.ID, SaveRequest{
		LocationData: &SectionInput{CSVContent: p.LocationData.CSVContent, Mapping: edited},
	})
	if err != nil {
		t.Fatalf("SaveProject() error = %v", err)
	}

	// Re-saving the same CSV without a mapping must not re-run the matcher.
	p, err = svc.SaveProject(ctx, p.ID, SaveRequest{
		LocationData: &SectionInput{CSVContent: p.LocationData.CSVContent},
	})
	if err != nil {
		t.Fatalf("SaveProject() error = %v", err)
	}
	if got := p.LocationData.Mapping; len(got) != 2 || got["id"] != "Name" {
		t.Errorf("mapping = %v, want the user's edit", got)
	}
}

func TestService_SaveSectionRejectsMalformedCSV(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p, _ := svc.CreateProject(ctx, "demo", "")

	_, err := svc.SaveProject(ctx, p.ID, SaveRequest{
		FlowData: &SectionInput{CSVContent: "origin,dest\n\"1,2\n"},
	})
	if err == nil || MapError(err).Code != "FILE002" {
		t.Errorf("error = %v, want malformed csv", err)
	}

	stored, _ := svc.GetProject(ctx, p.ID)
	if stored.FlowData != nil {
		t.Error("failed save should not store the section")
	}
}

func TestService_SaveProperties(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p, _ := svc.CreateProject(ctx, "demo", "")

	p, err := svc.SaveProject(ctx, p.ID, SaveRequest{
		Properties: &PropertiesInput{Overrides: properties.Config{properties.KeyFadeAmount: "10"}},
	})
	if err != nil {
		t.Fatalf("SaveProject() error = %v", err)
	}

	p, err = svc.SaveProject(ctx, p.ID, SaveRequest{
		Properties: &PropertiesInput{
			Template:  "Animated Sunset",
			Overrides: properties.Config{properties.KeyClustering: properties.Yes},
		},
	})
	if err != nil {
		t.Fatalf("SaveProject() error = %v", err)
	}

	cfg := p.PropertiesData.Config
	if cfg[properties.KeyFadeAmount] != "24" {
		t.Errorf("fadeAmount = %q, want template value 24", cfg[properties.KeyFadeAmount])
	}
	if cfg[properties.KeyClustering] != properties.Yes {
		t.Errorf("override lost: %v", cfg)
	}

	p, _ = svc.SaveProject(ctx, p.ID, SaveRequest{Properties: &PropertiesInput{Template: "Unknown"}})
	if p.PropertiesData.Config[properties.KeyFadeAmount] != "24" {
		t.Error("unknown template changed the configuration")
	}
}

func TestService_LoadDataset(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p, _ := svc.CreateProject(ctx, "demo", "")

	if _, err := svc.LoadDataset(ctx, p.ID); !errors.Is(err, ErrProjectIncomplete) {
		t.Errorf("empty project error = %v, want ErrProjectIncomplete", err)
	}

	_, err := svc.SaveProject(ctx, p.ID, SaveRequest{
		LocationData: &SectionInput{CSVContent: sampleLocations},
		FlowData:     &SectionInput{CSVContent: sampleFlows},
		Properties:   &PropertiesInput{Template: "Dark Teal"},
	})
	if err != nil {
		t.Fatalf("SaveProject() error = %v", err)
	}

	ds, err := svc.LoadDataset(ctx, p.ID)
	if err != nil {
		t.Fatalf("LoadDataset() error = %v", err)
	}
	if len(ds.Locations) != 3 || len(ds.Flows) != 6 {
		t.Errorf("dataset = %d locations, %d flows", len(ds.Locations), len(ds.Flows))
	}
	if ds.Settings.Scheme != "Teal" || !ds.Settings.DarkMode {
		t.Errorf("settings = %+v", ds.Settings)
	}
}

func TestService_UploadSection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p, _ := svc.CreateProject(ctx, "demo", "")

	data := append([]byte{0xEF, 0xBB, 0xBF}, sampleFlows...)
	p, err := svc.UploadSection(ctx, p.ID, EntityFlows, "flows.csv", data, nil)
	if err != nil {
		t.Fatalf("UploadSection() error = %v", err)
	}
	if p.FlowData.Mapping["origin"] != "origin" {
		t.Errorf("BOM leaked into header: %v", p.FlowData.Mapping)
	}

	if _, err := svc.UploadSection(ctx, p.ID, EntityFlows, "flows.csv", nil, nil); !errors.Is(err, ErrNoFile) {
		t.Errorf("empty upload error = %v, want ErrNoFile", err)
	}
	if _, err := svc.UploadSection(ctx, p.ID, "edges", "e.csv", data, nil); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("unknown entity error = %v", err)
	}
}

func TestService_DeleteProject(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p, _ := svc.CreateProject(ctx, "demo", "")

	if err := svc.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if _, err := svc.GetProject(ctx, p.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("after delete error = %v, want ErrProjectNotFound", err)
	}
}
