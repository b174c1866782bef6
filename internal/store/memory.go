package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/flowmap/internal/core"
)

// Memory is an in-process project store. Contents are lost on exit.
type Memory struct {
	mu       sync.RWMutex
	projects map[string]*core.Project
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{projects: make(map[string]*core.Project)}
}

func (m *Memory) CreateProject(_ context.Context, p *core.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[p.ID]; ok {
		return fmt.Errorf("project %s already exists", p.ID)
	}
	m.projects[p.ID] = cloneProject(p)
	return nil
}

// ListProjects returns projects ordered by creation time.
func (m *Memory) ListProjects(_ context.Context) ([]core.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, *cloneProject(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) GetProject(_ context.Context, id string) (*core.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, core.ErrProjectNotFound
	}
	return cloneProject(p), nil
}

func (m *Memory) UpdateProject(_ context.Context, p *core.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[p.ID]; !ok {
		return core.ErrProjectNotFound
	}
	m.projects[p.ID] = cloneProject(p)
	return nil
}

func (m *Memory) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[id]; !ok {
		return core.ErrProjectNotFound
	}
	delete(m.projects, id)
	return nil
}

// Len returns the number of stored projects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.projects)
}
