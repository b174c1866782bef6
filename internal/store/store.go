// Package store persists flow map projects.
//
// Two implementations satisfy core.ProjectStore: Memory for tests, the CLI
// and database-less deployments, and Postgres for durable storage.
package store

import (
	"github.com/JonMunkholm/flowmap/internal/core"
)

var (
	_ core.ProjectStore = (*Memory)(nil)
	_ core.ProjectStore = (*Postgres)(nil)
)

// cloneProject returns a deep copy so callers never share section maps with
// the store.
func cloneProject(p *core.Project) *core.Project {
	out := *p
	out.LocationData = cloneSection(p.LocationData)
	out.FlowData = cloneSection(p.FlowData)
	if p.PropertiesData != nil {
		out.PropertiesData = &core.PropertiesSection{Config: p.PropertiesData.Config.Clone()}
	}
	return &out
}

func cloneSection(s *core.DataSection) *core.DataSection {
	if s == nil {
		return nil
	}
	return &core.DataSection{CSVContent: s.CSVContent, Mapping: s.Mapping.Clone()}
}
