package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/flowmap/internal/core"
	"github.com/JonMunkholm/flowmap/internal/logging"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.service.ListProjects(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(w, r, &req, maxJSONBody); err != nil {
		s.fail(w, r, err)
		return
	}

	p, err := s.service.CreateProject(r.Context(), req.Name, req.Description)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("project created", "project_id", p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleSaveProject applies a partial update: name, description, either
// data section and the property configuration.
func (s *Server) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	var req core.SaveRequest
	if err := decodeJSON(w, r, &req, s.importBodyLimit()); err != nil {
		s.fail(w, r, err)
		return
	}

	p, err := s.service.SaveProject(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.service.DeleteProject(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("project deleted", "project_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadSection stores a CSV or XLSX file as one data section. The
// multipart form carries "file" and an optional JSON "mapping".
func (s *Server) handleUploadSection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entity, err := core.ParseEntity(chi.URLParam(r, "entity"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+maxJSONBody)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", errInvalidRequest, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	if err := core.CheckSize(header.Size, maxSize); err != nil {
		s.fail(w, r, err)
		return
	}

	var mapping core.FieldMapping
	if raw := r.FormValue("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			s.fail(w, r, fmt.Errorf("%w: invalid mapping: %v", errInvalidRequest, err))
			return
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	var p *core.Project
	err = s.withImportSlot(r, func(ctx context.Context) error {
		var err error
		p, err = s.service.UploadSection(ctx, id, entity, header.Filename, data, mapping)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "project_id", id, "entity", entity).Info("section uploaded",
		"file", header.Filename,
		"bytes", len(data),
	)
	writeJSON(w, http.StatusOK, p)
}

// loadDataset rebuilds the project's dataset under an import slot.
func (s *Server) loadDataset(r *http.Request) (*core.Dataset, error) {
	var ds *core.Dataset
	err := s.withImportSlot(r, func(ctx context.Context) error {
		var err error
		ds, err = s.service.LoadDataset(ctx, chi.URLParam(r, "id"))
		return err
	})
	return ds, err
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.loadDataset(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// handleExport writes the normalized locations or flows as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	entity, err := core.ParseEntity(chi.URLParam(r, "entity"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ds, err := s.loadDataset(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var data []byte
	if entity == core.EntityLocations {
		data, err = core.ExportLocationsCSV(ds.Locations)
	} else {
		data, err = core.ExportFlowsCSV(ds.Flows)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(entity)+".csv"))
	w.Write(data)
}
