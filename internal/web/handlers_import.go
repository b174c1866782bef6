package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/flowmap/internal/core"
	"github.com/JonMunkholm/flowmap/internal/logging"
	"github.com/JonMunkholm/flowmap/internal/properties"
)

// maxJSONBody bounds small JSON bodies such as property merges.
const maxJSONBody = 1 << 20

// decodeJSON reads a JSON body of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return fmt.Errorf("%w: request body too large", core.ErrFileTooLarge)
		}
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	return nil
}

// importBodyLimit allows both CSV texts at the configured file size.
func (s *Server) importBodyLimit() int64 {
	return 2*s.cfg.Import.MaxFileSize + maxJSONBody
}

// withImportSlot runs fn holding an import limiter slot and the import
// timeout.
func (s *Server) withImportSlot(r *http.Request, fn func(ctx context.Context) error) error {
	if err := s.limiter.Acquire(r.Context()); err != nil {
		return err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()
	return fn(ctx)
}

// schemaRequest is the body of POST /api/schema/{entity}.
type schemaRequest struct {
	CSVContent string            `json:"csvContent"`
	Mapping    core.FieldMapping `json:"mapping"`
}

// handleDescribeSchema reports the columns of a CSV, a short preview and
// the mapping to confirm: the one sent, or the matcher's proposal.
func (s *Server) handleDescribeSchema(w http.ResponseWriter, r *http.Request) {
	entity, err := core.ParseEntity(chi.URLParam(r, "entity"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req schemaRequest
	if err := decodeJSON(w, r, &req, s.cfg.Import.MaxFileSize+maxJSONBody); err != nil {
		s.fail(w, r, err)
		return
	}

	preview, err := core.DescribeSchema(req.CSVContent, entity, req.Mapping)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// importRequest is the body of POST /api/import. Nothing is stored.
type importRequest struct {
	LocationCSV     string            `json:"locationCsv"`
	LocationMapping core.FieldMapping `json:"locationMapping"`
	FlowCSV         string            `json:"flowCsv"`
	FlowMapping     core.FieldMapping `json:"flowMapping"`
	Config          properties.Config `json:"config"`
	Template        string            `json:"template"`
	Overrides       properties.Config `json:"overrides"`
	Bucket          string            `json:"bucket"`
}

// handleImport builds a dataset from raw CSV text in one request.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(w, r, &req, s.importBodyLimit()); err != nil {
		s.fail(w, r, err)
		return
	}

	in := core.DatasetInput{
		LocationCSV:     req.LocationCSV,
		LocationMapping: req.LocationMapping,
		FlowCSV:         req.FlowCSV,
		FlowMapping:     req.FlowMapping,
		Config:          req.Config,
		Template:        req.Template,
		Overrides:       req.Overrides,
	}
	if req.Bucket != "" {
		bucket, err := core.ParseTimeBucket(req.Bucket)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: %w", errInvalidRequest, err))
			return
		}
		in.Options.Bucket = bucket
	}

	var ds *core.Dataset
	err := s.withImportSlot(r, func(ctx context.Context) error {
		var err error
		ds, err = s.service.Import(ctx, in)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("import complete",
		"locations", len(ds.Locations),
		"flows", len(ds.Flows),
		"flow_rows", ds.Summary.FlowRows,
	)
	writeJSON(w, http.StatusOK, ds)
}
