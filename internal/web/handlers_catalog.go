package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/flowmap/internal/properties"
)

var errTemplateNotFound = errors.New("template not found")

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status  string `json:"status"`
	Imports any    `json:"imports"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Imports: s.limiter.Status()})
}

// templateList groups the catalog the way the property panel shows it.
type templateList struct {
	Standard   []properties.Template `json:"standard"`
	TimeSeries []properties.Template `json:"timeSeries"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, templateList{
		Standard:   properties.Standard(),
		TimeSeries: properties.TimeSeries(),
	})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	t, ok := properties.Lookup(name)
	if !ok {
		s.fail(w, r, fmt.Errorf("%w: %q", errTemplateNotFound, name))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleColorSchemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, properties.ColorSchemes())
}

// mergeRequest is the body of POST /api/properties/merge.
type mergeRequest struct {
	Base      properties.Config `json:"base"`
	Template  string            `json:"template"`
	Overrides properties.Config `json:"overrides"`
}

type mergeResponse struct {
	Config          properties.Config    `json:"config"`
	Settings        properties.Settings  `json:"settings"`
	Problems        []properties.Problem `json:"problems"`
	TemplateApplied bool                 `json:"templateApplied"`
}

// handleMergeProperties layers defaults, base, template and overrides. An
// unknown template name is ignored.
func (s *Server) handleMergeProperties(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := decodeJSON(w, r, &req, maxJSONBody); err != nil {
		s.fail(w, r, err)
		return
	}

	var tmpl properties.Config
	t, found := properties.Lookup(req.Template)
	if found {
		tmpl = t.Config
	}

	cfg := properties.Merge(req.Base, tmpl, req.Overrides)
	problems := properties.Validate(cfg)
	if problems == nil {
		problems = []properties.Problem{}
	}
	writeJSON(w, http.StatusOK, mergeResponse{
		Config:          cfg,
		Settings:        properties.Decode(cfg),
		Problems:        problems,
		TemplateApplied: found,
	})
}
