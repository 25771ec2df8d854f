package api

import (
	"net/http"

	"github.com/nyashahama/ops-diagnostic-backend/internal/catalog"
)

// ─── GET /api/catalog ─────────────────────────────────────────────────────────

type dimensionResponse struct {
	Key   catalog.Dimension `json:"key"`
	Label string            `json:"label"`
}

type catalogResponse struct {
	StepCount  int                 `json:"step_count"`
	Dimensions []dimensionResponse `json:"dimensions"`
	Sections   []catalog.Section   `json:"sections"`
}

// handleGetCatalog serves the questionnaire definition. It is static for the
// life of the process.
func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	dims := make([]dimensionResponse, len(catalog.Dimensions))
	for i, d := range catalog.Dimensions {
		dims[i] = dimensionResponse{Key: d, Label: d.Label()}
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	respond(w, http.StatusOK, catalogResponse{
		StepCount:  s.catalog.StepCount(),
		Dimensions: dims,
		Sections:   s.catalog.Sections,
	})
}
