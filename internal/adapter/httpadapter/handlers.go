package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/couchcryptid/energy-atlas-service/internal/query"
	"github.com/couchcryptid/energy-atlas-service/internal/store"
)

// defaultMapZoom applies when the map request has no zoom parameter.
const defaultMapZoom = 1

type errorResponse struct {
	Error string `json:"error"`
}

type energyResponse struct {
	Department string           `json:"department"`
	Type       query.EnergyType `json:"type"`
	Value      float64          `json:"value"`
}

type recommendationResponse struct {
	Department     string `json:"department"`
	Recommendation string `json:"recommendation"`
}

func (s *Server) handleDepartments(w http.ResponseWriter, r *http.Request) {
	aggs, err := s.queries.DepartmentAggregates(r.Context())
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, aggs)
}

func (s *Server) handleDepartment(w http.ResponseWriter, r *http.Request) {
	dept, err := s.queries.DepartmentData(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}
	if dept == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "department not found"})
		return
	}
	writeJSON(w, http.StatusOK, dept)
}

func (s *Server) handleDepartmentMunicipios(w http.ResponseWriter, r *http.Request) {
	munis, err := s.queries.MunicipiosByDepartment(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, munis)
}

func (s *Server) handleEnergyValue(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	typ := query.EnergyType(r.URL.Query().Get("type"))
	if !typ.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "type must be one of solar, eolico, hibrido"})
		return
	}

	writeJSON(w, http.StatusOK, energyResponse{
		Department: name,
		Type:       typ,
		Value:      s.queries.EnergyValue(r.Context(), name, typ),
	})
}

func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	text, err := s.queries.DepartmentRecommendation(r.Context(), name)
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendationResponse{Department: name, Recommendation: text})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	zoom := float64(defaultMapZoom)
	if z := params.Get("zoom"); z != "" {
		parsed, err := strconv.ParseFloat(z, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "zoom must be a number"})
			return
		}
		zoom = parsed
	}

	markers, err := s.queries.MunicipiosForMap(r.Context(), params.Get("department"), zoom)
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, markers)
}

func (s *Server) handleMunicipio(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(r.PathValue("dane"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "dane code must be an integer"})
		return
	}

	muni, err := s.queries.MunicipioByDane(r.Context(), code)
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}
	if muni == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "municipality not found"})
		return
	}
	writeJSON(w, http.StatusOK, muni)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	meta, err := s.queries.DatasetStats(r.Context())
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// writeQueryError maps a dataset load failure to 503 and anything else to 500.
func (s *Server) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	var loadErr *store.LoadError
	if errors.As(err, &loadErr) {
		s.logger.Warn("dataset unavailable", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "prediction dataset unavailable"})
		return
	}
	s.logger.Error("query failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
