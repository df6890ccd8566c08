package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/climo-likelihood/internal/domain"
)

const maxBodyBytes = 1 << 16

type errorBody struct {
	Error     string       `json:"error"`
	Details   []fieldError `json:"details,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string, details []fieldError) {
	sharedobs.WriteJSON(w, status, errorBody{Error: msg, Details: details, RequestID: RequestID(r.Context())})
}

func (s *Server) handleLikelihood(w http.ResponseWriter, r *http.Request) {
	var body likelihoodRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "malformed request body: "+err.Error(), nil)
		return
	}

	if err := validate.Struct(body); err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, "validation failed", fieldErrors(err))
		return
	}

	req, err := body.toDomain(s.defaultWindow, s.service.DefaultConditions())
	if err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}

	result, err := s.service.Run(r.Context(), req)
	switch {
	case err == nil:
		sharedobs.WriteJSON(w, http.StatusOK, result)
	case errors.Is(err, domain.ErrInvalidInput):
		s.writeError(w, r, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, domain.ErrProvider):
		s.writeError(w, r, http.StatusBadGateway, "climate data provider unavailable", nil)
	default:
		s.logger.Error("likelihood request failed", "error", err, "request_id", RequestID(r.Context()))
		s.writeError(w, r, http.StatusInternalServerError, "internal error", nil)
	}
}

func (s *Server) handleVariables(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, len(domain.AllConditions))
	for i, c := range domain.AllConditions {
		names[i] = string(c)
	}
	sharedobs.WriteJSON(w, http.StatusOK, names)
}

func (s *Server) handleConditions(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.service.Conditions())
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	if s.geocoder == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "geocoding is disabled", nil)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.writeError(w, r, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}

	results, err := s.geocoder.ForwardGeocode(r.Context(), q)
	if err != nil {
		s.logger.Warn("forward geocoding failed", "error", err, "query", q)
		s.writeError(w, r, http.StatusBadGateway, "geocoding provider unavailable", nil)
		return
	}
	if results == nil {
		results = []domain.GeocodingResult{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, results)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
