package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pfrederiksen/odds-alchemist/internal/pipeline"
)

// SyncRequest is the body of POST /api/v1/sync
type SyncRequest struct {
	URL   string `json:"url"`
	Range string `json:"range"`
}

// HealthCheck returns service health
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
	})
}

// Extract classifies the HTML posted in the body and returns the records
func (s *Server) Extract(w http.ResponseWriter, r *http.Request) {
	if s.extractor == nil {
		respondError(w, http.StatusServiceUnavailable, "extraction is not configured")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "body too large")
			return
		}
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	result, err := s.extractor.ExtractString(string(body))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.metrics.IncrCounter("api.extract")

	respondJSON(w, http.StatusOK, result)
}

// Sync runs the pipeline once for the requested page and range
func (s *Server) Sync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		respondError(w, http.StatusServiceUnavailable, "sync is not configured")
		return
	}

	// An empty body, chunked or not, means use the defaults
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	// Use defaults if not provided
	if strings.TrimSpace(req.URL) == "" {
		req.URL = s.defaultURL
	}
	if strings.TrimSpace(req.Range) == "" {
		req.Range = s.defaultRange
	}
	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	report, err := s.syncer.Sync(r.Context(), req.URL, req.Range)
	if err != nil {
		s.log.Error("sync failed", zap.String("url", req.URL), zap.Error(err))
		switch {
		case errors.Is(err, pipeline.ErrFetch), errors.Is(err, pipeline.ErrExtract):
			respondError(w, http.StatusBadGateway, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Metrics returns a snapshot of the in-process metrics
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
