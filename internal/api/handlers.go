package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/probelabs/wpscope/internal/fetch"
	"github.com/probelabs/wpscope/internal/wp"
)

// envelope is the uniform response wrapper for the analysis endpoints.
type envelope struct {
	Success bool               `json:"success"`
	Data    *wp.AnalysisResult `json:"data,omitempty"`
	Error   string             `json:"error,omitempty"`
	Message string             `json:"message,omitempty"`
}

type analyzeRequest struct {
	URL      string `json:"url"`
	DeepScan bool   `json:"deep_scan"`
}

func (s *Server) analyzePost(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, s.logger, http.StatusBadRequest, envelope{
			Success: false,
			Error:   "invalid JSON body",
			Message: "Request body must be a JSON object with a url field",
		})
		return
	}
	s.runAnalysis(w, r, wp.AnalysisRequest{URL: req.URL, DeepScan: req.DeepScan})
}

func (s *Server) analyzeGet(w http.ResponseWriter, r *http.Request) {
	target := restorePathURL(chi.URLParam(r, "*"))
	if target == "" {
		target = r.URL.Query().Get("url")
	}
	deepScan, _ := strconv.ParseBool(r.URL.Query().Get("deep_scan"))
	s.runAnalysis(w, r, wp.AnalysisRequest{URL: target, DeepScan: deepScan})
}

func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request, req wp.AnalysisRequest) {
	result, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, envelope{
		Success: true,
		Data:    result,
		Message: "Site analysis completed successfully",
	})
}

// writeAnalysisError maps the error taxonomy to the response envelope:
// validation failures are client errors; an unreachable or failing target
// is a successful API call reporting an unsuccessful analysis.
func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	var statusErr *fetch.StatusError
	switch {
	case errors.Is(err, wp.ErrInvalidURL):
		writeJSON(w, s.logger, http.StatusBadRequest, envelope{
			Success: false,
			Error:   err.Error(),
			Message: "The provided URL is not valid",
		})
	case errors.As(err, &statusErr):
		writeJSON(w, s.logger, http.StatusOK, envelope{
			Success: false,
			Error:   fmt.Sprintf("HTTP error occurred: %d", statusErr.StatusCode),
			Message: "Failed to access the site",
		})
	default:
		writeJSON(w, s.logger, http.StatusOK, envelope{
			Success: false,
			Error:   fmt.Sprintf("Request error: %v", err),
			Message: "Failed to connect to the site",
		})
	}
}

// restorePathURL undoes the double-slash collapsing that path routing
// applies to URLs embedded as path segments, so
// /analyze/https:/example.com works the same as /analyze/https://example.com.
func restorePathURL(raw string) string {
	raw = strings.TrimPrefix(raw, "/")
	for _, scheme := range []string{"https", "http"} {
		prefix := scheme + ":/"
		if strings.HasPrefix(raw, prefix) && !strings.HasPrefix(raw, scheme+"://") {
			return scheme + "://" + strings.TrimPrefix(raw, prefix)
		}
	}
	return raw
}
