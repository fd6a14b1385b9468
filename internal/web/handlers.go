package web

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/recfind/internal/core"
	"github.com/JonMunkholm/recfind/internal/report"
)

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status            string                   `json:"status"`
	Datasets          int                      `json:"datasets"`
	AvailableDatasets int                      `json:"available_datasets"`
	Search            core.SearchLimiterStatus `json:"search"`
}

// handleHealth reports liveness, dataset availability and search slots.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:            "ok",
		Datasets:          s.catalog.Len(),
		AvailableDatasets: s.catalog.AvailableCount(),
		Search:            s.limiter.Status(),
	}
	if resp.AvailableDatasets == 0 {
		resp.Status = "degraded"
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// DatasetInfo describes a catalog entry to API clients.
type DatasetInfo struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Available     bool     `json:"available"`
	DisplayFields []string `json:"displayFields,omitempty"`
}

// handleListDatasets returns every configured dataset with its availability.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	entries := s.catalog.Entries()
	out := make([]DatasetInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, DatasetInfo{
			ID:            e.ID,
			Name:          e.Name,
			Available:     e.Available,
			DisplayFields: e.DisplayFields,
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleRefreshDatasets re-checks which dataset files exist.
func (s *Server) handleRefreshDatasets(w http.ResponseWriter, r *http.Request) {
	s.catalog.Refresh()
	s.handleListDatasets(w, r)
}

// ClassifyResponse is returned by /api/classify.
type ClassifyResponse struct {
	Query string         `json:"query"`
	Type  core.QueryType `json:"type"`
}

// handleClassify returns the query type without running a search.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	query, _ := searchParams(r)
	if query == "" {
		s.respondError(w, r, core.ErrEmptyQuery)
		return
	}
	writeJSON(w, r, http.StatusOK, ClassifyResponse{Query: query, Type: s.service.Classify(query)})
}

// handleSearch runs a search and returns the outcome as JSON.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query, limit := searchParams(r)

	outcome, err := s.runSearch(r, query, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, outcome)
}

// handleReport runs a search and renders the HTML report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	query, limit := searchParams(r)

	outcome, err := s.runSearch(r, query, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.HTML(outcome, time.Now()).Render(r.Context(), w); err != nil {
		s.logger.Error("render report", "search_id", outcome.ID, "error", err)
	}
}
