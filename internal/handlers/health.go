package handlers

import (
	"net/http"
	"time"

	"ubreader/internal/contextutil"
	"ubreader/internal/service"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	searchService service.SearchService
	now           func() time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(searchService service.SearchService) *HealthHandler {
	return &HealthHandler{
		searchService: searchService,
		now:           time.Now,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "degraded"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Documents in the live search index
	Documents int `json:"documents"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles GET /api/health. An empty index is reported as degraded
// but still answers 200: the server can serve and rebuild.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	count := h.searchService.DocumentCount()
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Documents: count,
		Checks:    map[string]string{"search_index": "ok"},
	}
	if count == 0 {
		response.Status = "degraded"
		response.Checks["search_index"] = "empty"
		response.Issues = []string{"search_index_empty"}
	}

	writeJSON(ctx, w, http.StatusOK, response)
}
