package handlers

import (
	"context"
	"net/http"

	"ubreader/internal/contextutil"
	"ubreader/internal/indexer"
	"ubreader/internal/service"
)

// IndexHandler handles HTTP requests for triggering re-indexing.
type IndexHandler struct {
	searchService service.SearchService
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(searchService service.SearchService) *IndexHandler {
	return &IndexHandler{
		searchService: searchService,
	}
}

// IndexResponse represents the response from the index endpoint.
type IndexResponse struct {
	Message string         `json:"message"`
	Status  string         `json:"status"`
	BuildID string         `json:"buildId,omitempty"`
	Stats   *indexer.Stats `json:"stats,omitempty"`
}

// ServeHTTP handles POST /api/index. By default the build runs in the
// background and the handler answers 202; with ?wait=true it answers once
// the new index is live.
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		logger.InfoContext(ctx, "re-indexing triggered via API", "wait", true)
		result, err := h.searchService.Rebuild(ctx)
		if err != nil {
			handleServiceError(ctx, w, err, "Failed to rebuild index")
			return
		}
		writeJSON(ctx, w, http.StatusOK, IndexResponse{
			Message: "Index rebuilt.",
			Status:  "completed",
			BuildID: result.BuildID,
			Stats:   &result.Stats,
		})
		return
	}

	logger.InfoContext(ctx, "re-indexing triggered via API")

	// The build outlives the request, so it only inherits the logger.
	indexCtx := contextutil.WithLogger(context.Background(), logger)
	go func() {
		if _, err := h.searchService.Rebuild(indexCtx); err != nil {
			logger.ErrorContext(indexCtx, "re-indexing failed", "error", err)
			return
		}
		logger.InfoContext(indexCtx, "re-indexing completed successfully")
	}()

	writeJSON(ctx, w, http.StatusAccepted, IndexResponse{
		Message: "Indexing started. Check server logs for progress.",
		Status:  "accepted",
	})
}
