package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ubreader/internal/contextutil"
	"ubreader/internal/document"
	"ubreader/internal/service"
	"ubreader/internal/storage"
)

// DocumentsHandler serves documents from the SQLite catalog written by the
// last build.
type DocumentsHandler struct {
	catalog storage.DocumentCatalog
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(catalog storage.DocumentCatalog) *DocumentsHandler {
	return &DocumentsHandler{catalog: catalog}
}

// DocumentListResponse is the payload for GET /api/documents.
type DocumentListResponse struct {
	Documents []document.SearchableDocument `json:"documents,omitempty"`
	Counts    map[document.DocType]int      `json:"counts"`
}

// List handles GET /api/documents. Without a type it returns per-type counts
// only; with ?type= it also lists that type's documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := h.catalog.CountByType(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to count documents")
		return
	}
	resp := DocumentListResponse{Counts: counts}

	if raw := r.URL.Query().Get("type"); raw != "" {
		docType, ok := document.ParseDocType(raw)
		if !ok {
			handleServiceError(ctx, w, &service.ValidationError{Field: "type", Message: "unknown document type"}, "")
			return
		}
		docs, err := h.catalog.ListByType(ctx, docType)
		if err != nil {
			handleServiceError(ctx, w, err, "Failed to list documents")
			return
		}
		resp.Documents = docs
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

// Get handles GET /api/documents/{id}.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	doc, err := h.catalog.GetByID(ctx, id)
	if err != nil {
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "document lookup failed", "id", id, "error", err)
		handleServiceError(ctx, w, err, "Failed to get document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, doc)
}
