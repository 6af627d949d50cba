package handlers

import (
	"encoding/json"
	"net/http"

	"ubreader/internal/contextutil"
	"ubreader/internal/reference"
)

// maxReferenceBody bounds the request body for reference parsing.
const maxReferenceBody = 1 << 20

// ReferencesHandler handles HTTP requests for citation parsing.
type ReferencesHandler struct {
	baseURL string
}

// NewReferencesHandler creates a new ReferencesHandler. baseURL is used when
// a request does not name one.
func NewReferencesHandler(baseURL string) *ReferencesHandler {
	return &ReferencesHandler{baseURL: baseURL}
}

// ReferencesRequest is the HTTP request payload for reference parsing.
type ReferencesRequest struct {
	Text    string `json:"text"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// ReferencesResponse lists the references found in the text and the text as
// escaped HTML with every reference turned into a reader link.
type ReferencesResponse struct {
	References []reference.Reference `json:"references"`
	HTML       string                `json:"html"`
}

// ServeHTTP handles POST /api/references.
func (h *ReferencesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ReferencesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReferenceBody)).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	baseURL := req.BaseURL
	if baseURL == "" {
		baseURL = h.baseURL
	}
	linker := reference.NewLinker(baseURL)

	refs := linker.Parse(req.Text)
	if refs == nil {
		refs = []reference.Reference{}
	}
	writeJSON(ctx, w, http.StatusOK, ReferencesResponse{
		References: refs,
		HTML:       linker.LinkText(req.Text),
	})
}
