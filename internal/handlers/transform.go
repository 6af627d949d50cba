package handlers

import (
	"errors"
	"io"
	"net/http"

	"ubreader/internal/contextutil"
	"ubreader/internal/document"
	ext "ubreader/internal/extension"
	"ubreader/internal/transform"
)

// maxTransformBody bounds uploaded source documents.
const maxTransformBody = 10 << 20

// TransformHandler previews how a source document will be transformed.
type TransformHandler struct {
	transformer *transform.Transformer
	registry    *ext.Registry
}

// NewTransformHandler creates a new TransformHandler. registry composes the
// page and may be nil.
func NewTransformHandler(transformer *transform.Transformer, registry *ext.Registry) *TransformHandler {
	return &TransformHandler{
		transformer: transformer,
		registry:    registry,
	}
}

// TransformResponse carries the transformed document and its composed page.
type TransformResponse struct {
	Document *document.TransformedDocument `json:"document"`
	Page     string                        `json:"page,omitempty"`
}

// ServeHTTP handles POST /api/transform. The body is the raw source; the
// format comes from ?format= or, failing that, the extension of ?filename=.
func (h *TransformHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	format, ok := requestFormat(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown or missing format")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTransformBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		logger.WarnContext(ctx, "failed to read request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := h.transformer.Transform(format, data)
	if err != nil {
		logger.WarnContext(ctx, "transform failed", "format", format, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := TransformResponse{Document: doc}
	if h.registry != nil {
		resp.Page = ext.RenderPage(h.registry, doc)
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

func requestFormat(r *http.Request) (transform.Format, bool) {
	switch f := transform.Format(r.URL.Query().Get("format")); f {
	case transform.FormatMarkdown, transform.FormatPerplexity, transform.FormatDOCX:
		return f, true
	case "":
		return transform.DetectFormat(r.URL.Query().Get("filename"))
	}
	return "", false
}
