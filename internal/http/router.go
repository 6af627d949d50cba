package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ext "ubreader/internal/extension"
	"ubreader/internal/handlers"
	"ubreader/internal/metrics"
	"ubreader/internal/service"
	"ubreader/internal/storage"
	"ubreader/internal/transform"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	SearchService service.SearchService
	// Catalog serves single documents; nil disables /api/documents.
	Catalog     storage.DocumentCatalog
	Transformer *transform.Transformer
	Registry    *ext.Registry
	// ReaderBaseURL prefixes reference links.
	ReaderBaseURL string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(metrics.Middleware())

	transformer := deps.Transformer
	if transformer == nil {
		transformer = transform.New(transform.WithRegistry(deps.Registry))
	}

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/search", handlers.NewSearchHandler(deps.SearchService))
		r.Method(http.MethodPost, "/references", handlers.NewReferencesHandler(deps.ReaderBaseURL))
		r.Method(http.MethodPost, "/transform", handlers.NewTransformHandler(transformer, deps.Registry))
		r.Method(http.MethodPost, "/index", handlers.NewIndexHandler(deps.SearchService))
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.SearchService))

		if deps.Catalog != nil {
			documents := handlers.NewDocumentsHandler(deps.Catalog)
			r.Get("/documents", documents.List)
			r.Get("/documents/{id}", documents.Get)
		}
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
