package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_service.go -package=mocks ubreader/internal/service IndexBuilder,SearchService

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ubreader/internal/contextutil"
	"ubreader/internal/document"
	"ubreader/internal/indexer"
	"ubreader/internal/metrics"
	"ubreader/internal/search"
	"ubreader/internal/storage"
)

// MaxLimit caps the page size a caller may request.
const MaxLimit = 100

// IndexBuilder runs one full corpus build.
// *indexer.Pipeline satisfies it.
type IndexBuilder interface {
	Run(ctx context.Context) (*indexer.Result, error)
}

// SearchService answers queries against the live index and swaps in new
// indexes without blocking readers.
type SearchService interface {
	// Search validates q and returns one page of results.
	Search(ctx context.Context, q search.Query) (search.Page, error)
	// Reload replaces the live engine with the index held by the store.
	Reload(ctx context.Context) error
	// Rebuild rebuilds the index from the content root and swaps it in.
	Rebuild(ctx context.Context) (*indexer.Result, error)
	// DocumentCount returns the number of documents in the live engine.
	DocumentCount() int
}

// searchService implements SearchService.
type searchService struct {
	store    storage.IndexStore
	builder  IndexBuilder
	opts     []search.Option
	engine   atomic.Pointer[search.Engine]
	building sync.Mutex
}

// NewSearchService creates a SearchService that starts empty. builder may be
// nil, in which case Rebuild fails with ErrNoBuilder.
func NewSearchService(store storage.IndexStore, builder IndexBuilder, opts ...search.Option) SearchService {
	s := &searchService{
		store:   store,
		builder: builder,
		opts:    opts,
	}
	s.swap(nil)
	return s
}

func (s *searchService) Search(ctx context.Context, q search.Query) (search.Page, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateQuery(q); err != nil {
		logger.WarnContext(ctx, "invalid search query", "error", err)
		return search.Page{}, err
	}

	start := time.Now()
	page := s.engine.Load().Execute(q)
	elapsed := time.Since(start)
	metrics.ObserveSearch(strings.TrimSpace(q.Text), page.Total, elapsed)

	logger.DebugContext(ctx, "search executed",
		"query", q.Text,
		"total", page.Total,
		"returned", len(page.Results),
		"duration_ms", elapsed.Milliseconds())
	return page, nil
}

func validateQuery(q search.Query) error {
	if q.Limit < 0 {
		return &ValidationError{Field: "limit", Message: "must not be negative"}
	}
	if q.Limit > MaxLimit {
		return &ValidationError{Field: "limit", Message: "must be at most 100"}
	}
	if q.Page < 0 {
		return &ValidationError{Field: "page", Message: "must not be negative"}
	}
	r := q.Filters.DateRange
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return &ValidationError{Field: "dateRange", Message: "from must not be after to"}
	}
	return nil
}

func (s *searchService) Reload(ctx context.Context) error {
	docs, err := s.store.Load(ctx)
	if err != nil {
		return WrapError(err, "failed to load index")
	}
	s.swap(docs)
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "search index loaded", "documents", len(docs))
	return nil
}

func (s *searchService) Rebuild(ctx context.Context) (*indexer.Result, error) {
	if s.builder == nil {
		return nil, ErrNoBuilder
	}
	if !s.building.TryLock() {
		return nil, ErrBuildInProgress
	}
	defer s.building.Unlock()

	logger := contextutil.LoggerFromContext(ctx)
	result, err := s.builder.Run(ctx)
	metrics.ObserveBuild(err)
	if err != nil {
		logger.ErrorContext(ctx, "index build failed", "error", err)
		return nil, WrapError(err, "failed to build index")
	}

	s.swap(result.Documents)
	logger.InfoContext(ctx, "search index rebuilt",
		"build_id", result.BuildID,
		"documents", len(result.Documents),
		"failures", result.Stats.Failures)
	return result, nil
}

func (s *searchService) DocumentCount() int {
	return s.engine.Load().Len()
}

func (s *searchService) swap(docs []document.SearchableDocument) {
	s.engine.Store(search.NewEngine(docs, s.opts...))
	metrics.SetIndexedDocuments(len(docs))
}
