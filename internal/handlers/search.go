package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ubreader/internal/contextutil"
	"ubreader/internal/document"
	"ubreader/internal/search"
	"ubreader/internal/service"
)

// SearchHandler handles HTTP requests for search.
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// SearchResponse is the HTTP response payload for search.
type SearchResponse struct {
	Results []search.Result `json:"results"`
	Meta    SearchMeta      `json:"meta"`
}

// SearchMeta echoes the effective query alongside the total match count.
type SearchMeta struct {
	Query   string         `json:"query"`
	Filters search.Filters `json:"filters"`
	Limit   int            `json:"limit"`
	Page    int            `json:"page"`
	Total   int            `json:"total"`
}

// ServeHTTP handles GET /api/search.
//
// Query parameters: q, type (repeatable or comma separated), limit, page,
// from, to, category, tag, author (repeatable).
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	q, err := parseSearchQuery(r.URL.Query())
	if err != nil {
		handleServiceError(ctx, w, err, "Invalid search request")
		return
	}

	page, err := h.searchService.Search(ctx, q)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to search")
		return
	}

	limit := q.Limit
	if limit == 0 {
		limit = search.DefaultLimit
	}
	writeJSON(ctx, w, http.StatusOK, SearchResponse{
		Results: page.Results,
		Meta: SearchMeta{
			Query:   q.Text,
			Filters: q.Filters,
			Limit:   limit,
			Page:    q.Page,
			Total:   page.Total,
		},
	})
}

// parseSearchQuery converts URL parameters into a search query. Range checks
// on limit and page are left to the service.
func parseSearchQuery(values url.Values) (search.Query, error) {
	q := search.Query{Text: strings.TrimSpace(values.Get("q"))}

	var err error
	if q.Limit, err = intParam(values, "limit"); err != nil {
		return q, err
	}
	if q.Page, err = intParam(values, "page"); err != nil {
		return q, err
	}

	for _, raw := range listParam(values, "type") {
		t, ok := document.ParseDocType(raw)
		if !ok {
			return q, &service.ValidationError{Field: "type", Message: "unknown document type " + strconv.Quote(raw)}
		}
		q.Filters.Types = append(q.Filters.Types, t)
	}

	if q.Filters.DateRange.From, err = dateParam(values, "from", false); err != nil {
		return q, err
	}
	if q.Filters.DateRange.To, err = dateParam(values, "to", true); err != nil {
		return q, err
	}

	metadata := make(map[string]any)
	for param, key := range map[string]string{"category": "categories", "tag": "tags", "author": "author"} {
		if vals := listParam(values, param); len(vals) > 0 {
			metadata[key] = vals
		}
	}
	if len(metadata) > 0 {
		q.Filters.Metadata = metadata
	}
	return q, nil
}

func intParam(values url.Values, name string) (int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &service.ValidationError{Field: name, Message: "must be an integer"}
	}
	return n, nil
}

// listParam collects a repeatable parameter, also splitting on commas.
func listParam(values url.Values, name string) []string {
	var out []string
	for _, v := range values[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// dateParam parses an ISO 8601 date. A bare date used as an upper bound
// covers the whole day.
func dateParam(values url.Values, name string, endOfDay bool) (time.Time, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := search.ParseDate(raw)
	if err != nil {
		return time.Time{}, &service.ValidationError{Field: name, Message: "must be an ISO 8601 date"}
	}
	if endOfDay && len(raw) == len(time.DateOnly) {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
