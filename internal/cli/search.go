package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ubreader/internal/document"
	"ubreader/internal/search"
	"ubreader/internal/service"
	"ubreader/internal/storage"
)

type searchOptions struct {
	indexPath  string
	types      []string
	limit      int
	page       int
	from       string
	to         string
	categories []string
	tags       []string
	authors    []string
	json       bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the built index",
		Long: `Runs a fuzzy search against the index file written by "ubreader build".
With no query every document matching the filters is listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.indexPath, "index", "", "index file path (default INDEX_PATH)")
	f.StringSliceVarP(&opts.types, "type", "t", nil, "restrict to document types (post, scientific, lectionary, page)")
	f.IntVarP(&opts.limit, "limit", "n", search.DefaultLimit, "results per page")
	f.IntVar(&opts.page, "page", 0, "zero-based page number")
	f.StringVar(&opts.from, "from", "", "earliest lastUpdated date (YYYY-MM-DD or RFC 3339)")
	f.StringVar(&opts.to, "to", "", "latest lastUpdated date (YYYY-MM-DD or RFC 3339)")
	f.StringSliceVar(&opts.categories, "category", nil, "match any of these categories")
	f.StringSliceVar(&opts.tags, "tag", nil, "match any of these tags")
	f.StringSliceVar(&opts.authors, "author", nil, "match any of these authors")
	f.BoolVar(&opts.json, "json", false, "print results as JSON")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string, opts searchOptions) error {
	q, err := opts.query(args)
	if err != nil {
		return err
	}

	indexPath := opts.indexPath
	if indexPath == "" {
		indexPath = configFrom(cmd).IndexPath
	}
	if _, err := os.Stat(indexPath); err != nil {
		return fmt.Errorf("index %s: %w (run \"ubreader build\" first)", indexPath, err)
	}
	svc := service.NewSearchService(storage.NewIndexFile(indexPath), nil)
	if err := svc.Reload(cmd.Context()); err != nil {
		return err
	}

	page, err := svc.Search(cmd.Context(), q)
	if err != nil {
		return err
	}

	if opts.json {
		data, err := json.MarshalIndent(page, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(page.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	first := q.Page*q.Limit + 1
	cmd.Printf("Showing %d-%d of %d results:\n\n", first, first+len(page.Results)-1, page.Total)
	for i, r := range page.Results {
		cmd.Printf("%d. %s [%s] (score: %.3f)\n", first+i, r.Document.Title, r.Document.Type, r.Score)
		cmd.Printf("   %s\n", r.Document.Path)
		if r.Document.Excerpt != "" {
			cmd.Printf("   %s\n", r.Document.Excerpt)
		}
		cmd.Println()
	}
	return nil
}

func (o searchOptions) query(args []string) (search.Query, error) {
	q := search.Query{Limit: o.limit, Page: o.page}
	if len(args) == 1 {
		q.Text = strings.TrimSpace(args[0])
	}

	for _, raw := range o.types {
		t, ok := document.ParseDocType(raw)
		if !ok {
			return q, &service.ValidationError{Field: "type", Message: fmt.Sprintf("unknown document type %q", raw)}
		}
		q.Filters.Types = append(q.Filters.Types, t)
	}

	var err error
	if q.Filters.DateRange.From, err = parseBound("from", o.from, false); err != nil {
		return q, err
	}
	if q.Filters.DateRange.To, err = parseBound("to", o.to, true); err != nil {
		return q, err
	}

	metadata := make(map[string]any)
	for key, vals := range map[string][]string{"categories": o.categories, "tags": o.tags, "author": o.authors} {
		if len(vals) > 0 {
			metadata[key] = vals
		}
	}
	if len(metadata) > 0 {
		q.Filters.Metadata = metadata
	}
	return q, nil
}

// parseBound parses a date flag. A bare date used as an upper bound covers
// the whole day.
func parseBound(field, raw string, endOfDay bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := search.ParseDate(raw)
	if err != nil {
		return time.Time{}, &service.ValidationError{Field: field, Message: "must be an ISO 8601 date"}
	}
	if endOfDay && len(raw) == len(time.DateOnly) {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
