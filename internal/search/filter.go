package search

import (
	"fmt"
	"strings"
	"time"

	"ubreader/internal/document"
)

// Filters narrow a result set. Zero values do not filter.
type Filters struct {
	Types     []document.DocType `json:"types,omitempty"`
	DateRange DateRange          `json:"dateRange,omitzero"`
	// Metadata maps a metadata key to a scalar (equality) or a []string
	// (the document's value must be, or contain, at least one of them).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DateRange bounds lastUpdated, inclusive. A zero bound is open.
type DateRange struct {
	From time.Time `json:"from,omitzero"`
	To   time.Time `json:"to,omitzero"`
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// dateLayouts are the forms lastUpdated and date filters are accepted in.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses an ISO 8601 date or timestamp. Values without a zone are
// UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// apply keeps results passing every filter: types, then date range, then
// metadata.
func (f Filters) apply(results []Result) []Result {
	if len(f.Types) > 0 {
		results = keep(results, func(d *document.SearchableDocument) bool {
			for _, t := range f.Types {
				if d.Type == t {
					return true
				}
			}
			return false
		})
	}

	if !f.DateRange.IsZero() {
		results = keep(results, func(d *document.SearchableDocument) bool {
			t, err := ParseDate(d.LastUpdated)
			if err != nil {
				return false
			}
			if !f.DateRange.From.IsZero() && t.Before(f.DateRange.From) {
				return false
			}
			if !f.DateRange.To.IsZero() && t.After(f.DateRange.To) {
				return false
			}
			return true
		})
	}

	if len(f.Metadata) > 0 {
		results = keep(results, func(d *document.SearchableDocument) bool {
			for key, want := range f.Metadata {
				got, ok := d.Metadata.Field(key)
				if !ok || !metadataMatches(got, want) {
					return false
				}
			}
			return true
		})
	}

	return results
}

func keep(results []Result, pred func(*document.SearchableDocument) bool) []Result {
	out := results[:0:0]
	for i := range results {
		if pred(&results[i].Document) {
			out = append(out, results[i])
		}
	}
	return out
}

// metadataMatches applies one metadata filter value to a document field.
func metadataMatches(got, want any) bool {
	if wantList, ok := asStrings(want); ok {
		gotList, ok := asStrings(got)
		if !ok {
			gotList = []string{fmt.Sprint(got)}
		}
		for _, w := range wantList {
			for _, g := range gotList {
				if g == w {
					return true
				}
			}
		}
		return false
	}

	if _, isList := asStrings(got); isList {
		return false
	}
	return fmt.Sprint(got) == fmt.Sprint(want)
}

func asStrings(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case document.Author:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	}
	return nil, false
}
