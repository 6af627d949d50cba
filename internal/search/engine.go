// Package search is an in-memory fuzzy search engine over searchable
// documents. An Engine is immutable; reindexing builds a new one.
package search

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"ubreader/internal/document"
)

const (
	// DefaultLimit is the page size used when a query sets none.
	DefaultLimit = 10
	// DefaultThreshold drops key matches scoring worse than this (0 is a
	// perfect match, 1 no match at all).
	DefaultThreshold = 0.6

	// browseScore is reported for every result of an empty query.
	browseScore = 1.0
	// epsilon stands in for a perfect key score so it still ranks by weight.
	epsilon = 0x1p-52
)

// Key is one weighted, searchable field.
type Key struct {
	Name   string
	Weight float64
	Values func(doc *document.SearchableDocument) []string
}

// DefaultKeys are the fields every engine indexes unless told otherwise.
var DefaultKeys = []Key{
	{Name: "title", Weight: 2, Values: func(d *document.SearchableDocument) []string { return []string{d.Title} }},
	{Name: "content", Weight: 2, Values: func(d *document.SearchableDocument) []string { return []string{d.Content} }},
	{Name: "metadata.author", Weight: 1, Values: func(d *document.SearchableDocument) []string { return d.Metadata.Author }},
	{Name: "metadata.categories", Weight: 1, Values: func(d *document.SearchableDocument) []string { return d.Metadata.Categories }},
	{Name: "metadata.tags", Weight: 1, Values: func(d *document.SearchableDocument) []string { return d.Metadata.Tags }},
}

// Query describes one search.
type Query struct {
	Text    string
	Filters Filters
	Limit   int // <= 0 means DefaultLimit
	Page    int // 0-based; negative means 0
}

// Match locates query hits inside one field value. Indices are inclusive
// byte ranges into Value.
type Match struct {
	Key     string   `json:"key"`
	Value   string   `json:"value"`
	Indices [][2]int `json:"indices"`
}

// Result is one ranked document. Lower scores are better.
type Result struct {
	Document document.SearchableDocument `json:"document"`
	Score    float64                     `json:"score"`
	Matches  []Match                     `json:"matches,omitempty"`
}

// Page is one page of results plus the number of results across all pages.
type Page struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
}

// Engine answers queries over a fixed document set.
type Engine struct {
	docs      []document.SearchableDocument
	keys      []*indexedKey
	threshold float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithThreshold sets the per-key match threshold in [0,1].
func WithThreshold(t float64) Option {
	return func(e *Engine) {
		if t >= 0 && t <= 1 {
			e.threshold = t
		}
	}
}

// WithKeys replaces the indexed fields.
func WithKeys(keys ...Key) Option {
	return func(e *Engine) { e.keys = indexKeys(keys, e.docs) }
}

// indexedKey flattens one field across the corpus so it can be handed to the
// fuzzy matcher. Array fields contribute one entry per element.
type indexedKey struct {
	name   string
	weight float64 // normalised so all weights sum to 1
	values []string
	owners []int     // owners[i] is the document index of values[i]
	norms  []float64 // field-length norm of values[i]
}

func (k *indexedKey) String(i int) string { return k.values[i] }
func (k *indexedKey) Len() int            { return len(k.values) }

// NewEngine indexes docs. A nil or empty slice yields an engine that answers
// every query with no results.
func NewEngine(docs []document.SearchableDocument, opts ...Option) *Engine {
	e := &Engine{
		docs:      docs,
		threshold: DefaultThreshold,
	}
	e.keys = indexKeys(DefaultKeys, docs)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func indexKeys(keys []Key, docs []document.SearchableDocument) []*indexedKey {
	var total float64
	for _, k := range keys {
		total += k.Weight
	}

	out := make([]*indexedKey, 0, len(keys))
	for _, k := range keys {
		ik := &indexedKey{name: k.Name}
		if total > 0 {
			ik.weight = k.Weight / total
		}
		for i := range docs {
			for _, v := range k.Values(&docs[i]) {
				if v == "" {
					continue
				}
				ik.values = append(ik.values, v)
				ik.owners = append(ik.owners, i)
				ik.norms = append(ik.norms, fieldNorm(v))
			}
		}
		out = append(out, ik)
	}
	return out
}

// Len returns the number of indexed documents.
func (e *Engine) Len() int {
	return len(e.docs)
}

// Search returns the requested page of results.
func (e *Engine) Search(q Query) []Result {
	return e.Execute(q).Results
}

// Execute runs q: match (or browse all for empty text), filter, then page.
func (e *Engine) Execute(q Query) Page {
	var results []Result
	if text := strings.TrimSpace(q.Text); text == "" {
		results = make([]Result, len(e.docs))
		for i, doc := range e.docs {
			results[i] = Result{Document: doc, Score: browseScore}
		}
	} else {
		results = e.match(text)
	}

	results = q.Filters.apply(results)
	return paginate(results, q.Limit, q.Page)
}

type keyHit struct {
	score float64 // 0 is perfect
	norm  float64
	match Match
}

func (e *Engine) match(pattern string) []Result {
	// hits[doc][key] is the best hit of key in doc.
	hits := make(map[int][]*keyHit)
	var order []int

	for ki, key := range e.keys {
		for _, m := range fuzzy.FindFrom(pattern, key) {
			s := keyScore(pattern, m)
			if s > e.threshold {
				continue
			}
			doc := key.owners[m.Index]
			byKey, ok := hits[doc]
			if !ok {
				byKey = make([]*keyHit, len(e.keys))
				hits[doc] = byKey
				order = append(order, doc)
			}
			if prev := byKey[ki]; prev != nil && prev.score <= s {
				continue
			}
			byKey[ki] = &keyHit{
				score: s,
				norm:  key.norms[m.Index],
				match: Match{Key: key.name, Value: m.Str, Indices: ranges(m.MatchedIndexes, m.Str)},
			}
		}
	}

	sort.Ints(order)
	results := make([]Result, 0, len(order))
	for _, doc := range order {
		total := 1.0
		var matches []Match
		for ki, hit := range hits[doc] {
			if hit == nil {
				continue
			}
			s := hit.score
			if s == 0 {
				s = epsilon
			}
			total *= math.Pow(s, e.keys[ki].weight*hit.norm)
			matches = append(matches, hit.match)
		}
		results = append(results, Result{Document: e.docs[doc], Score: total, Matches: matches})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	return results
}

// keyScore rates one fuzzy match in [0,1], 0 being perfect. A literal
// (case-insensitive) occurrence of the pattern is perfect; otherwise the
// score reflects how scattered the matched characters are. Match position
// does not matter.
func keyScore(pattern string, m fuzzy.Match) float64 {
	if strings.Contains(strings.ToLower(m.Str), strings.ToLower(pattern)) {
		return 0
	}
	n := len(m.MatchedIndexes)
	if n < 2 {
		return 0
	}
	adjacent := 0
	for i := 1; i < n; i++ {
		prev := m.MatchedIndexes[i-1]
		_, size := utf8.DecodeRuneInString(m.Str[prev:])
		if m.MatchedIndexes[i] == prev+size {
			adjacent++
		}
	}
	return 1 - float64(adjacent)/float64(n-1)
}

// fieldNorm weakens matches in long values: 1/sqrt(tokens), three decimals.
func fieldNorm(v string) float64 {
	tokens := len(strings.Fields(v))
	if tokens == 0 {
		tokens = 1
	}
	return math.Round(1/math.Sqrt(float64(tokens))*1000) / 1000
}

// ranges collapses matched byte offsets into inclusive [start,end] runs.
func ranges(indexes []int, s string) [][2]int {
	var out [][2]int
	for _, idx := range indexes {
		_, size := utf8.DecodeRuneInString(s[idx:])
		end := idx + size - 1
		if len(out) > 0 && out[len(out)-1][1]+1 == idx {
			out[len(out)-1][1] = end
			continue
		}
		out = append(out, [2]int{idx, end})
	}
	return out
}

func paginate(results []Result, limit, page int) Page {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if page < 0 {
		page = 0
	}

	p := Page{Results: []Result{}, Total: len(results)}
	start := page * limit
	if start >= len(results) {
		return p
	}
	end := min(start+limit, len(results))
	p.Results = results[start:end]
	return p
}
