package indexer

import (
	"strings"
	"time"
	"unicode/utf8"

	"ubreader/internal/document"
)

const (
	// ExcerptLength is the maximum excerpt length in runes.
	ExcerptLength = 200
	ellipsis      = "..."
	// excerptParagraphs is how many paragraphs the tree excerpt reads.
	excerptParagraphs = 2
)

// Builder projects transformed documents into searchable records.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a Builder. A nil clock means time.Now.
func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now}
}

// Build projects docs with the wall clock. See Builder.Build.
func Build(docs []*SourceDocument) []document.SearchableDocument {
	return NewBuilder(nil).Build(docs)
}

// Build returns one searchable record per non-nil entry of docs, in order.
// It never fails; missing fields degrade to defaults.
func (b *Builder) Build(docs []*SourceDocument) []document.SearchableDocument {
	builtAt := b.now().UTC().Format(time.RFC3339)

	out := make([]document.SearchableDocument, 0, len(docs))
	for _, doc := range docs {
		if doc == nil || doc.TransformedDocument == nil {
			continue
		}
		content := Content(doc.TransformedDocument)
		out = append(out, document.SearchableDocument{
			ID:          doc.ID,
			Title:       doc.Metadata.Title,
			Content:     content,
			Excerpt:     Excerpt(doc.TransformedDocument, content),
			Type:        Classify(doc.Path, doc.Metadata.Type),
			Metadata:    projectMetadata(doc.Metadata),
			Path:        doc.Path,
			LastUpdated: lastUpdated(doc, builtAt),
		})
	}
	return out
}

// Content returns the document's searchable text: the raw text when present,
// otherwise every node value joined by spaces with whitespace collapsed.
func Content(doc *document.TransformedDocument) string {
	if doc.Text != "" {
		return doc.Text
	}
	var values []string
	document.Walk(doc.Content, func(n *document.Node) bool {
		if n.Value != "" {
			values = append(values, n.Value)
		}
		return true
	})
	return strings.Join(strings.Fields(strings.Join(values, " ")), " ")
}

// Excerpt returns at most ExcerptLength runes summarising doc. When content
// is longer than ExcerptLength the excerpt always ends in "...".
func Excerpt(doc *document.TransformedDocument, content string) string {
	var raw string
	if doc.Text != "" {
		raw = strings.TrimSpace(doc.Text)
	} else {
		raw = treeExcerpt(doc.Content)
	}

	if utf8.RuneCountInString(raw) <= ExcerptLength && utf8.RuneCountInString(content) <= ExcerptLength {
		return raw
	}

	keep := ExcerptLength - len(ellipsis)
	runes := []rune(raw)
	if len(runes) > keep {
		runes = runes[:keep]
	}
	return strings.TrimRight(string(runes), " ") + ellipsis
}

// treeExcerpt reads the first paragraphs of the tree, stopping as soon as
// enough text is collected.
func treeExcerpt(root *document.Node) string {
	var (
		parts      []string
		runes      int
		paragraphs int
	)
	document.Walk(root, func(n *document.Node) bool {
		if n.Type != document.NodeParagraph {
			return true
		}
		var b strings.Builder
		for _, child := range n.Children {
			b.WriteString(document.TextContent(child))
		}
		text := strings.TrimSpace(b.String())
		if text != "" {
			parts = append(parts, text)
			runes += utf8.RuneCountInString(text)
		}
		paragraphs++
		return paragraphs < excerptParagraphs && runes < ExcerptLength
	})
	return strings.Join(parts, " ")
}

// Classify picks the document type. Path segments win over metadata.type so
// directory conventions route documents.
func Classify(path, metaType string) document.DocType {
	lower := strings.ToLower(path)
	for _, t := range []document.DocType{document.TypeScientific, document.TypePerplexity, document.TypeLectionary} {
		if strings.Contains(lower, string(t)) {
			return t
		}
	}
	switch t := document.DocType(metaType); t {
	case document.TypeScientific, document.TypePerplexity, document.TypeLectionary:
		return t
	}
	return document.TypePost
}

func projectMetadata(m document.Metadata) document.SearchMetadata {
	extra := make(map[string]any, len(m.Extra)+4)
	for k, v := range m.Extra {
		extra[k] = v
	}
	if m.Title != "" {
		extra["title"] = m.Title
	}
	if m.Subtitle != "" {
		extra["subtitle"] = m.Subtitle
	}
	if m.Type != "" {
		extra["type"] = m.Type
	}
	if m.RelatedContent != nil {
		extra["relatedContent"] = m.RelatedContent
	}
	// Known keys are typed fields; a non-list categories value is dropped.
	for _, k := range []string{"author", "date", "categories", "tags"} {
		delete(extra, k)
	}
	if len(extra) == 0 {
		extra = nil
	}

	sm := document.SearchMetadata{
		Author:     m.Author,
		Date:       m.Date,
		Categories: m.Categories,
		Tags:       m.Tags,
		Extra:      extra,
	}
	if sm.Categories == nil {
		sm.Categories = []string{}
	}
	if sm.Tags == nil {
		sm.Tags = []string{}
	}
	return sm
}

func lastUpdated(doc *SourceDocument, builtAt string) string {
	if doc.LastUpdated != "" {
		return doc.LastUpdated
	}
	if doc.Metadata.Date != "" {
		return doc.Metadata.Date
	}
	return builtAt
}
