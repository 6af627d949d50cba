package indexer

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"ubreader/internal/document"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
}

func treeDoc(meta document.Metadata, children ...*document.Node) *document.TransformedDocument {
	return &document.TransformedDocument{Content: document.NewRoot(children...), Metadata: meta}
}

func TestBuild_SkipsNilEntries(t *testing.T) {
	docs := []*SourceDocument{
		nil,
		{TransformedDocument: treeDoc(document.Metadata{Title: "A"}), ID: "a", Path: "a.md"},
		{ID: "empty"},
	}
	got := NewBuilder(fixedNow).Build(docs)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("Build() = %+v, want only a", got)
	}
}

func TestBuild_Projection(t *testing.T) {
	meta := document.Metadata{
		Title:  "Paper 1",
		Author: document.Author{"Ann"},
		Date:   "2024-01-15",
		Tags:   []string{"ub"},
		Type:   "post",
		Extra:  map[string]any{"series": "UB", "categories": "not-a-list"},
	}
	src := &SourceDocument{
		TransformedDocument: treeDoc(meta,
			document.Heading(1, "Paper 1"),
			document.Paragraph(document.Text("The  Universal\nFather.")),
		),
		ID:   "id-1",
		Path: "papers/scientific/paper-1.md",
	}

	got := NewBuilder(fixedNow).Build([]*SourceDocument{src})[0]

	want := document.SearchableDocument{
		ID:      "id-1",
		Title:   "Paper 1",
		Content: "Paper 1 The Universal Father.",
		Excerpt: "The  Universal\nFather.",
		Type:    document.TypeScientific,
		Metadata: document.SearchMetadata{
			Author:     document.Author{"Ann"},
			Date:       "2024-01-15",
			Categories: []string{},
			Tags:       []string{"ub"},
			Extra:      map[string]any{"series": "UB", "title": "Paper 1", "type": "post"},
		},
		Path:        "papers/scientific/paper-1.md",
		LastUpdated: "2024-01-15",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_TextDocument(t *testing.T) {
	text := "  Q?\n\nAnswer.  "
	src := &SourceDocument{
		TransformedDocument: &document.TransformedDocument{
			Content:  document.NewRoot(document.Heading(1, "ignored")),
			Metadata: document.Metadata{Title: "Q?"},
			Text:     text,
		},
		ID:   "p",
		Path: "perplexity/q.txt",
	}
	got := NewBuilder(fixedNow).Build([]*SourceDocument{src})[0]

	if got.Content != text {
		t.Errorf("Content = %q, want verbatim text", got.Content)
	}
	if got.Excerpt != "Q?\n\nAnswer." {
		t.Errorf("Excerpt = %q, want trimmed text", got.Excerpt)
	}
	if got.Type != document.TypePerplexity {
		t.Errorf("Type = %q, want perplexity", got.Type)
	}
	if got.LastUpdated != "2024-06-01T08:30:00Z" {
		t.Errorf("LastUpdated = %q, want build time", got.LastUpdated)
	}
	if got.Metadata.Categories == nil || got.Metadata.Tags == nil {
		t.Error("categories and tags must never be nil")
	}
}

func TestBuild_LastUpdatedPrecedence(t *testing.T) {
	src := &SourceDocument{
		TransformedDocument: treeDoc(document.Metadata{Date: "2023-01-01"}),
		LastUpdated:         "2024-02-02T00:00:00Z",
	}
	got := NewBuilder(fixedNow).Build([]*SourceDocument{src})[0]
	if got.LastUpdated != "2024-02-02T00:00:00Z" {
		t.Errorf("LastUpdated = %q, want explicit value", got.LastUpdated)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		metaType string
		want     document.DocType
	}{
		{"path wins over metadata", "content/Scientific/x.md", "post", document.TypeScientific},
		{"perplexity path", "perplexity/q.json", "", document.TypePerplexity},
		{"lectionary path", "lectionary/2024.md", "scientific", document.TypeLectionary},
		{"metadata fallback", "posts/x.md", "lectionary", document.TypeLectionary},
		{"unknown metadata", "posts/x.md", "essay", document.TypePost},
		{"default", "x.md", "", document.TypePost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.path, tt.metaType); got != tt.want {
				t.Errorf("Classify(%q, %q) = %q, want %q", tt.path, tt.metaType, got, tt.want)
			}
		})
	}
}

func TestExcerpt_Bound(t *testing.T) {
	long := strings.Repeat("word ", 100)
	tests := []struct {
		name string
		doc  *document.TransformedDocument
	}{
		{
			name: "long text",
			doc:  &document.TransformedDocument{Content: document.NewRoot(), Text: long},
		},
		{
			name: "long first paragraph",
			doc:  treeDoc(document.Metadata{}, document.Paragraph(document.Text(long))),
		},
		{
			name: "short paragraphs long content",
			doc: treeDoc(document.Metadata{},
				document.Paragraph(document.Text("Short.")),
				document.Paragraph(document.Text("Also short.")),
				document.Paragraph(document.Text(long)),
			),
		},
		{
			name: "multibyte",
			doc:  treeDoc(document.Metadata{}, document.Paragraph(document.Text(strings.Repeat("é", 300)))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := Content(tt.doc)
			got := Excerpt(tt.doc, content)
			if n := utf8.RuneCountInString(got); n > ExcerptLength {
				t.Errorf("Excerpt() length = %d, want <= %d", n, ExcerptLength)
			}
			if utf8.RuneCountInString(content) > ExcerptLength && !strings.HasSuffix(got, "...") {
				t.Errorf("Excerpt() = %q, want trailing ellipsis", got)
			}
		})
	}
}

func TestExcerpt_FirstTwoParagraphs(t *testing.T) {
	doc := treeDoc(document.Metadata{},
		document.Heading(1, "Title"),
		document.Paragraph(document.Text("One "), &document.Node{Type: document.NodeEmphasis, Children: []*document.Node{document.Text("two")}}),
		document.Paragraph(document.Text("Three.")),
		document.Paragraph(document.Text("Never read.")),
	)
	got := Excerpt(doc, "short")
	if got != "One two Three." {
		t.Errorf("Excerpt() = %q, want first two paragraphs", got)
	}
}

func TestExcerpt_ReadsInlineDescendants(t *testing.T) {
	doc := treeDoc(document.Metadata{},
		document.Paragraph(
			document.Text("Read "),
			document.Link("https://example.org/paper", "the paper"),
			document.Text(" and run "),
			&document.Node{Type: document.NodeInlineCode, Value: "go test"},
			&document.Node{Type: document.NodeImage, URL: "/fig.png", Alt: "figure"},
			document.Text("."),
		),
	)
	got := Excerpt(doc, "short")
	if got != "Read the paper and run go test." {
		t.Errorf("Excerpt() = %q, want link labels and inline code without URLs", got)
	}
}

func TestContent_CollapsesWhitespace(t *testing.T) {
	doc := treeDoc(document.Metadata{},
		document.Heading(2, "  Head "),
		&document.Node{Type: document.NodeCode, Value: "x := 1\n\ty := 2"},
	)
	if got := Content(doc); got != "Head x := 1 y := 2" {
		t.Errorf("Content() = %q", got)
	}
}
