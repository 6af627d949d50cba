package transform

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ubreader/internal/document"
	ext "ubreader/internal/extension"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path   string
		want   Format
		wantOK bool
	}{
		{"papers/paper-1.md", FormatMarkdown, true},
		{"notes/A.MARKDOWN", FormatMarkdown, true},
		{"perplexity/q.json", FormatPerplexity, true},
		{"perplexity/q.txt", FormatPerplexity, true},
		{"doc/report.docx", FormatDOCX, true},
		{"image.png", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := DetectFormat(tt.path)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("DetectFormat(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMarkdown_Structure(t *testing.T) {
	input := "# Title\n\nFirst para\nsecond line.\n\n## Sub\n\n- a\n- b\n\n```go title\nx := 1\n```\n"
	doc := New().Markdown(input)

	want := &document.Node{
		Type: document.NodeRoot,
		Children: []*document.Node{
			{Type: document.NodeHeading, Depth: 1, Children: []*document.Node{document.Text("Title")}},
			{Type: document.NodeParagraph, Children: []*document.Node{document.Text("First para\nsecond line.")}},
			{Type: document.NodeHeading, Depth: 2, Children: []*document.Node{document.Text("Sub")}},
			{Type: document.NodeList, Children: []*document.Node{
				{Type: document.NodeListItem, Children: []*document.Node{
					{Type: document.NodeParagraph, Children: []*document.Node{document.Text("a")}},
				}},
				{Type: document.NodeListItem, Children: []*document.Node{
					{Type: document.NodeParagraph, Children: []*document.Node{document.Text("b")}},
				}},
			}},
			{Type: document.NodeCode, Lang: "go", Meta: "title", Value: "x := 1"},
		},
	}

	if diff := cmp.Diff(want, doc.Content); diff != "" {
		t.Errorf("Markdown() content mismatch (-want +got):\n%s", diff)
	}
	if doc.Metadata.Title != "Title" {
		t.Errorf("Metadata.Title = %q, want first heading", doc.Metadata.Title)
	}
	if !strings.Contains(doc.HTML, "<h1>Title</h1>") || !strings.Contains(doc.HTML, "<li>a</li>") {
		t.Errorf("HTML = %q, want rendered markdown", doc.HTML)
	}
	if doc.Text != "" {
		t.Errorf("Text = %q, want empty for markdown", doc.Text)
	}
}

func TestMarkdown_Inline(t *testing.T) {
	input := "See [the *docs*](http://x \"Docs\") and ![alt text](img.png) with `code`.\n"
	doc := New().Markdown(input)

	if len(doc.Content.Children) != 1 {
		t.Fatalf("root children = %d, want 1", len(doc.Content.Children))
	}
	para := doc.Content.Children[0]

	var link, image, code *document.Node
	for _, c := range para.Children {
		switch c.Type {
		case document.NodeLink:
			link = c
		case document.NodeImage:
			image = c
		case document.NodeInlineCode:
			code = c
		}
	}

	if link == nil || link.URL != "http://x" || link.Title != "Docs" {
		t.Fatalf("link = %+v", link)
	}
	if len(link.Children) != 2 || link.Children[1].Type != document.NodeEmphasis {
		t.Errorf("link children = %+v, want text + emphasis", link.Children)
	}
	if image == nil || image.URL != "img.png" || image.Alt != "alt text" || len(image.Children) != 0 {
		t.Errorf("image = %+v", image)
	}
	if code == nil || code.Value != "code" {
		t.Errorf("inlineCode = %+v", code)
	}
}

func TestMarkdown_Table(t *testing.T) {
	doc := New().Markdown("| a | b |\n|:--|--:|\n| 1 | 2 |\n")

	if len(doc.Content.Children) != 1 {
		t.Fatalf("root children = %d, want 1", len(doc.Content.Children))
	}
	table := doc.Content.Children[0]
	if table.Type != document.NodeTable {
		t.Fatalf("type = %q, want table", table.Type)
	}
	if diff := cmp.Diff([]string{"left", "right"}, table.Align); diff != "" {
		t.Errorf("Align mismatch (-want +got):\n%s", diff)
	}
	if len(table.Children) != 2 || table.Children[0].Type != document.NodeTableRow {
		t.Fatalf("rows = %+v", table.Children)
	}
	if got := strings.TrimSpace(document.TextContent(table.Children[1].Children[1])); got != "2" {
		t.Errorf("cell text = %q, want 2", got)
	}
}

func TestMarkdown_FrontmatterIsolation(t *testing.T) {
	doc := New().Markdown("---\ntitle: X\n---\nBody")

	if doc.Metadata.Title != "X" {
		t.Errorf("Title = %q, want X", doc.Metadata.Title)
	}
	text := document.TextContent(doc.Content)
	if strings.Contains(text, "title") || strings.Contains(text, "---") {
		t.Errorf("content %q leaks frontmatter", text)
	}
	if text != "Body" {
		t.Errorf("content = %q, want Body", text)
	}
	if strings.Contains(doc.HTML, "title: X") {
		t.Errorf("HTML %q leaks frontmatter", doc.HTML)
	}
}

func TestMarkdown_FlatFrontmatter(t *testing.T) {
	input := "---\ntitle: Paper 1: The Universal Father\nauthor: Ann\ndate: 2024-02-01\ncategories: [a, b]\nno colon line\nseries: UB\ntype: scientific\n---\n# Heading\n"
	doc := New().Markdown(input)
	m := doc.Metadata

	if m.Title != "Paper 1: The Universal Father" {
		t.Errorf("Title = %q, split should happen at the first colon", m.Title)
	}
	if diff := cmp.Diff(document.Author{"Ann"}, m.Author); diff != "" {
		t.Errorf("Author mismatch (-want +got):\n%s", diff)
	}
	if m.Date != "2024-02-01" || m.Type != "scientific" {
		t.Errorf("Date/Type = %q/%q", m.Date, m.Type)
	}
	if m.Categories != nil {
		t.Errorf("Categories = %v, flat mode must not parse lists", m.Categories)
	}
	if m.Extra["categories"] != "[a, b]" || m.Extra["series"] != "UB" {
		t.Errorf("Extra = %v", m.Extra)
	}
}

func TestMarkdown_YAMLFrontmatter(t *testing.T) {
	input := "---\ntitle: \"Quoted\"\nauthor:\n  - Ann\n  - Bob\ntags: [x, y]\ncategories: single\n---\nBody\n"
	doc := New(WithFrontmatterMode(FrontmatterYAML)).Markdown(input)
	m := doc.Metadata

	if m.Title != "Quoted" {
		t.Errorf("Title = %q, want Quoted", m.Title)
	}
	if diff := cmp.Diff(document.Author{"Ann", "Bob"}, m.Author); diff != "" {
		t.Errorf("Author mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x", "y"}, m.Tags); diff != "" {
		t.Errorf("Tags mismatch (-want +got):\n%s", diff)
	}
	if m.Categories != nil || m.Extra["categories"] != "single" {
		t.Errorf("non-list categories should stay in Extra, got %v / %v", m.Categories, m.Extra)
	}
}

func TestMarkdown_MalformedFrontmatter(t *testing.T) {
	tests := []struct {
		name  string
		mode  FrontmatterMode
		input string
	}{
		{name: "unterminated block", mode: FrontmatterFlat, input: "---\ntitle: X\nBody without end\n"},
		{name: "invalid yaml", mode: FrontmatterYAML, input: "---\ntitle: [unclosed\n---\nBody\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := New(WithFrontmatterMode(tt.mode)).Markdown(tt.input)
			if doc == nil || doc.Content == nil {
				t.Fatal("Markdown() returned nil document")
			}
			if doc.Metadata.Title == "X" {
				t.Error("malformed frontmatter should not produce metadata")
			}
		})
	}
}

func TestMarkdown_EmptyFrontmatterBlock(t *testing.T) {
	doc := New().Markdown("---\n---\nBody")
	if got := document.TextContent(doc.Content); got != "Body" {
		t.Errorf("content = %q, want Body", got)
	}
}

func TestParseFrontmatterMode(t *testing.T) {
	if m, err := ParseFrontmatterMode("YAML"); err != nil || m != FrontmatterYAML {
		t.Errorf("ParseFrontmatterMode(YAML) = %v, %v", m, err)
	}
	if m, err := ParseFrontmatterMode(""); err != nil || m != FrontmatterFlat {
		t.Errorf("ParseFrontmatterMode(\"\") = %v, %v", m, err)
	}
	if _, err := ParseFrontmatterMode("toml"); err == nil {
		t.Error("ParseFrontmatterMode(toml) should fail")
	}
}

func TestPerplexity_Text(t *testing.T) {
	input := "Q?\n\nAnswer.\n\nSources:\nhttp://a\nhttp://b"
	doc := New(WithClock(fixedClock)).Perplexity(input)
	m := doc.Metadata

	if m.Title != "Q?" {
		t.Errorf("Title = %q, want Q?", m.Title)
	}
	if diff := cmp.Diff([]string{"http://a", "http://b"}, m.RelatedContent); diff != "" {
		t.Errorf("RelatedContent mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(document.Author{"Perplexity AI"}, m.Author); diff != "" {
		t.Errorf("Author mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"AI", "Perplexity"}, m.Categories); diff != "" {
		t.Errorf("Categories mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"perplexity", "ai-response"}, m.Tags); diff != "" {
		t.Errorf("Tags mismatch (-want +got):\n%s", diff)
	}
	if m.Date != "2024-03-01T12:00:00Z" {
		t.Errorf("Date = %q", m.Date)
	}
	if doc.Text != input {
		t.Errorf("Text = %q, want verbatim input", doc.Text)
	}

	want := document.NewRoot(
		document.Heading(1, "Q?"),
		document.Paragraph(document.Text("Answer.")),
		document.Heading(2, "Sources"),
		document.Paragraph(document.Link("http://a", "http://a")),
		document.Paragraph(document.Link("http://b", "http://b")),
	)
	if diff := cmp.Diff(want, doc.Content); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(doc.HTML, `<a href="http://a">http://a</a>`) {
		t.Errorf("HTML = %q", doc.HTML)
	}
}

func TestPerplexity_JSON(t *testing.T) {
	input := `{"question":"Who?","response":"One.\n\nTwo.","sources":["http://a",{"url":"http://b"}]}`
	doc := New().Perplexity(input)

	if doc.Metadata.Title != "Who?" {
		t.Errorf("Title = %q", doc.Metadata.Title)
	}
	if diff := cmp.Diff([]string{"http://a", "http://b"}, doc.Metadata.RelatedContent); diff != "" {
		t.Errorf("RelatedContent mismatch (-want +got):\n%s", diff)
	}
	// heading, two paragraphs, sources heading, two links
	if got := len(doc.Content.Children); got != 6 {
		t.Errorf("root children = %d, want 6", got)
	}
	if doc.Text != input {
		t.Error("Text should be the verbatim input")
	}
}

func TestPerplexity_Fallbacks(t *testing.T) {
	doc := New().Perplexity("   \n")
	if doc.Metadata.Title != DefaultPerplexityTitle {
		t.Errorf("Title = %q, want %q", doc.Metadata.Title, DefaultPerplexityTitle)
	}
	if doc.Metadata.RelatedContent == nil || len(doc.Metadata.RelatedContent) != 0 {
		t.Errorf("RelatedContent = %#v, want empty", doc.Metadata.RelatedContent)
	}
	for _, c := range doc.Content.Children {
		if c.Type == document.NodeHeading && document.TextContent(c) == "Sources" {
			t.Error("Sources heading should be omitted without sources")
		}
	}
}

func TestPerplexity_ListedSources(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  []string
	}{
		{
			name:  "list markers stripped",
			block: "1. https://x.org/a\n- http://y.org/b\n[3] https://z.org/c\n",
			want:  []string{"https://x.org/a", "http://y.org/b", "https://z.org/c"},
		},
		{
			name:  "lines without a url dropped",
			block: "1. https://x.org/a\n- plain-source\nSee also the appendix.\n",
			want:  []string{"https://x.org/a"},
		},
		{
			name:  "url after a label kept",
			block: "Wikipedia: https://en.wikipedia.org/wiki/Go\n",
			want:  []string{"https://en.wikipedia.org/wiki/Go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := New().Perplexity("Q\n\nA\n\nSources:\n" + tt.block)
			if diff := cmp.Diff(tt.want, doc.Metadata.RelatedContent); diff != "" {
				t.Errorf("RelatedContent mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func buildDOCX(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip Create() error = %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip Write() error = %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close() error = %v", err)
	}
	return buf.Bytes()
}

func TestDOCX(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Intro</w:t></w:r></w:p>
<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>world</w:t></w:r></w:p>
<w:p></w:p>
</w:body>
</w:document>`
	core := `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">
<dc:title>Report</dc:title><dc:creator>Ann</dc:creator><dcterms:modified>2024-01-02T00:00:00Z</dcterms:modified>
</cp:coreProperties>`

	data := buildDOCX(t, map[string]string{"word/document.xml": body, "docProps/core.xml": core})
	doc, err := New().DOCX(data)
	if err != nil {
		t.Fatalf("DOCX() error = %v", err)
	}

	want := document.NewRoot(
		document.Heading(1, "Intro"),
		document.Paragraph(document.Text("Hello world")),
	)
	if diff := cmp.Diff(want, doc.Content); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
	if doc.Metadata.Title != "Report" || doc.Metadata.Date != "2024-01-02T00:00:00Z" {
		t.Errorf("Metadata = %+v", doc.Metadata)
	}
	if diff := cmp.Diff(document.Author{"Ann"}, doc.Metadata.Author); diff != "" {
		t.Errorf("Author mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(doc.HTML, "<h1>Intro</h1>") {
		t.Errorf("HTML = %q", doc.HTML)
	}
}

func TestDOCX_Invalid(t *testing.T) {
	if _, err := New().DOCX([]byte("not a zip")); !errors.Is(err, ErrInvalidDOCX) {
		t.Errorf("DOCX() error = %v, want ErrInvalidDOCX", err)
	}
	data := buildDOCX(t, map[string]string{"other.xml": "<x/>"})
	if _, err := New().DOCX(data); !errors.Is(err, ErrInvalidDOCX) {
		t.Errorf("DOCX() without body error = %v, want ErrInvalidDOCX", err)
	}
}

func TestTransform_Dispatch(t *testing.T) {
	tr := New()
	doc, err := tr.Transform(FormatMarkdown, []byte("# A"))
	if err != nil || doc.Metadata.Title != "A" {
		t.Errorf("Transform(markdown) = %+v, %v", doc, err)
	}
	if _, err := tr.Transform(Format("rtf"), nil); err == nil {
		t.Error("Transform(rtf) should fail")
	}
}

func TestMarkdown_LinksReferencesInProseOnly(t *testing.T) {
	reg := ext.NewRegistry()
	if err := reg.Register(ext.Defaults("/books", true)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	tr := New(WithRegistry(reg))

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "phrase in prose",
			in:   "See Paper 1, Section 2.\n",
			want: `<p>See <a href="/books/paper/1/section/2" class="ub-reference">Paper 1, Section 2</a>.</p>`,
		},
		{
			name: "link destinations and labels untouched",
			in:   "See [the mirror](http://1.2.3.4:80/docs) and [Paper 3, Section 4](/x).\n",
			want: `<p>See <a href="http://1.2.3.4:80/docs">the mirror</a> and <a href="/x">Paper 3, Section 4</a>.</p>`,
		},
		{
			name: "autolink untouched",
			in:   "Mirror at <http://10.0.0.1:8080/docs> today.\n",
			want: `<p>Mirror at <a href="http://10.0.0.1:8080/docs">http://10.0.0.1:8080/docs</a> today.</p>`,
		},
		{
			name: "code untouched",
			in:   "Run `sleep 1:2` then read 3:4.\n",
			want: `<p>Run <code>sleep 1:2</code> then read <a href="/books/paper/3/section/4" class="ub-reference">3:4</a>.</p>`,
		},
		{
			name: "line break after a reference survives",
			in:   "read 3:4\nnext line\n",
			want: "<p>read <a href=\"/books/paper/3/section/4\" class=\"ub-reference\">3:4</a>\nnext line</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tr.Markdown(tt.in)
			if got := strings.TrimSpace(doc.HTML); got != tt.want {
				t.Errorf("HTML\n got %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestMarkdown_CanonicalTreeKeepsPlainText(t *testing.T) {
	reg := ext.NewRegistry()
	if err := reg.Register(ext.Defaults("/books", true)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	doc := New(WithRegistry(reg)).Markdown("See 1:2.\n")
	if got := document.TextContent(doc.Content); got != "See 1:2." {
		t.Errorf("TextContent() = %q, want the unlinked text", got)
	}
}

func TestPerplexity_LinksReferencesOutsideSources(t *testing.T) {
	reg := ext.NewRegistry()
	if err := reg.Register(ext.Defaults("/books", true)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	doc := New(WithRegistry(reg)).Perplexity("What is 1:2?\n\nSee Paper 3, Section 4.\n\nSources:\nhttp://10.0.0.1:8080/a\n")
	for _, want := range []string{
		`<a href="/books/paper/1/section/2" class="ub-reference">1:2</a>`,
		`<a href="/books/paper/3/section/4" class="ub-reference">Paper 3, Section 4</a>`,
		`<a href="http://10.0.0.1:8080/a">http://10.0.0.1:8080/a</a>`,
	} {
		if !strings.Contains(doc.HTML, want) {
			t.Errorf("HTML missing %q:\n%s", want, doc.HTML)
		}
	}
	if strings.Count(doc.HTML, "<a ") != 3 {
		t.Errorf("HTML has %d anchors, want 3:\n%s", strings.Count(doc.HTML, "<a "), doc.HTML)
	}
}
