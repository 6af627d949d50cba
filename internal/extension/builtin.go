package extension

import (
	"fmt"
	"html"
	"strings"

	"ubreader/internal/document"
	"ubreader/internal/reference"
)

// HeaderComponent renders the document title block.
type HeaderComponent struct{}

// Slot implements Component.
func (HeaderComponent) Slot() Slot { return SlotDocumentHeader }

// Render implements Component.
func (HeaderComponent) Render(doc *document.TransformedDocument) string {
	m := doc.Metadata
	var b strings.Builder
	b.WriteString(`<header class="document-header">`)
	if m.Title != "" {
		b.WriteString("<h1>" + html.EscapeString(m.Title) + "</h1>")
	}
	if m.Subtitle != "" {
		b.WriteString(`<p class="subtitle">` + html.EscapeString(m.Subtitle) + "</p>")
	}
	var byline []string
	if len(m.Author) > 0 {
		byline = append(byline, html.EscapeString(m.Author.String()))
	}
	if m.Date != "" {
		byline = append(byline, `<time>`+html.EscapeString(m.Date)+`</time>`)
	}
	if len(byline) > 0 {
		b.WriteString(`<p class="byline">` + strings.Join(byline, " · ") + "</p>")
	}
	b.WriteString("</header>")
	return b.String()
}

// TOCComponent renders a nested list of the document's headings.
type TOCComponent struct {
	// MaxDepth limits the heading depth included; 0 means 3.
	MaxDepth int
}

// Slot implements Component.
func (TOCComponent) Slot() Slot { return SlotTableOfContents }

// Render implements Component.
func (c TOCComponent) Render(doc *document.TransformedDocument) string {
	maxDepth := c.MaxDepth
	if maxDepth == 0 {
		maxDepth = 3
	}

	var items []string
	document.Walk(doc.Content, func(n *document.Node) bool {
		if n.Type == document.NodeHeading && n.Depth <= maxDepth {
			text := strings.TrimSpace(document.TextContent(n))
			if text != "" {
				items = append(items, fmt.Sprintf(`<li class="toc-depth-%d">%s</li>`, n.Depth, html.EscapeString(text)))
			}
		}
		return true
	})
	if len(items) == 0 {
		return ""
	}
	return `<nav class="table-of-contents"><ul>` + strings.Join(items, "") + "</ul></nav>"
}

// Defaults returns the built-in page extension. When linkReferences is set
// it also links citations in rendered text to the reader at baseURL.
func Defaults(baseURL string, linkReferences bool) *Extension {
	ext := &Extension{
		Name:       "ub-reader",
		Components: []Component{HeaderComponent{}, TOCComponent{}},
	}
	if linkReferences {
		ext.Linker = reference.NewLinker(baseURL)
	}
	return ext
}

// RenderPage composes header, table of contents and content for doc. A
// registered ContentRenderer replaces doc.HTML.
func RenderPage(r *Registry, doc *document.TransformedDocument) string {
	var b strings.Builder
	b.WriteString(`<article class="ub-document">`)
	for _, c := range r.ComponentsBySlot(SlotDocumentHeader) {
		b.WriteString(c.Render(doc))
	}
	for _, c := range r.ComponentsBySlot(SlotTableOfContents) {
		b.WriteString(c.Render(doc))
	}
	content := doc.HTML
	if renderers := r.ComponentsBySlot(SlotContentRenderer); len(renderers) > 0 {
		content = renderers[len(renderers)-1].Render(doc)
	}
	b.WriteString(`<div class="content">` + content + "</div>")
	b.WriteString("</article>")
	return b.String()
}
