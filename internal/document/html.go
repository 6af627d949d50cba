package document

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// NodeRenderFunc renders a node itself. The renderChildren callback renders
// the node's children with the same configuration.
type NodeRenderFunc func(n *Node, renderChildren func() string) string

// RenderOptions configures RenderHTML.
type RenderOptions struct {
	// Override returns a custom renderer for a node type, if any.
	Override func(NodeType) (NodeRenderFunc, bool)
	// Text renders the value of a text node that is not inside a link. It
	// must return escaped HTML. Nil means html.EscapeString.
	Text func(value string) string
}

// RenderHTML renders a canonical tree to HTML. It is used for documents that
// do not come with their own renderer output (Perplexity, DOCX).
func RenderHTML(n *Node, opts RenderOptions) string {
	var b strings.Builder
	renderNode(&b, n, opts, false)
	return b.String()
}

func renderNode(b *strings.Builder, n *Node, opts RenderOptions, inLink bool) {
	if n == nil {
		return
	}
	childInLink := inLink || n.Type == NodeLink
	children := func() string {
		var cb strings.Builder
		for _, c := range n.Children {
			renderNode(&cb, c, opts, childInLink)
		}
		return cb.String()
	}
	if opts.Override != nil {
		if fn, ok := opts.Override(n.Type); ok {
			b.WriteString(fn(n, children))
			return
		}
	}

	switch n.Type {
	case NodeRoot:
		for i, c := range n.Children {
			if i > 0 {
				b.WriteByte('\n')
			}
			renderNode(b, c, opts, inLink)
		}
	case NodeText:
		if opts.Text != nil && !inLink {
			b.WriteString(opts.Text(n.Value))
		} else {
			b.WriteString(html.EscapeString(n.Value))
		}
	case NodeHeading:
		depth := n.Depth
		if depth < 1 || depth > 6 {
			depth = 1
		}
		fmt.Fprintf(b, "<h%d>%s</h%d>", depth, children(), depth)
	case NodeParagraph:
		fmt.Fprintf(b, "<p>%s</p>", children())
	case NodeLink:
		b.WriteString(`<a href="` + html.EscapeString(n.URL) + `"`)
		if n.Title != "" {
			b.WriteString(` title="` + html.EscapeString(n.Title) + `"`)
		}
		b.WriteString(">" + children() + "</a>")
	case NodeImage:
		b.WriteString(`<img src="` + html.EscapeString(n.URL) + `" alt="` + html.EscapeString(n.Alt) + `"`)
		if n.Title != "" {
			b.WriteString(` title="` + html.EscapeString(n.Title) + `"`)
		}
		b.WriteString(">")
	case NodeCode:
		class := ""
		if n.Lang != "" {
			class = ` class="language-` + html.EscapeString(n.Lang) + `"`
		}
		fmt.Fprintf(b, "<pre><code%s>%s</code></pre>", class, html.EscapeString(n.Value))
	case NodeInlineCode:
		b.WriteString("<code>" + html.EscapeString(n.Value) + "</code>")
	case NodeList:
		tag := "ul"
		attrs := ""
		if n.Ordered {
			tag = "ol"
			if n.Start != nil && *n.Start != 1 {
				attrs = ` start="` + strconv.Itoa(*n.Start) + `"`
			}
		}
		fmt.Fprintf(b, "<%s%s>%s</%s>", tag, attrs, children(), tag)
	case NodeListItem:
		b.WriteString("<li>" + children() + "</li>")
	case NodeTable:
		b.WriteString("<table>" + children() + "</table>")
	case NodeTableRow:
		b.WriteString("<tr>" + children() + "</tr>")
	case NodeTableCell:
		b.WriteString("<td>" + children() + "</td>")
	case NodeEmphasis:
		b.WriteString("<em>" + children() + "</em>")
	case NodeStrong:
		b.WriteString("<strong>" + children() + "</strong>")
	case NodeDelete:
		b.WriteString("<del>" + children() + "</del>")
	case NodeBlockquote:
		b.WriteString("<blockquote>" + children() + "</blockquote>")
	case NodeThematicBreak:
		b.WriteString("<hr>")
	case NodeBreak:
		b.WriteString("<br>")
	default:
		b.WriteString(children())
	}
}
