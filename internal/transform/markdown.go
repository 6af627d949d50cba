package transform

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"ubreader/internal/document"
)

// Markdown transforms Markdown with optional frontmatter. It never fails:
// malformed frontmatter yields empty metadata.
func (t *Transformer) Markdown(input string) *document.TransformedDocument {
	meta, body := t.frontmatterMetadata(input)
	source := []byte(body)

	root := t.parser.Parser().Parse(text.NewReader(source))
	content := convertNode(root, source)
	if content == nil || content.Type != document.NodeRoot {
		content = document.NewRoot()
	}

	if meta.Title == "" {
		meta.Title = firstHeading(content, 1)
	}

	var html bytes.Buffer
	if err := t.renderer.Convert(source, &html); err != nil {
		// goldmark only fails on writer errors; a bytes.Buffer never errors.
		t.logger.Warn("markdown render failed", "error", err)
	}

	doc := &document.TransformedDocument{
		Content:  content,
		Metadata: meta,
		HTML:     html.String(),
	}
	return t.finish(doc)
}

func (t *Transformer) frontmatterMetadata(input string) (document.Metadata, string) {
	block, body, ok := splitFrontmatter(input)
	if !ok {
		return document.Metadata{}, input
	}

	switch t.frontmatter {
	case FrontmatterYAML:
		fields, err := parseYAML(block)
		if err != nil {
			t.logger.Debug("ignoring malformed frontmatter", "error", err)
			return document.Metadata{}, body
		}
		return metadataFromFields(fields), body
	default:
		return metadataFromFields(parseFlat(block)), body
	}
}

// convertNode maps one goldmark node onto the canonical tree, copying only
// the attributes whitelisted per type.
func convertNode(n ast.Node, source []byte) *document.Node {
	switch v := n.(type) {
	case *ast.Document:
		return &document.Node{Type: document.NodeRoot, Children: convertChildren(n, source)}

	case *ast.Heading:
		return &document.Node{Type: document.NodeHeading, Depth: v.Level, Children: convertChildren(n, source)}

	case *ast.Paragraph, *ast.TextBlock:
		return &document.Node{Type: document.NodeParagraph, Children: convertChildren(n, source)}

	case *ast.Link:
		return &document.Node{
			Type:     document.NodeLink,
			URL:      string(v.Destination),
			Title:    string(v.Title),
			Children: convertChildren(n, source),
		}

	case *ast.AutoLink:
		url := string(v.URL(source))
		if v.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:") {
			url = "mailto:" + url
		}
		return &document.Node{
			Type:     document.NodeLink,
			URL:      url,
			Children: []*document.Node{document.Text(string(v.Label(source)))},
		}

	case *ast.Image:
		return &document.Node{
			Type:  document.NodeImage,
			URL:   string(v.Destination),
			Title: string(v.Title),
			Alt:   plainText(n, source),
		}

	case *ast.FencedCodeBlock:
		node := &document.Node{Type: document.NodeCode, Value: blockLines(n, source)}
		if v.Info != nil {
			info := strings.TrimSpace(string(v.Info.Segment.Value(source)))
			if lang, meta, found := strings.Cut(info, " "); found {
				node.Lang = lang
				node.Meta = strings.TrimSpace(meta)
			} else {
				node.Lang = info
			}
		}
		return node

	case *ast.CodeBlock:
		return &document.Node{Type: document.NodeCode, Value: blockLines(n, source)}

	case *ast.CodeSpan:
		return &document.Node{Type: document.NodeInlineCode, Value: plainText(n, source)}

	case *ast.List:
		node := &document.Node{Type: document.NodeList, Ordered: v.IsOrdered(), Children: convertChildren(n, source)}
		if v.IsOrdered() {
			start := v.Start
			node.Start = &start
		}
		return node

	case *ast.Emphasis:
		kind := document.NodeEmphasis
		if v.Level >= 2 {
			kind = document.NodeStrong
		}
		return &document.Node{Type: kind, Children: convertChildren(n, source)}

	case *east.Table:
		align := make([]string, len(v.Alignments))
		for i, a := range v.Alignments {
			if a != east.AlignNone {
				align[i] = a.String()
			}
		}
		return &document.Node{Type: document.NodeTable, Align: align, Children: convertChildren(n, source)}

	case *east.TableHeader, *east.TableRow:
		return &document.Node{Type: document.NodeTableRow, Children: convertChildren(n, source)}

	case *east.TableCell:
		return &document.Node{Type: document.NodeTableCell, Children: convertChildren(n, source)}

	case *east.Strikethrough:
		return &document.Node{Type: document.NodeDelete, Children: convertChildren(n, source)}

	case *ast.HTMLBlock, *ast.RawHTML:
		return &document.Node{Type: document.NodeHTML}

	default:
		// Unknown kinds keep their structure but no attributes.
		return &document.Node{Type: passThroughType(n.Kind().String()), Children: convertChildren(n, source)}
	}
}

// convertChildren converts n's children, merging runs of adjacent text
// segments into a single text node so values stay verbatim.
func convertChildren(n ast.Node, source []byte) []*document.Node {
	var out []*document.Node
	var pending *document.Node

	flush := func() {
		if pending != nil {
			out = append(out, pending)
			pending = nil
		}
	}
	appendText := func(s string) {
		if pending == nil {
			pending = document.Text(s)
			return
		}
		pending.Value += s
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			appendText(string(v.Segment.Value(source)))
			switch {
			case v.HardLineBreak():
				flush()
				out = append(out, &document.Node{Type: document.NodeBreak})
			case v.SoftLineBreak():
				appendText("\n")
			}
		case *ast.String:
			appendText(string(v.Value))
		default:
			flush()
			if node := convertNode(c, source); node != nil {
				out = append(out, node)
			}
		}
	}
	flush()
	return out
}

// plainText concatenates the text under n.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func blockLines(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(source))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// passThroughType turns a goldmark kind name such as "ListItem" into
// "listItem".
func passThroughType(kind string) document.NodeType {
	if kind == "" {
		return ""
	}
	r := []rune(kind)
	r[0] = unicode.ToLower(r[0])
	return document.NodeType(r)
}

func firstHeading(root *document.Node, depth int) string {
	var title string
	document.Walk(root, func(n *document.Node) bool {
		if n.Type == document.NodeHeading && n.Depth == depth {
			title = strings.TrimSpace(document.TextContent(n))
			return false
		}
		return true
	})
	return title
}
