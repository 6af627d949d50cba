package transform

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"ubreader/internal/reference"
)

var referenceClass = []byte("ub-reference")

// referenceLinks turns citations in Markdown text nodes into link nodes
// before rendering, so only prose is touched. Text under links, images and
// code is left alone.
type referenceLinks struct {
	linker func() *reference.Linker
}

// Transform implements parser.ASTTransformer.
func (r *referenceLinks) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	linker := r.linker()
	if linker == nil {
		return
	}
	source := reader.Source()

	var texts []*ast.Text
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindLink, ast.KindAutoLink, ast.KindImage, ast.KindCodeSpan,
			ast.KindCodeBlock, ast.KindFencedCodeBlock, ast.KindHTMLBlock, ast.KindRawHTML:
			return ast.WalkSkipChildren, nil
		case ast.KindText:
			texts = append(texts, n.(*ast.Text))
		}
		return ast.WalkContinue, nil
	})

	for _, t := range texts {
		linkText(t, source, linker)
	}
}

// linkText replaces t with text and link nodes covering the same segment.
func linkText(t *ast.Text, source []byte, linker *reference.Linker) {
	seg := t.Segment
	refs := reference.Linkable(string(seg.Value(source)))
	if len(refs) == 0 {
		return
	}

	parent := t.Parent()
	plain := func(start, stop int) *ast.Text {
		piece := ast.NewTextSegment(text.NewSegment(start, stop))
		piece.SetRaw(t.IsRaw())
		return piece
	}

	last := seg.Start
	for _, ref := range refs {
		start, stop := seg.Start+ref.Position.Start, seg.Start+ref.Position.End
		if start > last {
			parent.InsertBefore(parent, t, plain(last, start))
		}
		link := ast.NewLink()
		link.Destination = []byte(linker.URL(ref))
		link.SetAttributeString("class", referenceClass)
		link.AppendChild(link, plain(start, stop))
		parent.InsertBefore(parent, t, link)
		last = stop
	}

	// The trailing piece carries the original line break flags.
	tail := plain(last, seg.Stop)
	tail.SetSoftLineBreak(t.SoftLineBreak())
	tail.SetHardLineBreak(t.HardLineBreak())
	parent.InsertBefore(parent, t, tail)
	parent.RemoveChild(parent, t)
}
