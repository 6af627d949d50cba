// Package transform normalises Markdown, Perplexity responses and DOCX files
// into the canonical document model.
package transform

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"

	"ubreader/internal/document"
	ext "ubreader/internal/extension"
	"ubreader/internal/reference"
)

// Format names a supported source format.
type Format string

const (
	FormatMarkdown   Format = "markdown"
	FormatPerplexity Format = "perplexity"
	FormatDOCX       Format = "docx"
)

// DetectFormat maps a file path to its source format by extension.
func DetectFormat(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdx":
		return FormatMarkdown, true
	case ".json", ".txt":
		return FormatPerplexity, true
	case ".docx":
		return FormatDOCX, true
	}
	return "", false
}

// Transformer converts source documents. It holds no per-call state and is
// safe for concurrent use.
type Transformer struct {
	frontmatter FrontmatterMode
	// parser produces the AST for the canonical tree; renderer produces html.
	// The two pipelines are deliberately independent.
	parser   goldmark.Markdown
	renderer goldmark.Markdown
	registry *ext.Registry
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithFrontmatterMode selects flat or YAML frontmatter parsing.
func WithFrontmatterMode(mode FrontmatterMode) Option {
	return func(t *Transformer) { t.frontmatter = mode }
}

// WithRegistry sets the registry whose node renderers and AfterTransform
// hooks apply to every transformed document.
func WithRegistry(r *ext.Registry) Option {
	return func(t *Transformer) { t.registry = r }
}

// WithClock overrides the time source used for generated dates.
func WithClock(now func() time.Time) Option {
	return func(t *Transformer) { t.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transformer) { t.logger = l }
}

// New creates a Transformer.
func New(opts ...Option) *Transformer {
	t := &Transformer{
		frontmatter: FrontmatterFlat,
		parser:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
		now:         time.Now,
		logger:      slog.Default(),
	}
	// The linker is looked up per render so later registrations apply.
	links := &referenceLinks{linker: func() *reference.Linker { return t.registry.Linker() }}
	t.renderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithASTTransformers(util.Prioritized(links, 1000))),
	)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform dispatches data to the transform for format.
func (t *Transformer) Transform(format Format, data []byte) (*document.TransformedDocument, error) {
	switch format {
	case FormatMarkdown:
		return t.Markdown(string(data)), nil
	case FormatPerplexity:
		return t.Perplexity(string(data)), nil
	case FormatDOCX:
		return t.DOCX(data)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// finish runs the registry's AfterTransform hooks.
func (t *Transformer) finish(doc *document.TransformedDocument) *document.TransformedDocument {
	t.registry.RunHooks(ext.HookAfterTransform, doc)
	return doc
}

func (t *Transformer) renderTree(root *document.Node) string {
	return document.RenderHTML(root, t.registry.RenderOptions())
}
