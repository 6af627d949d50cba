package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ubreader/internal/contextutil"
	"ubreader/internal/corpus"
	"ubreader/internal/document"
	ext "ubreader/internal/extension"
	"ubreader/internal/storage"
	"ubreader/internal/transform"
)

// DefaultConcurrency bounds how many files are transformed at once.
const DefaultConcurrency = 4

// Pipeline rebuilds the search index from the content root: scan, transform,
// project, then save to every configured store.
type Pipeline struct {
	scanner     *corpus.Scanner
	transformer *transform.Transformer
	stores      []storage.IndexStore
	builds      storage.BuildStore
	registry    *ext.Registry
	concurrency int
	now         func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithBuildStore records every run in builds.
func WithBuildStore(builds storage.BuildStore) PipelineOption {
	return func(p *Pipeline) { p.builds = builds }
}

// WithHooks runs the registry's BeforeIndex hooks on each document.
func WithHooks(r *ext.Registry) PipelineOption {
	return func(p *Pipeline) { p.registry = r }
}

// WithConcurrency sets how many files are transformed in parallel.
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithPipelineClock overrides the build clock.
func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(scanner *corpus.Scanner, transformer *transform.Transformer, stores []storage.IndexStore, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		scanner:     scanner,
		transformer: transformer,
		stores:      stores,
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is the outcome of one pipeline run.
type Result struct {
	BuildID   string
	Documents []document.SearchableDocument
	Stats     Stats
}

// Run scans the content root and replaces the index in every store. Files
// that cannot be read or transformed are logged and skipped.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)
	startedAt := p.now()

	files, err := p.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan content: %w", err)
	}
	logger.InfoContext(ctx, "starting indexing", "total_files", len(files))

	sources, err := p.transformAll(ctx, files)
	if err != nil {
		return nil, err
	}

	docs := NewBuilder(p.now).Build(sources)
	if err := p.save(ctx, docs); err != nil {
		return nil, err
	}

	result := &Result{
		BuildID:   uuid.New().String(),
		Documents: docs,
		Stats:     ComputeStats(len(files), docs),
	}
	finishedAt := p.now()

	if p.builds != nil {
		build := &storage.BuildRecord{
			ID:           result.BuildID,
			ContentDir:   p.scanner.Root(),
			StartedAt:    startedAt,
			FinishedAt:   finishedAt,
			FilesScanned: len(files),
			Documents:    len(docs),
			Failures:     result.Stats.Failures,
		}
		if err := p.builds.Insert(ctx, build); err != nil {
			return nil, fmt.Errorf("failed to record build: %w", err)
		}
	}

	logger.InfoContext(ctx, "indexing completed",
		"build_id", result.BuildID,
		"total_files", len(files),
		"documents", len(docs),
		"errors", result.Stats.Failures,
		"duration", finishedAt.Sub(startedAt),
	)
	return result, nil
}

// transformAll loads files concurrently. Entry i of the result is nil when
// files[i] failed.
func (p *Pipeline) transformAll(ctx context.Context, files []corpus.ScannedFile) ([]*SourceDocument, error) {
	logger := contextutil.LoggerFromContext(ctx)
	sources := make([]*SourceDocument, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := p.load(file)
			if err != nil {
				logger.ErrorContext(gctx, "failed to index file", "rel_path", file.RelPath, "error", err)
				return nil
			}
			sources[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}

// load reads and transforms one file.
func (p *Pipeline) load(file corpus.ScannedFile) (*SourceDocument, error) {
	data, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", file.AbsPath, err)
	}

	doc, err := p.transformer.Transform(file.Format, data)
	if err != nil {
		return nil, fmt.Errorf("failed to transform %s: %w", file.RelPath, err)
	}
	if doc.Metadata.Title == "" {
		doc.Metadata.Title = extractTitleFromFilename(file.RelPath)
	}
	p.registry.RunHooks(ext.HookBeforeIndex, doc)

	src := &SourceDocument{
		TransformedDocument: doc,
		ID:                  DocumentID(file.RelPath),
		Path:                file.RelPath,
	}
	// Undated documents fall back to the file's modification time.
	if doc.Metadata.Date == "" && !file.ModTime.IsZero() {
		src.LastUpdated = file.ModTime.UTC().Format(time.RFC3339)
	}
	return src, nil
}

func (p *Pipeline) save(ctx context.Context, docs []document.SearchableDocument) error {
	var errs []error
	for _, store := range p.stores {
		if err := store.Save(ctx, docs); err != nil {
			errs = append(errs, fmt.Errorf("failed to save index to %T: %w", store, err))
		}
	}
	return errors.Join(errs...)
}

// DocumentID derives a stable id from the document's relative path so ids
// survive rebuilds.
func DocumentID(relPath string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(relPath)).String()
}

// extractTitleFromFilename turns "paper-1_notes.md" into "Paper 1 Notes".
func extractTitleFromFilename(filename string) string {
	name := filepath.Base(filename)
	if suffix := filepath.Ext(name); suffix != "" {
		name = name[:len(name)-len(suffix)]
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
