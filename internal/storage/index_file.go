package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ubreader/internal/document"
)

// IndexFile stores the index as a single JSON array, the artifact the
// search engine loads wholesale.
type IndexFile struct {
	path string
}

// NewIndexFile creates an IndexFile at path.
func NewIndexFile(path string) *IndexFile {
	return &IndexFile{path: path}
}

// Path returns the file location.
func (f *IndexFile) Path() string {
	return f.path
}

// Save writes docs atomically: a temp file in the same directory is renamed
// over the old index.
func (f *IndexFile) Save(ctx context.Context, docs []document.SearchableDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if docs == nil {
		docs = []document.SearchableDocument{}
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".search-index-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp index: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace index: %w", err)
	}
	return nil
}

// Load reads the index. A missing or empty file loads as an empty index.
func (f *IndexFile) Load(ctx context.Context) ([]document.SearchableDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return []document.SearchableDocument{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	if len(data) == 0 {
		return []document.SearchableDocument{}, nil
	}

	var docs []document.SearchableDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode index %s: %w", f.path, err)
	}
	if docs == nil {
		docs = []document.SearchableDocument{}
	}
	return docs, nil
}
