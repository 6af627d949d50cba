package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_stores.go -package=mocks ubreader/internal/storage IndexStore,BuildStore,DocumentCatalog

import (
	"context"
	"errors"

	"ubreader/internal/document"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// IndexStore persists the full searchable document set. Save replaces
// whatever was stored before; there is no incremental update.
type IndexStore interface {
	// Save replaces the stored index with docs.
	Save(ctx context.Context, docs []document.SearchableDocument) error
	// Load returns the stored index in saved order. An index that was never
	// saved loads as empty.
	Load(ctx context.Context) ([]document.SearchableDocument, error)
}

// BuildStore records index builds.
type BuildStore interface {
	// Insert stores a finished build. build.ID must be set.
	Insert(ctx context.Context, build *BuildRecord) error
	// Latest returns the most recently started build, or ErrNotFound.
	Latest(ctx context.Context) (*BuildRecord, error)
}

// DocumentCatalog serves individual documents from the last saved index.
type DocumentCatalog interface {
	// GetByID returns one document, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*document.SearchableDocument, error)
	// ListByType returns documents of one type in saved order.
	ListByType(ctx context.Context, docType document.DocType) ([]document.SearchableDocument, error)
	// CountByType returns the number of stored documents per type.
	CountByType(ctx context.Context) (map[document.DocType]int, error)
}
