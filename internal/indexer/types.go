package indexer

import "ubreader/internal/document"

// SourceDocument is a transformed document together with the identity the
// indexer projects into the searchable record.
type SourceDocument struct {
	*document.TransformedDocument
	ID          string // Stable document id
	Path        string // Relative path, forward slashes (e.g. "papers/scientific/paper-1.md")
	LastUpdated string // Optional; overrides metadata.date when set
}
