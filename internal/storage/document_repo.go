package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"ubreader/internal/document"
)

// DocumentRepo keeps the searchable documents in SQLite so the catalog can
// be queried by type or id without loading the JSON index.
// It implements the IndexStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// DB returns the underlying database connection.
func (r *DocumentRepo) DB() *sql.DB {
	return r.db
}

// Save replaces every stored document with docs in one transaction.
func (r *DocumentRepo) Save(ctx context.Context, docs []document.SearchableDocument) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (id, path, title, type, content, excerpt, metadata, last_updated, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i, doc := range docs {
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for %s: %w", doc.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			doc.ID, doc.Path, doc.Title, string(doc.Type), doc.Content, doc.Excerpt, string(meta), doc.LastUpdated, i,
		); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", doc.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit documents: %w", err)
	}
	return nil
}

// Load returns all documents in saved order.
func (r *DocumentRepo) Load(ctx context.Context) ([]document.SearchableDocument, error) {
	return r.query(ctx,
		`SELECT id, path, title, type, content, excerpt, metadata, last_updated
		 FROM documents ORDER BY position`)
}

// ListByType returns the documents of one type in saved order.
func (r *DocumentRepo) ListByType(ctx context.Context, docType document.DocType) ([]document.SearchableDocument, error) {
	return r.query(ctx,
		`SELECT id, path, title, type, content, excerpt, metadata, last_updated
		 FROM documents WHERE type = ? ORDER BY position`, string(docType))
}

// GetByID gets a document by id. Returns ErrNotFound if not found.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*document.SearchableDocument, error) {
	docs, err := r.query(ctx,
		`SELECT id, path, title, type, content, excerpt, metadata, last_updated
		 FROM documents WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return &docs[0], nil
}

// CountByType returns the number of stored documents per type.
func (r *DocumentRepo) CountByType(ctx context.Context) (map[document.DocType]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT type, COUNT(*) FROM documents GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[document.DocType]int)
	for rows.Next() {
		var docType string
		var n int
		if err := rows.Scan(&docType, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[document.DocType(docType)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return counts, nil
}

func (r *DocumentRepo) query(ctx context.Context, query string, args ...any) ([]document.SearchableDocument, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := []document.SearchableDocument{}
	for rows.Next() {
		var (
			doc     document.SearchableDocument
			docType string
			meta    string
		)
		if err := rows.Scan(&doc.ID, &doc.Path, &doc.Title, &docType, &doc.Content, &doc.Excerpt, &meta, &doc.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Type = document.DocType(docType)
		if err := json.Unmarshal([]byte(meta), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", doc.ID, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}
