// Package app wires configuration into the storage, transform, indexing and
// search components shared by the API server and the CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ubreader/internal/config"
	"ubreader/internal/corpus"
	ext "ubreader/internal/extension"
	"ubreader/internal/indexer"
	"ubreader/internal/service"
	"ubreader/internal/storage"
	"ubreader/internal/transform"
)

// App holds the long-lived components built from a Config.
type App struct {
	Config      *config.Config
	DB          *sql.DB
	IndexFile   *storage.IndexFile
	Catalog     *storage.DocumentRepo
	Builds      *storage.BuildRepo
	Registry    *ext.Registry
	Transformer *transform.Transformer
	Pipeline    *indexer.Pipeline
	Search      service.SearchService
}

// New opens the database, runs migrations and wires the components. The
// caller must Close the App.
func New(cfg *config.Config) (*App, error) {
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	reg, t, err := NewTransformer(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{
		Config:      cfg,
		DB:          db,
		IndexFile:   storage.NewIndexFile(cfg.IndexPath),
		Catalog:     storage.NewDocumentRepo(db),
		Builds:      storage.NewBuildRepo(db),
		Registry:    reg,
		Transformer: t,
	}

	a.Pipeline = indexer.NewPipeline(
		corpus.NewScanner(cfg.ContentDir),
		a.Transformer,
		[]storage.IndexStore{a.IndexFile, a.Catalog},
		indexer.WithBuildStore(a.Builds),
		indexer.WithHooks(reg),
		indexer.WithConcurrency(cfg.BuildConcurrency),
	)
	a.Search = service.NewSearchService(a.IndexFile, a.Pipeline)
	return a, nil
}

// NewTransformer builds the extension registry with the default reader
// extension and a transformer that renders through it.
func NewTransformer(cfg *config.Config) (*ext.Registry, *transform.Transformer, error) {
	reg := ext.NewRegistry()
	if err := reg.Register(ext.Defaults(cfg.ReaderBaseURL, true)); err != nil {
		return nil, nil, err
	}
	t := transform.New(
		transform.WithFrontmatterMode(cfg.FrontmatterMode),
		transform.WithRegistry(reg),
	)
	return reg, t, nil
}

// Warm loads the saved index into the search service. When no build has
// ever been recorded it rebuilds instead. It reports whether a rebuild ran.
func (a *App) Warm(ctx context.Context) (bool, error) {
	_, err := a.Builds.Latest(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if _, err := a.Search.Rebuild(ctx); err != nil {
			return true, err
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("failed to read build history: %w", err)
	}
	return false, a.Search.Reload(ctx)
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}
