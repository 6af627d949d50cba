package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// timestampLayout has fixed-width fractions so stored values sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// BuildRepo provides methods for build history operations.
// It implements the BuildStore interface.
type BuildRepo struct {
	db *sql.DB
}

// NewBuildRepo creates a new BuildRepo.
func NewBuildRepo(db *sql.DB) *BuildRepo {
	return &BuildRepo{db: db}
}

// Insert stores a finished build. build.ID must be set.
func (r *BuildRepo) Insert(ctx context.Context, build *BuildRecord) error {
	if build.ID == "" {
		return errors.New("build id is required")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO builds (id, content_dir, started_at, finished_at, files_scanned, documents, failures)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		build.ID, build.ContentDir,
		build.StartedAt.UTC().Format(timestampLayout), build.FinishedAt.UTC().Format(timestampLayout),
		build.FilesScanned, build.Documents, build.Failures,
	)
	if err != nil {
		return fmt.Errorf("failed to insert build: %w", err)
	}
	return nil
}

// Latest returns the most recently started build.
// Returns nil and ErrNotFound if no build was recorded.
func (r *BuildRepo) Latest(ctx context.Context) (*BuildRecord, error) {
	var (
		build               BuildRecord
		startedAt, finished string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, content_dir, started_at, finished_at, files_scanned, documents, failures
		 FROM builds ORDER BY started_at DESC LIMIT 1`,
	).Scan(&build.ID, &build.ContentDir, &startedAt, &finished, &build.FilesScanned, &build.Documents, &build.Failures)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query build: %w", err)
	}

	if build.StartedAt, err = parseTimestamp(startedAt); err != nil {
		return nil, fmt.Errorf("failed to parse started_at timestamp: %w", err)
	}
	if build.FinishedAt, err = parseTimestamp(finished); err != nil {
		return nil, fmt.Errorf("failed to parse finished_at timestamp: %w", err)
	}
	return &build, nil
}

// parseTimestamp accepts RFC 3339 and SQLite's DATETIME layout.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
