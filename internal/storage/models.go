package storage

import "time"

// BuildRecord is one index build in the catalog.
type BuildRecord struct {
	ID           string // UUID
	ContentDir   string
	StartedAt    time.Time
	FinishedAt   time.Time
	FilesScanned int
	Documents    int // Records written
	Failures     int // Files that could not be read or transformed
}

// Duration reports how long the build took.
func (b *BuildRecord) Duration() time.Duration {
	return b.FinishedAt.Sub(b.StartedAt)
}
