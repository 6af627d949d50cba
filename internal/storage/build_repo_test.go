package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBuildRepo_InsertLatest(t *testing.T) {
	repo := NewBuildRepo(newTestDB(t).DB())
	ctx := context.Background()

	if _, err := repo.Latest(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest() on empty table error = %v, want ErrNotFound", err)
	}

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	builds := []*BuildRecord{
		{ID: "first", ContentDir: "/content", StartedAt: base, FinishedAt: base.Add(2 * time.Second), FilesScanned: 3, Documents: 2, Failures: 1},
		{ID: "second", ContentDir: "/content", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + 1500*time.Millisecond), FilesScanned: 4, Documents: 4},
	}
	for _, b := range builds {
		if err := repo.Insert(ctx, b); err != nil {
			t.Fatalf("Insert(%s) error = %v", b.ID, err)
		}
	}

	latest, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != "second" || latest.Documents != 4 || latest.FilesScanned != 4 {
		t.Errorf("Latest() = %+v, want second build", latest)
	}
	if !latest.StartedAt.Equal(builds[1].StartedAt) {
		t.Errorf("StartedAt = %v, want %v", latest.StartedAt, builds[1].StartedAt)
	}
	if got := latest.Duration(); got != 1500*time.Millisecond {
		t.Errorf("Duration() = %v, want 1.5s", got)
	}
}

func TestBuildRepo_InsertRequiresID(t *testing.T) {
	repo := NewBuildRepo(newTestDB(t).DB())
	if err := repo.Insert(context.Background(), &BuildRecord{}); err == nil {
		t.Error("Insert() without id should fail")
	}
}
