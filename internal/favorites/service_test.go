package favorites

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:reginald_favorites_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Favorite{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	service, err := NewService(ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service
}

func TestToggleRoundTrip(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	// Seed four other readers so the scenario starts at count 4.
	for i := 0; i < 4; i++ {
		if _, err := service.Toggle(ctx, "article-x", fmt.Sprintf("reader-%d", i)); err != nil {
			t.Fatalf("unexpected seed error: %v", err)
		}
	}

	status, err := service.Toggle(ctx, "article-x", "author-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.Favorited || status.Count != 5 {
		t.Fatalf("expected favorited with count 5, got %+v", status)
	}

	status, err = service.Toggle(ctx, "article-x", "author-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Favorited || status.Count != 4 {
		t.Fatalf("expected not-favorited with count 4, got %+v", status)
	}
}

func TestToggleKeepsAtMostOneEntryPerPair(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := service.Toggle(ctx, "article-x", "reader-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	status, err := service.StatusFor(ctx, "article-x", "reader-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.Favorited || status.Count != 1 {
		t.Fatalf("odd number of toggles should leave one entry, got %+v", status)
	}
}

func TestStatusForAnonymousViewer(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if _, err := service.Toggle(ctx, "article-x", "reader-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, err := service.StatusFor(ctx, "article-x", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Favorited {
		t.Fatalf("anonymous viewer must read as not-favorited")
	}
	if status.Count != 1 {
		t.Fatalf("anonymous viewer still sees the aggregate count, got %d", status.Count)
	}
}

func TestStatusForDistinguishesViewers(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if _, err := service.Toggle(ctx, "article-x", "reader-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mine, err := service.StatusFor(ctx, "article-x", "reader-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	theirs, err := service.StatusFor(ctx, "article-x", "reader-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mine.Favorited || theirs.Favorited {
		t.Fatalf("membership read leaked across viewers: mine=%+v theirs=%+v", mine, theirs)
	}
}

func TestToggleRequiresIdentifiers(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if _, err := service.Toggle(ctx, "", "reader-1"); !errors.Is(err, ErrMissingArticle) {
		t.Fatalf("expected ErrMissingArticle, got %v", err)
	}
	if _, err := service.Toggle(ctx, "article-x", ""); !errors.Is(err, ErrMissingUser) {
		t.Fatalf("expected ErrMissingUser, got %v", err)
	}
}

func TestCountForTracksLedgerCardinality(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := service.Toggle(ctx, "article-x", fmt.Sprintf("reader-%d", i)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	count, err := service.CountFor(ctx, "article-x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("unexpected count %d", count)
	}
}
