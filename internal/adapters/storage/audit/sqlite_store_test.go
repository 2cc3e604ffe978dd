package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"academy/internal/adapters/storage"
	domain "academy/internal/domain/audit"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(db)
}

// TestSaveAndList verifies events round-trip and are ordered newest first.
func TestSaveAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	older := domain.NewEvent("console", domain.CategoryExport, domain.ActionDownload).
		WithResource("achievement", "a1")
	older.Timestamp = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	newer := domain.NewEvent("console", domain.CategoryCredential, domain.ActionStore)
	newer.Timestamp = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	for _, e := range []domain.Event{older, newer} {
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := store.List(ctx, Filter{}, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != newer.ID || got[1].ID != older.ID {
		t.Errorf("order = %s, %s", got[0].ID, got[1].ID)
	}
	if !got[1].Timestamp.Equal(older.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got[1].Timestamp, older.Timestamp)
	}
	if got[1].ResourceID != "a1" {
		t.Errorf("ResourceID = %q", got[1].ResourceID)
	}
}

// TestList_Filter verifies category, action and resource filters.
func TestList_Filter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.Save(ctx, domain.NewEvent("", domain.CategoryExport, domain.ActionDownload).WithResource("achievement", "a1"))
	store.Save(ctx, domain.NewEvent("", domain.CategoryExport, domain.ActionDownload).WithResource("achievement", "a2"))
	store.Save(ctx, domain.NewEvent("", domain.CategoryCredential, domain.ActionStore))

	export := domain.CategoryExport
	stored := domain.ActionStore
	a2 := "a2"
	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 3},
		{"category", Filter{Category: &export}, 2},
		{"action", Filter{Action: &stored}, 1},
		{"resource", Filter{ResourceID: &a2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter, 10)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

// TestSave_RequiresID verifies an event without an id is rejected.
func TestSave_RequiresID(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Save(context.Background(), domain.Event{}); err == nil {
		t.Error("expected error for empty id")
	}
}
