package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestCompetitorRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCompetitorRepository(db)
	ctx := context.Background()

	c := &Competitor{Name: "Acme", Website: "https://acme.example.com"}
	if err := repo.CreateCompetitor(ctx, c); err != nil {
		t.Fatalf("CreateCompetitor failed: %v", err)
	}
	if c.ID == 0 {
		t.Error("CreateCompetitor should populate the ID")
	}

	got, err := repo.GetCompetitor(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCompetitor failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetCompetitor returned nil for existing competitor")
	}
	if got.Name != "Acme" {
		t.Errorf("Expected name 'Acme', got '%s'", got.Name)
	}
	if got.Status != CompetitorStatusActive {
		t.Errorf("Expected default status 'active', got '%s'", got.Status)
	}
	if got.LastChecked != nil {
		t.Error("New competitor should have no last checked timestamp")
	}
}

func TestCompetitorRepository_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCompetitorRepository(db)

	got, err := repo.GetCompetitor(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetCompetitor failed: %v", err)
	}
	if got != nil {
		t.Error("GetCompetitor should return nil for missing competitor")
	}
}

func TestCompetitorRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCompetitorRepository(db)
	ctx := context.Background()

	id1, err := repo.UpsertCompetitor(ctx, "Acme", "https://acme.example.com", "", true)
	if err != nil {
		t.Fatalf("UpsertCompetitor failed: %v", err)
	}

	id2, err := repo.UpsertCompetitor(ctx, "Acme", "https://acme.example.com/new", "https://acme.example.com/changelog", false)
	if err != nil {
		t.Fatalf("UpsertCompetitor (update) failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("Upsert of the same name should reuse the row, got %d and %d", id1, id2)
	}

	got, err := repo.GetCompetitor(ctx, id1)
	if err != nil {
		t.Fatalf("GetCompetitor failed: %v", err)
	}
	if got.Website != "https://acme.example.com/new" {
		t.Errorf("Website not updated, got '%s'", got.Website)
	}
	if got.Status != CompetitorStatusInactive {
		t.Errorf("Expected status 'inactive' after upsert, got '%s'", got.Status)
	}
}

func TestCompetitorRepository_UpdateLastChecked(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCompetitorRepository(db)
	ctx := context.Background()

	c := &Competitor{Name: "Acme", Website: "https://acme.example.com"}
	if err := repo.CreateCompetitor(ctx, c); err != nil {
		t.Fatalf("CreateCompetitor failed: %v", err)
	}

	checkedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.UpdateLastChecked(ctx, c.ID, checkedAt); err != nil {
		t.Fatalf("UpdateLastChecked failed: %v", err)
	}

	got, err := repo.GetCompetitor(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCompetitor failed: %v", err)
	}
	if got.LastChecked == nil || !got.LastChecked.Equal(checkedAt) {
		t.Errorf("Expected last checked %v, got %v", checkedAt, got.LastChecked)
	}
}

func TestCompetitorRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	compRepo := NewCompetitorRepository(db)
	snapRepo := NewSnapshotRepository(db)
	changeRepo := NewChangeRepository(db)
	ctx := context.Background()

	c := &Competitor{Name: "Acme", Website: "https://acme.example.com"}
	if err := compRepo.CreateCompetitor(ctx, c); err != nil {
		t.Fatalf("CreateCompetitor failed: %v", err)
	}

	snap := &Snapshot{CompetitorID: c.ID, ContentHash: "abc", Content: "hello"}
	if err := snapRepo.AppendSnapshot(ctx, snap); err != nil {
		t.Fatalf("AppendSnapshot failed: %v", err)
	}

	change := &Change{CompetitorID: c.ID, CompetitorName: c.Name, ChangeType: "first_scan", ImportanceScore: 3}
	if err := changeRepo.InsertChange(ctx, change); err != nil {
		t.Fatalf("InsertChange failed: %v", err)
	}

	if err := compRepo.DeleteCompetitor(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCompetitor failed: %v", err)
	}

	gotSnap, err := snapRepo.GetLatestSnapshot(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetLatestSnapshot failed: %v", err)
	}
	if gotSnap != nil {
		t.Error("Snapshots should be removed with their competitor")
	}

	count, err := changeRepo.GetChangeCount(ctx)
	if err != nil {
		t.Fatalf("GetChangeCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Changes should be removed with their competitor, %d left", count)
	}
}

func TestSnapshotRepository_LatestOrdering(t *testing.T) {
	db := setupTestDB(t)
	compRepo := NewCompetitorRepository(db)
	snapRepo := NewSnapshotRepository(db)
	ctx := context.Background()

	c := &Competitor{Name: "Acme", Website: "https://acme.example.com"}
	if err := compRepo.CreateCompetitor(ctx, c); err != nil {
		t.Fatalf("CreateCompetitor failed: %v", err)
	}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second", "third"} {
		snap := &Snapshot{
			CompetitorID: c.ID,
			ContentHash:  content,
			Content:      content,
			ScrapedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := snapRepo.AppendSnapshot(ctx, snap); err != nil {
			t.Fatalf("AppendSnapshot failed: %v", err)
		}
	}

	got, err := snapRepo.GetLatestSnapshot(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetLatestSnapshot failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetLatestSnapshot returned nil")
	}
	if got.Content != "third" {
		t.Errorf("Expected latest snapshot 'third', got '%s'", got.Content)
	}
}

func TestChangeRepository_Ordering(t *testing.T) {
	db := setupTestDB(t)
	compRepo := NewCompetitorRepository(db)
	changeRepo := NewChangeRepository(db)
	ctx := context.Background()

	c := &Competitor{Name: "Acme", Website: "https://acme.example.com"}
	if err := compRepo.CreateCompetitor(ctx, c); err != nil {
		t.Fatalf("CreateCompetitor failed: %v", err)
	}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	inserts := []struct {
		changeType string
		importance int
		offset     time.Duration
	}{
		{"minor_update", 3, 0},
		{"major_announcement", 8, time.Minute},
		{"content_update", 5, 2 * time.Minute},
	}
	for _, in := range inserts {
		change := &Change{
			CompetitorID:    c.ID,
			CompetitorName:  c.Name,
			ChangeType:      in.changeType,
			ImportanceScore: in.importance,
			DetectedAt:      base.Add(in.offset),
		}
		if err := changeRepo.InsertChange(ctx, change); err != nil {
			t.Fatalf("InsertChange failed: %v", err)
		}
	}

	recent, err := changeRepo.GetRecentChanges(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentChanges failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 changes, got %d", len(recent))
	}
	if recent[0].ChangeType != "content_update" {
		t.Errorf("GetRecentChanges should order by detection time, got '%s' first", recent[0].ChangeType)
	}

	since, err := changeRepo.GetChangesSince(ctx, base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetChangesSince failed: %v", err)
	}
	if len(since) != 3 {
		t.Fatalf("Expected 3 changes in window, got %d", len(since))
	}
	if since[0].ChangeType != "major_announcement" {
		t.Errorf("GetChangesSince should order by importance, got '%s' first", since[0].ChangeType)
	}

	old, err := changeRepo.GetChangesSince(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetChangesSince failed: %v", err)
	}
	if len(old) != 0 {
		t.Errorf("Expected no changes after cutoff, got %d", len(old))
	}
}
