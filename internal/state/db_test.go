package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ShayCichocki/cadence/internal/cache"
	"github.com/ShayCichocki/cadence/pkg/models"
)

// tempDBPath returns a path to a temp database file.
func tempDBPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "test.db")
}

// setupTestDB creates a new temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(tempDBPath(t))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestOpen(t *testing.T) {
	path := tempDBPath(t)
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("database file does not exist at %s", path)
	}
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")
	path := filepath.Join(nested, "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(nested); os.IsNotExist(err) {
		t.Errorf("parent directories not created: %s", nested)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestRecordAndListRuns(t *testing.T) {
	db := setupTestDB(t)

	start := time.Now().Add(-time.Minute)
	ok := &models.PipelineResult{
		Success:        true,
		TasksProcessed: 7,
		Mode:           models.ModeIncremental,
		Duration:       1500 * time.Millisecond,
	}
	if err := db.RecordRun("run-1", "sprint.yaml", ok, start); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	failed := &models.PipelineResult{
		Success:  false,
		Mode:     models.ModeFull,
		Duration: 200 * time.Millisecond,
		Error:    "validation failed",
	}
	if err := db.RecordRun("run-2", "sprint.yaml", failed, start.Add(time.Second)); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns returned %d runs, want 2", len(runs))
	}
	// Newest first.
	if runs[0].ID != "run-2" {
		t.Errorf("runs[0].ID = %q, want run-2", runs[0].ID)
	}
	if runs[0].Success {
		t.Error("run-2 should be recorded as failed")
	}
	if runs[0].Error != "validation failed" {
		t.Errorf("runs[0].Error = %q, want %q", runs[0].Error, "validation failed")
	}
	if runs[1].TasksProcessed != 7 {
		t.Errorf("runs[1].TasksProcessed = %d, want 7", runs[1].TasksProcessed)
	}
	if runs[1].Mode != string(models.ModeIncremental) {
		t.Errorf("runs[1].Mode = %q, want %q", runs[1].Mode, models.ModeIncremental)
	}
	if runs[1].Duration != 1500*time.Millisecond {
		t.Errorf("runs[1].Duration = %v, want 1.5s", runs[1].Duration)
	}
}

func TestLatestRun(t *testing.T) {
	db := setupTestDB(t)

	none, err := db.LatestRun("sprint.yaml")
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if none != nil {
		t.Errorf("expected nil run before any records, got %+v", none)
	}

	base := time.Now()
	for i, id := range []string{"run-a", "run-b"} {
		result := &models.PipelineResult{Success: true, Mode: models.ModeFull}
		if err := db.RecordRun(id, "sprint.yaml", result, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	latest, err := db.LatestRun("sprint.yaml")
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if latest == nil || latest.ID != "run-b" {
		t.Errorf("LatestRun = %+v, want run-b", latest)
	}
}

func TestCacheStatsRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	result := &models.PipelineResult{Success: true, Mode: models.ModeIncremental}
	if err := db.RecordRun("run-1", "sprint.yaml", result, time.Now()); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	stats := cache.Stats{Size: 2, MaxSize: 100, Hits: 5, Misses: 3, HitRate: 0.625}
	if err := db.RecordCacheStats("run-1", stats); err != nil {
		t.Fatalf("RecordCacheStats failed: %v", err)
	}

	got, err := db.StatsForRun("run-1")
	if err != nil {
		t.Fatalf("StatsForRun failed: %v", err)
	}
	if got == nil {
		t.Fatal("StatsForRun returned nil")
	}
	if *got != stats {
		t.Errorf("StatsForRun = %+v, want %+v", *got, stats)
	}

	missing, err := db.StatsForRun("run-none")
	if err != nil {
		t.Fatalf("StatsForRun failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil stats for unknown run, got %+v", missing)
	}
}
