package enrich

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ShayCichocki/cadence/pkg/models"
)

func TestGatherFilesFoundAndMissing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	g := NewGatherer(dir, nil)
	task := &models.Task{
		ID:    "t1",
		Title: "wire handler",
		Files: []string{"main.go", "missing.go"},
	}

	bag := g.Gather(context.Background(), task)
	if bag == nil {
		t.Fatal("expected non-nil enrichment")
	}
	if len(bag.FilesFound) != 1 || bag.FilesFound[0] != "main.go" {
		t.Errorf("FilesFound = %v, want [main.go]", bag.FilesFound)
	}
	if len(bag.FilesMissing) != 1 || bag.FilesMissing[0] != "missing.go" {
		t.Errorf("FilesMissing = %v, want [missing.go]", bag.FilesMissing)
	}
}

func TestGatherMatchesPatterns(t *testing.T) {
	g := NewGatherer(t.TempDir(), nil)
	task := &models.Task{
		ID:          "t1",
		Title:       "Add login endpoint",
		Description: "validate the session token on each request",
	}

	bag := g.Gather(context.Background(), task)
	want := map[string]bool{"auth": true, "crud": true, "validation": true}
	if len(bag.MatchedPatterns) != len(want) {
		t.Fatalf("MatchedPatterns = %v, want %v", bag.MatchedPatterns, want)
	}
	for _, p := range bag.MatchedPatterns {
		if !want[p] {
			t.Errorf("unexpected pattern %q", p)
		}
	}
}

func TestGatherDeclaredPatternsRestrictMatching(t *testing.T) {
	g := NewGatherer(t.TempDir(), nil)
	task := &models.Task{
		ID:          "t1",
		Title:       "Add login endpoint",
		Description: "validate the session token",
		Patterns:    []string{"auth"},
	}

	bag := g.Gather(context.Background(), task)
	if len(bag.MatchedPatterns) != 1 || bag.MatchedPatterns[0] != "auth" {
		t.Errorf("MatchedPatterns = %v, want [auth]", bag.MatchedPatterns)
	}
}

func TestGatherCancelledContextReturnsEmptyBag(t *testing.T) {
	g := NewGatherer(t.TempDir(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bag := g.Gather(ctx, &models.Task{ID: "t1", Title: "anything", Files: []string{"x"}})
	if bag == nil {
		t.Fatal("expected non-nil enrichment")
	}
	if len(bag.FilesFound) != 0 || len(bag.FilesMissing) != 0 || len(bag.MatchedPatterns) != 0 {
		t.Errorf("expected empty bag, got %+v", bag)
	}
}

func TestEstimateComplexityBounds(t *testing.T) {
	g := NewGatherer(t.TempDir(), nil)
	simple := g.Gather(context.Background(), &models.Task{ID: "s", Title: "tiny fix"})
	if simple.Complexity < 1 {
		t.Errorf("Complexity = %d, want >= 1", simple.Complexity)
	}

	heavy := g.Gather(context.Background(), &models.Task{
		ID:           "h",
		Title:        "big refactor",
		Duration:     "2 days",
		Dependencies: []string{"a", "b", "c", "d", "e"},
		Files:        []string{"1", "2", "3", "4", "5", "6"},
	})
	if heavy.Complexity > 10 {
		t.Errorf("Complexity = %d, want <= 10", heavy.Complexity)
	}
	if heavy.Complexity <= simple.Complexity {
		t.Errorf("heavy task complexity %d should exceed simple %d", heavy.Complexity, simple.Complexity)
	}
}
