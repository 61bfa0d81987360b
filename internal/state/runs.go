package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ShayCichocki/cadence/internal/cache"
	"github.com/ShayCichocki/cadence/pkg/models"
)

// Run is a persisted pipeline run record.
type Run struct {
	ID             string
	PlanRef        string
	Success        bool
	TasksProcessed int
	Mode           string
	Duration       time.Duration
	Error          string
	StartedAt      time.Time
}

// RecordRun persists the outcome of a pipeline run.
func (db *DB) RecordRun(runID, planRef string, result *models.PipelineResult, startedAt time.Time) error {
	_, err := db.Exec(`
		INSERT INTO runs (id, plan_ref, success, tasks_processed, mode, duration_ms, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, planRef, result.Success, result.TasksProcessed,
		string(result.Mode), result.Duration.Milliseconds(), result.Error,
		startedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// RecordCacheStats persists a cache stats snapshot taken after a run.
func (db *DB) RecordCacheStats(runID string, stats cache.Stats) error {
	_, err := db.Exec(`
		INSERT INTO cache_stats (run_id, size, max_size, hits, misses, hit_rate)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stats.Size, stats.MaxSize, stats.Hits, stats.Misses, stats.HitRate,
	)
	if err != nil {
		return fmt.Errorf("record cache stats: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, plan_ref, success, tasks_processed, mode, duration_ms, error, started_at
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recent run for a plan reference, or nil when
// no run has been recorded.
func (db *DB) LatestRun(planRef string) (*Run, error) {
	rows, err := db.Query(`
		SELECT id, plan_ref, success, tasks_processed, mode, duration_ms, error, started_at
		FROM runs WHERE plan_ref = ? ORDER BY started_at DESC, id DESC LIMIT 1`, planRef)
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRun(rows)
}

// StatsForRun returns the cache stats snapshot for a run, or nil when
// none was recorded.
func (db *DB) StatsForRun(runID string) (*cache.Stats, error) {
	row := db.QueryRow(`
		SELECT size, max_size, hits, misses, hit_rate
		FROM cache_stats WHERE run_id = ? ORDER BY recorded_at DESC LIMIT 1`, runID)

	var s cache.Stats
	err := row.Scan(&s.Size, &s.MaxSize, &s.Hits, &s.Misses, &s.HitRate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stats for run: %w", err)
	}
	return &s, nil
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var r Run
	var success int
	var durationMS int64
	var errMsg sql.NullString
	if err := rows.Scan(&r.ID, &r.PlanRef, &success, &r.TasksProcessed, &r.Mode, &durationMS, &errMsg, &r.StartedAt); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.Success = success != 0
	r.Duration = time.Duration(durationMS) * time.Millisecond
	r.Error = errMsg.String
	return &r, nil
}
