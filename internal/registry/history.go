package registry

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Assignment is one recorded capability assignment.
type Assignment struct {
	TaskID     string
	Capability string
	AssignedAt time.Time
}

// HistoryStore persists capability assignments so repeated analyses of the
// same plan can be audited after the fact.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore opens (and initializes) the assignment history database
// at the given path.
func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS assignments (
			task_id TEXT NOT NULL,
			capability TEXT NOT NULL,
			assigned_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &HistoryStore{db: db}, nil
}

// Record stores one assignment.
func (s *HistoryStore) Record(taskID, capability string) error {
	_, err := s.db.Exec(`
		INSERT INTO assignments (task_id, capability, assigned_at)
		VALUES (?, ?, ?)
	`, taskID, capability, time.Now())
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

// ForTask returns all assignments recorded for a task, newest first.
func (s *HistoryStore) ForTask(taskID string) ([]Assignment, error) {
	rows, err := s.db.Query(`
		SELECT task_id, capability, assigned_at
		FROM assignments
		WHERE task_id = ?
		ORDER BY assigned_at DESC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.TaskID, &a.Capability, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}
