package store

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"fhir-data-pipeline/internal/model"
)

// Store persists load-run history. LoadStats themselves stay per-invocation
// values; this is only the record of past runs for the API to serve.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the run-history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	runTable := `
	CREATE TABLE IF NOT EXISTS load_runs (
		id TEXT PRIMARY KEY,
		source_dir TEXT,
		file_limit INTEGER,
		force_load INTEGER,
		status TEXT,
		total_files INTEGER DEFAULT 0,
		loaded INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		verified_count INTEGER DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS run_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		file_path TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`
	if _, err := db.Exec(runTable); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(errorTable); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RunRecord is one persisted load run.
type RunRecord struct {
	ID            string    `json:"id"`
	SourceDir     string    `json:"sourceDir"`
	FileLimit     int       `json:"fileLimit"`
	Force         bool      `json:"force"`
	Status        string    `json:"status"`
	TotalFiles    int       `json:"totalFiles"`
	Loaded        int       `json:"loaded"`
	Failed        int       `json:"failed"`
	VerifiedCount int       `json:"verifiedCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// RunError is one recorded per-file failure within a run.
type RunError struct {
	FilePath  string    `json:"filePath"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRun records a new pending run.
func (s *Store) CreateRun(id, sourceDir string, limit int, force bool) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO load_runs (id, source_dir, file_limit, force_load, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, sourceDir, limit, force, "pending", now, now)
	return err
}

// UpdateRunStatus moves a run through its lifecycle.
func (s *Store) UpdateRunStatus(id, status string) error {
	_, err := s.db.Exec(`UPDATE load_runs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	return err
}

// CompleteRun records the final summary and status of a run.
func (s *Store) CompleteRun(id string, summary model.LoadSummary, status string) error {
	_, err := s.db.Exec(
		`UPDATE load_runs SET status = ?, total_files = ?, loaded = ?, failed = ?, verified_count = ?, updated_at = ? WHERE id = ?`,
		status, summary.Stats.TotalFiles, summary.Stats.Loaded, summary.Stats.Failed,
		summary.VerifiedCount, time.Now().UTC(), id)
	return err
}

// SaveRunError records a per-file failure for a run.
func (s *Store) SaveRunError(runID, filePath, message string) error {
	_, err := s.db.Exec(
		`INSERT INTO run_errors (run_id, file_path, error_message, created_at) VALUES (?, ?, ?, ?)`,
		runID, filePath, message, time.Now().UTC())
	return err
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns() ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, source_dir, file_limit, force_load, status, total_files, loaded, failed, verified_count, created_at, updated_at
		 FROM load_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		if err := rows.Scan(&run.ID, &run.SourceDir, &run.FileLimit, &run.Force, &run.Status,
			&run.TotalFiles, &run.Loaded, &run.Failed, &run.VerifiedCount,
			&run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches a single run by id. sql.ErrNoRows when absent.
func (s *Store) GetRun(id string) (RunRecord, error) {
	var run RunRecord
	err := s.db.QueryRow(
		`SELECT id, source_dir, file_limit, force_load, status, total_files, loaded, failed, verified_count, created_at, updated_at
		 FROM load_runs WHERE id = ?`, id).
		Scan(&run.ID, &run.SourceDir, &run.FileLimit, &run.Force, &run.Status,
			&run.TotalFiles, &run.Loaded, &run.Failed, &run.VerifiedCount,
			&run.CreatedAt, &run.UpdatedAt)
	return run, err
}

// RunErrors returns the recorded per-file failures for a run, oldest first.
func (s *Store) RunErrors(runID string) ([]RunError, error) {
	rows, err := s.db.Query(
		`SELECT file_path, error_message, created_at FROM run_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errs []RunError
	for rows.Next() {
		var e RunError
		if err := rows.Scan(&e.FilePath, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		errs = append(errs, e)
	}
	return errs, rows.Err()
}
