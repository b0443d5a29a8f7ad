package artifact

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// IndexFileName is the name of the run history database kept in an output root.
const IndexFileName = "index.db"

const indexSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	project      TEXT NOT NULL,
	mode         TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT NOT NULL,
	output_dir   TEXT NOT NULL,
	total_pages  INTEGER NOT NULL,
	collected    INTEGER NOT NULL,
	recordings   INTEGER NOT NULL,
	errors       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS pages (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	url        TEXT NOT NULL,
	snapshot   TEXT NOT NULL,
	screenshot TEXT NOT NULL,
	iframes    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// RunRow is one row of the run history.
type RunRow struct {
	ID         string
	Project    string
	Mode       string
	StartedAt  string
	FinishedAt string
	OutputDir  string
	TotalPages int
	Collected  int
	Recordings int
	Errors     int
	Pages      []PageRow
}

// PageRow is one captured page of a run.
type PageRow struct {
	Name       string
	URL        string
	Snapshot   string
	Screenshot string
	Iframes    int
}

// Index is the SQLite-backed history of capture runs.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (creating if needed) the run history at path.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the database handle.
func (x *Index) Close() error {
	return x.db.Close()
}

// RecordRun stores a run and its pages in a single transaction. Recording
// the same run id twice replaces the earlier row.
func (x *Index) RecordRun(run RunRow) error {
	tx, err := x.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM pages WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear pages: %w", err)
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO runs
		(id, project, mode, started_at, finished_at, output_dir, total_pages, collected, recordings, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Project, run.Mode, run.StartedAt, run.FinishedAt, run.OutputDir,
		run.TotalPages, run.Collected, run.Recordings, run.Errors)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, p := range run.Pages {
		_, err := tx.Exec(`INSERT INTO pages (run_id, name, url, snapshot, screenshot, iframes)
			VALUES (?, ?, ?, ?, ?, ?)`, run.ID, p.Name, p.URL, p.Snapshot, p.Screenshot, p.Iframes)
		if err != nil {
			return fmt.Errorf("failed to insert page %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first. Pages are not loaded.
func (x *Index) Runs(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := x.db.Query(`SELECT id, project, mode, started_at, finished_at, output_dir,
		total_pages, collected, recordings, errors
		FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.Project, &r.Mode, &r.StartedAt, &r.FinishedAt, &r.OutputDir,
			&r.TotalPages, &r.Collected, &r.Recordings, &r.Errors); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Pages returns the pages recorded for a run in insertion order.
func (x *Index) Pages(runID string) ([]PageRow, error) {
	rows, err := x.db.Query(`SELECT name, url, snapshot, screenshot, iframes
		FROM pages WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var out []PageRow
	for rows.Next() {
		var p PageRow
		if err := rows.Scan(&p.Name, &p.URL, &p.Snapshot, &p.Screenshot, &p.Iframes); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
