package storage

import (
	"database/sql"
	"fmt"

	"github.com/alvmarrod/fontscan/internal/fonts"
	_ "github.com/mattn/go-sqlite3"
)

// Storage exports finished reports to SQLite. Nothing is ever read back
// into a crawl; each run is written as a new scan_runs row.
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new Storage instance, opening/creating the DB and initializing schema
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return newWithDB(db)
}

func newWithDB(db *sql.DB) (*Storage, error) {
	storage := &Storage{db: db}

	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// initSchema creates tables and indices if they don't exist
func (s *Storage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scan_runs (
		run_id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		pages_found INTEGER DEFAULT 0,
		interrupted INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS font_weights (
		run_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		font TEXT NOT NULL,
		weight TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES scan_runs(run_id),
		UNIQUE(run_id, kind, font, weight)
	);

	CREATE TABLE IF NOT EXISTS missing_fonts (
		run_id INTEGER NOT NULL,
		font TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES scan_runs(run_id),
		UNIQUE(run_id, font)
	);

	CREATE TABLE IF NOT EXISTS scanned_pages (
		run_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES scan_runs(run_id)
	);

	CREATE INDEX IF NOT EXISTS idx_font_weights_run ON font_weights(run_id, kind);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveReport writes a report in a single transaction and returns its run_id
func (s *Storage) SaveReport(r *fonts.Report) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	runID, err := saveReport(tx, r)
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit report: %w", err)
	}
	return runID, nil
}

func saveReport(tx *sql.Tx, r *fonts.Report) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO scan_runs (start_url, started_at, finished_at, pages_found, interrupted)
		VALUES (?, ?, ?, ?, ?)
	`, r.Stats.StartURL, r.Stats.StartedAt, r.Stats.FinishedAt, r.Stats.PagesFound, r.Stats.Interrupted)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve run_id: %w", err)
	}

	sets := []struct {
		kind string
		obs  []fonts.Observation
	}{
		{KindUsed, r.Used},
		{KindDeclared, r.Declared},
		{KindUnused, r.Unused},
	}
	for _, set := range sets {
		for _, o := range set.obs {
			for _, w := range o.Weights {
				if _, err := tx.Exec(`
					INSERT OR IGNORE INTO font_weights (run_id, kind, font, weight)
					VALUES (?, ?, ?, ?)
				`, runID, set.kind, o.Font, w); err != nil {
					return 0, fmt.Errorf("failed to insert %s weight %s/%s: %w", set.kind, o.Font, w, err)
				}
			}
		}
	}

	for _, font := range r.Missing {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO missing_fonts (run_id, font) VALUES (?, ?)`, runID, font); err != nil {
			return 0, fmt.Errorf("failed to insert missing font %s: %w", font, err)
		}
	}

	pages := []struct {
		status string
		urls   []string
	}{
		{PageAnalyzed, r.Stats.PagesAnalyzed},
		{PageFailed, r.Stats.PagesFailed},
	}
	for _, p := range pages {
		for _, u := range p.urls {
			if _, err := tx.Exec(`INSERT INTO scanned_pages (run_id, url, status) VALUES (?, ?, ?)`, runID, u, p.status); err != nil {
				return 0, fmt.Errorf("failed to insert page %s: %w", u, err)
			}
		}
	}

	return runID, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}
