// Package index keeps a SQLite history of pipeline runs and the reels they
// produced.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kikiluvv/bytesize/internal/pipeline"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL UNIQUE,
	input TEXT NOT NULL,
	output_dir TEXT,
	status TEXT NOT NULL,
	media_duration REAL,
	peaks INTEGER,
	reels INTEGER,
	failed INTEGER,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_input ON runs(input);

CREATE TABLE IF NOT EXISTS reels (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	idx INTEGER NOT NULL,
	window_start REAL NOT NULL,
	window_end REAL NOT NULL,
	cues INTEGER NOT NULL,
	horizontal TEXT,
	vertical TEXT,
	captioned TEXT,
	poster TEXT,
	error TEXT,
	PRIMARY KEY (run_id, idx)
);
`

// Run is one row of run history
type Run struct {
	RunID         string
	Input         string
	OutputDir     string
	Status        pipeline.Status
	MediaDuration float64
	Peaks         int
	Reels         int
	Failed        int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Reel is one recorded reel of a run
type Reel struct {
	Index     int
	Start     float64
	End       float64
	Cues      int
	Captioned string
	Poster    string
	Error     string
}

// Index handles SQLite operations
type Index struct {
	db *sql.DB
}

// Open opens or creates the index database at path
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	// a single connection keeps writes serialised across watch workers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index schema: %w", err)
	}

	return &Index{db: db}, nil
}

// Close closes the database
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Record stores a run and its reels
func (ix *Index) Record(ctx context.Context, res *pipeline.Result) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (run_id, input, output_dir, status, media_duration, peaks, reels, failed, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, res.RunID, res.Input, res.OutputDir, string(res.Status), res.MediaDuration,
		len(res.Peaks), len(res.Reels), len(res.Failures()),
		res.StartedAt.UnixMilli(), res.FinishedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for _, r := range res.Reels {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO reels (run_id, idx, window_start, window_end, cues, horizontal, vertical, captioned, poster, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, res.RunID, r.Index, r.Window.Start, r.Window.End, len(r.Cues),
			r.Horizontal, r.Vertical, r.Captioned, r.Poster, r.Error)
		if err != nil {
			return fmt.Errorf("failed to save reel %d: %w", r.Index, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs first
func (ix *Index) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := ix.db.QueryContext(ctx, `
	SELECT run_id, input, output_dir, status, media_duration, peaks, reels, failed, started_at, finished_at
	FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			status            string
			started, finished int64
		)
		if err := rows.Scan(&r.RunID, &r.Input, &r.OutputDir, &status, &r.MediaDuration,
			&r.Peaks, &r.Reels, &r.Failed, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Status = pipeline.Status(status)
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Reels returns the reels recorded for a run in index order
func (ix *Index) Reels(ctx context.Context, runID string) ([]Reel, error) {
	rows, err := ix.db.QueryContext(ctx, `
	SELECT idx, window_start, window_end, cues, captioned, poster, error
	FROM reels WHERE run_id = ? ORDER BY idx
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reels: %w", err)
	}
	defer rows.Close()

	var reels []Reel
	for rows.Next() {
		var r Reel
		if err := rows.Scan(&r.Index, &r.Start, &r.End, &r.Cues, &r.Captioned, &r.Poster, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan reel: %w", err)
		}
		reels = append(reels, r)
	}
	return reels, rows.Err()
}
