// Package runlog persists a ledger of pipeline runs: one row per run with
// per-stage counts, plus every anomaly, so catalog history survives the
// terminal scrollback.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"trellis/internal/pipeline"
)

// Store manages run ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Run is one persisted ledger row.
type Run struct {
	ID                  string
	StartedAt           time.Time
	FinishedAt          time.Time
	DryRun              bool
	Scanned             int
	Malformed           int
	Removed             int
	Updated             int
	DuplicateGroups     int
	TaxonomyChecked     int
	TaxonomyConfirmed   int
	TaxonomyRejected    int
	TaxonomyUnresolved  int
	ImagesMatched       int
	ImagesNoAsset       int
	DescriptionsCleaned int
	DescriptionsFlagged int
	Anomalies           int
}

// Anomaly is one persisted per-record diagnostic.
type Anomaly struct {
	Record  string
	Stage   string
	Message string
}

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun persists one completed pipeline report and its anomalies.
func (s *Store) RecordRun(ctx context.Context, report *pipeline.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, finished_at, dry_run,
			scanned, malformed, removed, updated, duplicate_groups,
			taxonomy_checked, taxonomy_confirmed, taxonomy_rejected, taxonomy_unresolved,
			images_matched, images_no_asset,
			descriptions_cleaned, descriptions_flagged
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.StartedAt.Format(time.RFC3339),
		report.FinishedAt.Format(time.RFC3339),
		boolToInt(report.DryRun),
		report.Scanned,
		report.Malformed,
		report.Removed,
		report.Updated,
		report.DuplicateGroups,
		report.Taxonomy.Checked,
		report.Taxonomy.Confirmed,
		report.Taxonomy.Rejected,
		report.Taxonomy.Unresolved,
		report.Images.Matched,
		report.Images.NoAsset,
		report.Descriptions.Cleaned,
		report.Descriptions.Flagged,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, anomaly := range report.Anomalies {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO anomalies (run_id, record, stage, message) VALUES (?, ?, ?, ?)",
			report.RunID, anomaly.Record, anomaly.Stage, anomaly.Message,
		); err != nil {
			return fmt.Errorf("insert anomaly: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.started_at, r.finished_at, r.dry_run,
			r.scanned, r.malformed, r.removed, r.updated, r.duplicate_groups,
			r.taxonomy_checked, r.taxonomy_confirmed, r.taxonomy_rejected, r.taxonomy_unresolved,
			r.images_matched, r.images_no_asset,
			r.descriptions_cleaned, r.descriptions_flagged,
			(SELECT COUNT(1) FROM anomalies a WHERE a.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                   Run
			startedAt, finishedAt string
			dryRun                int
		)
		if err := rows.Scan(
			&run.ID, &startedAt, &finishedAt, &dryRun,
			&run.Scanned, &run.Malformed, &run.Removed, &run.Updated, &run.DuplicateGroups,
			&run.TaxonomyChecked, &run.TaxonomyConfirmed, &run.TaxonomyRejected, &run.TaxonomyUnresolved,
			&run.ImagesMatched, &run.ImagesNoAsset,
			&run.DescriptionsCleaned, &run.DescriptionsFlagged,
			&run.Anomalies,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.DryRun = dryRun != 0
		if ts, err := time.Parse(time.RFC3339, startedAt); err == nil {
			run.StartedAt = ts
		}
		if ts, err := time.Parse(time.RFC3339, finishedAt); err == nil {
			run.FinishedAt = ts
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunAnomalies returns the anomalies recorded for one run.
func (s *Store) RunAnomalies(ctx context.Context, runID string) ([]Anomaly, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT record, stage, message FROM anomalies WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("query anomalies: %w", err)
	}
	defer rows.Close()

	var anomalies []Anomaly
	for rows.Next() {
		var a Anomaly
		if err := rows.Scan(&a.Record, &a.Stage, &a.Message); err != nil {
			return nil, fmt.Errorf("scan anomaly: %w", err)
		}
		anomalies = append(anomalies, a)
	}
	return anomalies, rows.Err()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
