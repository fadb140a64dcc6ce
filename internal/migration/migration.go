package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"studykit/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles the archive schema: pulled report snapshots and
// archived analysis result artifacts.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createReportSnapshotsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create report_snapshots table")
	}

	if err := r.createResultArtifactsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create result_artifacts table")
	}

	return nil
}

// createReportSnapshotsTable stores one row per pulled REDCap export,
// keyed by report and pull time so the latest snapshot is cheap to find.
func (r *MigrationRunner) createReportSnapshotsTable(ctx context.Context, db *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS report_snapshots (
			id TEXT PRIMARY KEY,
			report_id TEXT NOT NULL,
			pulled_at TIMESTAMPTZ NOT NULL,
			checksum TEXT NOT NULL,
			row_count INTEGER NOT NULL DEFAULT 0,
			csv_body BYTEA
		);

		CREATE INDEX IF NOT EXISTS idx_report_snapshots_report
			ON report_snapshots (report_id, pulled_at DESC);
	`

	_, err := db.ExecContext(ctx, query)
	return err
}

// createResultArtifactsTable holds analysis outputs as JSONB payloads,
// one row per sweep or summary run.
func (r *MigrationRunner) createResultArtifactsTable(ctx context.Context, db *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS result_artifacts (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_result_artifacts_kind
			ON result_artifacts (kind, created_at DESC);
	`

	_, err := db.ExecContext(ctx, query)
	return err
}
