// Package postgres is the optional archive of pulled snapshots and analysis
// artifacts. It is wired in only when DATABASE_URL is configured; every
// toolkit operation works without it.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"studykit/adapters/redcap"
	"studykit/domain/core"
	"studykit/domain/frame"
	"studykit/ports"
)

// snapshotRepository implements the SnapshotStore port over Postgres.
type snapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository creates a snapshot archive over an open connection.
func NewSnapshotRepository(db *sqlx.DB) ports.SnapshotStore {
	return &snapshotRepository{db: db}
}

// SaveSnapshot archives one pulled export with its raw CSV and checksum.
func (r *snapshotRepository) SaveSnapshot(ctx context.Context, snap *redcap.Snapshot) error {
	query := `INSERT INTO report_snapshots (
		id, report_id, pulled_at, checksum, row_count, csv_body
	) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		snap.ID, snap.ReportID.String(), snap.PulledAt.Time(), snap.Checksum.String(), snap.Rows, snap.CSV,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot loads an archived snapshot, rebuilding its frame from the
// stored CSV.
func (r *snapshotRepository) GetSnapshot(ctx context.Context, id core.ID) (*redcap.Snapshot, error) {
	query := `SELECT id, report_id, pulled_at, checksum, row_count, csv_body
	FROM report_snapshots WHERE id = $1`

	var row struct {
		ID       core.ID        `db:"id"`
		ReportID string         `db:"report_id"`
		PulledAt sql.NullTime   `db:"pulled_at"`
		Checksum string         `db:"checksum"`
		RowCount int            `db:"row_count"`
		CSVBody  []byte         `db:"csv_body"`
	}

	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("snapshot", id.String())
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	snap := &redcap.Snapshot{
		ID:       row.ID,
		ReportID: core.ReportID(row.ReportID),
		Checksum: core.Checksum(row.Checksum),
		Rows:     row.RowCount,
		CSV:      row.CSVBody,
	}
	if row.PulledAt.Valid {
		snap.PulledAt = core.NewTimestamp(row.PulledAt.Time)
	}

	if len(row.CSVBody) > 0 {
		f, err := parseSnapshotCSV(row.CSVBody)
		if err != nil {
			return nil, fmt.Errorf("archived CSV is corrupt for snapshot %s: %w", id, err)
		}
		snap.Frame = f
	}

	return snap, nil
}

// ListSnapshots returns archive entries for one report, newest first. The
// stored CSV bodies are not loaded.
func (r *snapshotRepository) ListSnapshots(ctx context.Context, reportID core.ReportID, limit int) ([]*redcap.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, report_id, pulled_at, checksum, row_count
	FROM report_snapshots WHERE report_id = $1
	ORDER BY pulled_at DESC LIMIT $2`

	rows, err := r.db.QueryxContext(ctx, query, reportID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*redcap.Snapshot
	for rows.Next() {
		var row struct {
			ID       core.ID      `db:"id"`
			ReportID string       `db:"report_id"`
			PulledAt sql.NullTime `db:"pulled_at"`
			Checksum string       `db:"checksum"`
			RowCount int          `db:"row_count"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		snap := &redcap.Snapshot{
			ID:       row.ID,
			ReportID: core.ReportID(row.ReportID),
			Checksum: core.Checksum(row.Checksum),
			Rows:     row.RowCount,
		}
		if row.PulledAt.Valid {
			snap.PulledAt = core.NewTimestamp(row.PulledAt.Time)
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

// SaveResultArtifact archives one analysis result as JSONB.
func (r *snapshotRepository) SaveResultArtifact(ctx context.Context, artifact core.Artifact) error {
	payload, err := json.Marshal(artifact.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact payload: %w", err)
	}

	query := `INSERT INTO result_artifacts (id, kind, payload, created_at)
	VALUES ($1, $2, $3, $4)`

	_, err = r.db.ExecContext(ctx, query,
		artifact.ID, string(artifact.Kind), payload, artifact.CreatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}
	return nil
}

// ListResultArtifacts returns archived results of one kind, newest first.
// Payloads come back as raw JSON.
func (r *snapshotRepository) ListResultArtifacts(ctx context.Context, kind core.ArtifactKind, limit int) ([]core.Artifact, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, kind, payload, created_at
	FROM result_artifacts WHERE kind = $1
	ORDER BY created_at DESC LIMIT $2`

	rows, err := r.db.QueryxContext(ctx, query, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []core.Artifact
	for rows.Next() {
		var row struct {
			ID        core.ID      `db:"id"`
			Kind      string       `db:"kind"`
			Payload   []byte       `db:"payload"`
			CreatedAt sql.NullTime `db:"created_at"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}

		artifact := core.Artifact{
			ID:      row.ID,
			Kind:    core.ArtifactKind(row.Kind),
			Payload: json.RawMessage(row.Payload),
		}
		if row.CreatedAt.Valid {
			artifact.CreatedAt = core.NewTimestamp(row.CreatedAt.Time)
		}
		artifacts = append(artifacts, artifact)
	}

	return artifacts, rows.Err()
}

// parseSnapshotCSV rebuilds the frame of an archived export.
func parseSnapshotCSV(body []byte) (*frame.Frame, error) {
	return redcap.ParseCSV(body)
}
