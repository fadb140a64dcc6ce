package ports

import (
	"context"

	"studykit/adapters/redcap"
	"studykit/domain/core"
)

// SnapshotStore archives pulled exports and analysis results. Pull and
// analysis paths treat the store as optional: a nil store means run-only,
// nothing is archived.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *redcap.Snapshot) error
	GetSnapshot(ctx context.Context, id core.ID) (*redcap.Snapshot, error)
	ListSnapshots(ctx context.Context, reportID core.ReportID, limit int) ([]*redcap.Snapshot, error)

	SaveResultArtifact(ctx context.Context, artifact core.Artifact) error
	ListResultArtifacts(ctx context.Context, kind core.ArtifactKind, limit int) ([]core.Artifact, error)
}
