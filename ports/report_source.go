package ports

import (
	"context"

	"studykit/adapters/redcap"
	"studykit/domain/frame"
)

// ReportSource pulls survey exports. The REDCap client is the production
// implementation; tests substitute fixture-backed sources.
type ReportSource interface {
	PullReport(ctx context.Context, req redcap.ReportRequest) (*frame.Frame, error)
	PullSnapshot(ctx context.Context, req redcap.ReportRequest) (*redcap.Snapshot, error)
	PullMetadata(ctx context.Context) (*frame.Frame, error)
}
