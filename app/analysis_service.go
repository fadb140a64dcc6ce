// Package app wires the toolkit's operations together: pulling exports,
// running the correlation-comparison sweep, and building summary tables.
// Every run gets an ID and a fingerprint so results stay attributable to
// the exact input that produced them.
package app

import (
	"context"
	"fmt"

	"studykit/adapters/redcap"
	"studykit/adapters/stats/engine"
	"studykit/domain/core"
	"studykit/domain/frame"
	domainstats "studykit/domain/stats"
	"studykit/internal/tables"
	"studykit/ports"
)

// AnalysisService composes a report source with an optional archive store.
// A nil store disables archiving; analyses still run.
type AnalysisService struct {
	source ports.ReportSource
	store  ports.SnapshotStore
}

// NewAnalysisService creates the service. source may be nil when only
// file-based analyses are used; store may be nil when no archive is
// configured.
func NewAnalysisService(source ports.ReportSource, store ports.SnapshotStore) *AnalysisService {
	return &AnalysisService{source: source, store: store}
}

// PullRequest asks for one report export.
type PullRequest struct {
	ReportID string
	Labels   bool
	Archive  bool
}

// PullResult is a pulled export plus its archival identity.
type PullResult struct {
	Snapshot *redcap.Snapshot
	Archived bool
}

// PullAndArchive pulls one report and archives the snapshot when requested
// and a store is configured.
func (s *AnalysisService) PullAndArchive(ctx context.Context, req PullRequest) (*PullResult, error) {
	if s.source == nil {
		return nil, fmt.Errorf("no report source configured")
	}

	snap, err := s.source.PullSnapshot(ctx, redcap.ReportRequest{ReportID: req.ReportID, Labels: req.Labels})
	if err != nil {
		return nil, err
	}

	result := &PullResult{Snapshot: snap}
	if req.Archive && s.store != nil {
		if err := s.store.SaveSnapshot(ctx, snap); err != nil {
			return nil, fmt.Errorf("pulled but failed to archive: %w", err)
		}
		result.Archived = true
	}
	return result, nil
}

// SteigerRequest selects columns of a frame for a comparison sweep.
type SteigerRequest struct {
	Frame   *frame.Frame
	Columns []string
	Method  domainstats.Method
	// SourceCSV fingerprints the run when set.
	SourceCSV []byte
	Archive   bool
}

// SteigerRunResult is a finished sweep with its run identity.
type SteigerRunResult struct {
	RunID       core.RunID
	Fingerprint core.Fingerprint
	Result      *engine.SteigerResult
	Table       *tables.Table
	Archived    bool
}

// RunSteiger runs the comparison sweep and archives the result artifact
// when requested.
func (s *AnalysisService) RunSteiger(ctx context.Context, req SteigerRequest) (*SteigerRunResult, error) {
	if req.Frame == nil {
		return nil, fmt.Errorf("no dataset given")
	}
	method := req.Method
	if method == "" {
		method = domainstats.MethodPearson
	}

	result, err := engine.SteigerSweep(req.Frame, req.Columns, method)
	if err != nil {
		return nil, err
	}

	fingerprint := runFingerprint(req.SourceCSV, map[string]string{
		"operation": "steiger",
		"method":    method.String(),
		"columns":   fmt.Sprintf("%q", result.Columns),
	})

	run := &SteigerRunResult{
		RunID:       core.RunID(core.NewID()),
		Fingerprint: fingerprint,
		Result:      result,
		Table:       result.Table(),
	}

	if req.Archive && s.store != nil {
		artifact := core.Artifact{
			ID:        core.NewID(),
			Kind:      core.ArtifactSteigerSweep,
			Payload:   result.Payload(fingerprint),
			CreatedAt: core.Now(),
		}
		if err := s.store.SaveResultArtifact(ctx, artifact); err != nil {
			return nil, fmt.Errorf("sweep finished but failed to archive: %w", err)
		}
		run.Archived = true
	}

	return run, nil
}

// SummaryKind selects which summary table to build.
type SummaryKind string

const (
	SummaryFreq     SummaryKind = "freq"
	SummaryAllApply SummaryKind = "allapply"
	SummaryDescribe SummaryKind = "describe"
)

// SummaryRequest asks for one summary table over a frame.
type SummaryRequest struct {
	Frame   *frame.Frame
	Kind    SummaryKind
	Columns []string
	// GroupTitle labels the select-all-that-apply group column.
	GroupTitle string
	SortByPct  bool
	Archive    bool
}

// SummaryResult is a built summary table with its run identity.
type SummaryResult struct {
	RunID    core.RunID
	Table    *tables.Table
	Archived bool
}

// BuildSummary builds a frequency, select-all-that-apply, or descriptive
// summary table for the chosen columns.
func (s *AnalysisService) BuildSummary(ctx context.Context, req SummaryRequest) (*SummaryResult, error) {
	if req.Frame == nil {
		return nil, fmt.Errorf("no dataset given")
	}

	var (
		table *tables.Table
		kind  core.ArtifactKind
		err   error
	)

	switch req.Kind {
	case SummaryFreq:
		if len(req.Columns) != 1 {
			return nil, fmt.Errorf("frequency table needs exactly one column, got %d", len(req.Columns))
		}
		table, err = tables.FreqProp(req.Frame, req.Columns[0])
		kind = core.ArtifactSummaryTable
	case SummaryAllApply:
		title := req.GroupTitle
		if title == "" {
			title = "Response"
		}
		table, err = tables.AllApply(req.Frame, req.Columns, title, req.SortByPct)
		kind = core.ArtifactSummaryTable
	case SummaryDescribe:
		var described *engine.DescribeResult
		described, err = engine.Describe(req.Frame, req.Columns)
		if err == nil {
			table = described.Table()
		}
		kind = core.ArtifactColumnSummary
	default:
		return nil, fmt.Errorf("unknown summary kind '%s'", req.Kind)
	}
	if err != nil {
		return nil, err
	}

	result := &SummaryResult{
		RunID: core.RunID(core.NewID()),
		Table: table,
	}

	if req.Archive && s.store != nil {
		artifact := core.Artifact{
			ID:        core.NewID(),
			Kind:      kind,
			Payload:   table,
			CreatedAt: core.Now(),
		}
		if err := s.store.SaveResultArtifact(ctx, artifact); err != nil {
			return nil, fmt.Errorf("summary built but failed to archive: %w", err)
		}
		result.Archived = true
	}

	return result, nil
}

// runFingerprint derives the run fingerprint from the input CSV (when
// known) and the run parameters.
func runFingerprint(sourceCSV []byte, params map[string]string) core.Fingerprint {
	return core.ComputeFingerprint(core.NewChecksum(sourceCSV), params)
}
