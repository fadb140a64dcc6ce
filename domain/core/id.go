package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// SnapshotID identifies a pulled survey export.
	SnapshotID ID
	// ReportID is the numeric report identifier assigned by a REDCap project.
	ReportID ID
	// RunID identifies a single analysis run (sweep, summary build).
	RunID ID
	ArtifactID ID
)

// String conversions for domain IDs
func (id SnapshotID) String() string { return ID(id).String() }
func (id ReportID) String() string   { return ID(id).String() }
func (id RunID) String() string      { return ID(id).String() }
func (id ArtifactID) String() string { return ID(id).String() }

// ParseSnapshotID parses a string into SnapshotID
func ParseSnapshotID(s string) (SnapshotID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("snapshot ID cannot be empty")
	}
	return SnapshotID(s), nil
}

// ParseReportID parses a string into ReportID
func ParseReportID(s string) (ReportID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("report ID cannot be empty")
	}
	return ReportID(s), nil
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// Artifact represents any persistable output of an analysis run
type Artifact struct {
	ID        ID           `json:"id"`
	Kind      ArtifactKind `json:"kind"`
	Payload   interface{}  `json:"payload"`
	CreatedAt Timestamp    `json:"created_at"`
}

// ArtifactKind defines types of artifacts
type ArtifactKind string

const (
	// ArtifactSteigerSweep is the full output of a correlation-comparison sweep.
	ArtifactSteigerSweep ArtifactKind = "steiger_sweep"
	// ArtifactSummaryTable is a rendered frequency or select-all-that-apply table.
	ArtifactSummaryTable ArtifactKind = "summary_table"
	// ArtifactColumnSummary captures per-variable descriptive statistics.
	ArtifactColumnSummary ArtifactKind = "column_summary"
	// ArtifactStudyReport is an assembled multi-table report.
	ArtifactStudyReport ArtifactKind = "study_report"
	ArtifactPullManifest ArtifactKind = "pull_manifest"
)
