package redcap

import (
	"studykit/domain/core"
	"studykit/domain/frame"
)

// Snapshot is the archival unit of one pulled export: the parsed frame plus
// the raw CSV bytes and their checksum, so a pull can be verified and
// replayed later.
type Snapshot struct {
	ID       core.ID        `json:"id"`
	ReportID core.ReportID  `json:"report_id"`
	PulledAt core.Timestamp `json:"pulled_at"`
	Checksum core.Checksum  `json:"checksum"`
	Rows     int            `json:"rows"`
	Frame    *frame.Frame   `json:"-"`
	CSV      []byte         `json:"-"`
}

// NewSnapshot wraps a pulled frame in its archival form.
func NewSnapshot(reportID core.ReportID, f *frame.Frame, csvBody []byte) *Snapshot {
	return &Snapshot{
		ID:       core.NewID(),
		ReportID: reportID,
		PulledAt: core.Now(),
		Checksum: core.NewChecksum(csvBody),
		Rows:     f.RowCount(),
		Frame:    f,
		CSV:      csvBody,
	}
}
