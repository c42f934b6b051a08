package rollup

import "time"

// Reason classifies an audit entry.
type Reason string

const (
	// ReasonEmptyRow marks a row whose fields are all empty.
	ReasonEmptyRow Reason = "EmptyRow"
	// ReasonMissingDirectory marks a row without a DirectoryName.
	ReasonMissingDirectory Reason = "MissingDirectory"
	// ReasonMalformedRow marks a row the reader could not map to the header.
	ReasonMalformedRow Reason = "MalformedRow"
	// ReasonNonNumericLength marks a row whose Length was counted as 0 bytes.
	ReasonNonNumericLength Reason = "NonNumericLength"
	// ReasonRunFailed marks a run-level failure.
	ReasonRunFailed Reason = "RunFailed"
)

// Degraded reports whether the row was still aggregated.
func (r Reason) Degraded() bool {
	return r == ReasonNonNumericLength
}

// AuditEntry records one skipped, degraded, or failed item.
type AuditEntry struct {
	Time   time.Time
	Reason Reason
	// Line is the extract line (0 for run-level entries).
	Line int
	// Raw is the offending row content, if available.
	Raw string
	// Detail is a free-form description.
	Detail string
}

// AuditSink receives audit entries as they occur.
type AuditSink interface {
	Record(AuditEntry)
}

type discardSink struct{}

func (discardSink) Record(AuditEntry) {}
