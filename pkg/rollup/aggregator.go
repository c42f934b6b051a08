// Package rollup aggregates inventory rows into per-drive, per-top-level-folder
// storage totals.
package rollup

import (
	"time"

	"github.com/eunmann/inv-rollup/pkg/humanfmt"
	"github.com/eunmann/inv-rollup/pkg/inventory"
	"github.com/eunmann/inv-rollup/pkg/pathkey"
)

// UnknownServer labels runs whose first row carries no server name.
const UnknownServer = "Unknown"

// Outcome is the result of ingesting one row.
type Outcome int

const (
	// Accepted rows were fully aggregated.
	Accepted Outcome = iota
	// Degraded rows were aggregated with a zero byte length.
	Degraded
	// Skipped rows contributed nothing.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Degraded:
		return "degraded"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// FolderStats holds running totals for one FolderKey.
type FolderStats struct {
	TotalBytes uint64
	FileCount  uint64
	// subfolders holds directory-chain identifiers only, never a chain
	// ending in a filename.
	subfolders map[string]struct{}
}

// SubfolderCount returns the number of distinct subfolder identifiers.
func (s *FolderStats) SubfolderCount() int {
	return len(s.subfolders)
}

// Counters summarizes what happened to the rows of a run.
type Counters struct {
	Rows      uint64
	Accepted  uint64
	Degraded  uint64
	Skipped   uint64
	Malformed uint64
}

// Config configures an Aggregator.
type Config struct {
	// UnknownServer replaces UnknownServer as the fallback label.
	UnknownServer string
	// Sink receives audit entries. Nil discards them.
	Sink AuditSink
	// Now stamps audit entries. Defaults to time.Now.
	Now func() time.Time
}

// Aggregator folds inventory rows into per-key statistics for one run.
// It is not safe for concurrent use; construct one per run.
type Aggregator struct {
	stats map[pathkey.FolderKey]*FolderStats
	order []pathkey.FolderKey

	serverName     string
	serverCaptured bool
	unknownServer  string

	sink     AuditSink
	now      func() time.Time
	counters Counters
}

// New creates an empty Aggregator.
func New(cfg Config) *Aggregator {
	if cfg.UnknownServer == "" {
		cfg.UnknownServer = UnknownServer
	}
	if cfg.Sink == nil {
		cfg.Sink = discardSink{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Aggregator{
		stats:         make(map[pathkey.FolderKey]*FolderStats),
		unknownServer: cfg.UnknownServer,
		sink:          cfg.Sink,
		now:           cfg.Now,
	}
}

// Ingest validates row and adds it to the aggregate. Row-level problems
// never fail the run: they are audited and reported through the Outcome.
func (a *Aggregator) Ingest(row inventory.Row) Outcome {
	a.counters.Rows++
	a.captureServer(row.ServerName)

	if row.IsEmpty() {
		return a.skip(row, ReasonEmptyRow, "all fields empty")
	}
	if row.DirectoryName == "" {
		return a.skip(row, ReasonMissingDirectory, "DirectoryName is empty")
	}

	size, ok := ParseLength(row.Length)

	key, ids := pathkey.Decompose(row.DirectoryName)
	st := a.stats[key]
	if st == nil {
		st = &FolderStats{subfolders: make(map[string]struct{})}
		a.stats[key] = st
		a.order = append(a.order, key)
	}
	st.TotalBytes += size
	st.FileCount++
	for _, id := range ids {
		st.subfolders[id] = struct{}{}
	}

	if !ok {
		a.counters.Degraded++
		a.record(row.Line, row.Raw, ReasonNonNumericLength, "Length "+quote(row.Length)+" counted as 0 bytes")
		return Degraded
	}
	a.counters.Accepted++
	return Accepted
}

// Skip records a row the reader rejected before it could be ingested.
func (a *Aggregator) Skip(line int, raw string, reason Reason, detail string) {
	a.counters.Rows++
	a.counters.Skipped++
	if reason == ReasonMalformedRow {
		a.counters.Malformed++
	}
	a.record(line, raw, reason, detail)
}

func (a *Aggregator) skip(row inventory.Row, reason Reason, detail string) Outcome {
	a.counters.Skipped++
	a.record(row.Line, row.Raw, reason, detail)
	return Skipped
}

func (a *Aggregator) record(line int, raw string, reason Reason, detail string) {
	a.sink.Record(AuditEntry{
		Time:   a.now(),
		Reason: reason,
		Line:   line,
		Raw:    raw,
		Detail: detail,
	})
}

// captureServer keeps the server name of the first ingested row only.
func (a *Aggregator) captureServer(name string) {
	if a.serverCaptured {
		return
	}
	a.serverCaptured = true
	a.serverName = name
}

// ServerName returns the run-wide server label.
func (a *Aggregator) ServerName() string {
	if a.serverName == "" {
		return a.unknownServer
	}
	return a.serverName
}

// Stats returns the accumulator for key, or nil.
func (a *Aggregator) Stats(key pathkey.FolderKey) *FolderStats {
	return a.stats[key]
}

// KeyCount returns the number of distinct folder keys seen.
func (a *Aggregator) KeyCount() int {
	return len(a.order)
}

// Counters returns the row counters so far.
func (a *Aggregator) Counters() Counters {
	return a.counters
}

// Finalize builds the summary in first-seen key order.
func (a *Aggregator) Finalize() Summary {
	server := a.ServerName()
	s := Summary{
		ServerName: server,
		Rows:       make([]SummaryRow, 0, len(a.order)),
	}
	for _, key := range a.order {
		st := a.stats[key]
		s.Rows = append(s.Rows, SummaryRow{
			ServerName:     server,
			Drive:          key.Drive,
			TopLevelFolder: key.TopLevelFolder,
			TotalBytes:     st.TotalBytes,
			DataGB:         humanfmt.FormatGB(st.TotalBytes),
			SubfolderCount: st.SubfolderCount(),
			FileCount:      st.FileCount,
		})
	}
	return s
}

// ParseLength parses s as a byte count. It succeeds only when s is a
// non-empty run of ASCII digits that fits in uint64.
func ParseLength(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint64(c - '0')
		if n > (^uint64(0)-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	return n, true
}

func quote(s string) string {
	return `"` + s + `"`
}
