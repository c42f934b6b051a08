// Package audit writes the human-readable processing and error logs of a run.
//
// Every event goes to the processing log; error-level events (malformed rows
// and run failures) are also written to the error log. Both files are opened
// in append mode and each line starts with an RFC3339 timestamp.
package audit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/eunmann/inv-rollup/pkg/fileutil"
	"github.com/eunmann/inv-rollup/pkg/rollup"
)

// Options configures Open.
type Options struct {
	// Dir receives the log files.
	Dir string
	// Label qualifies the file names.
	Label string
	// Started is the run start time used in the file names.
	Started time.Time
	// RunID is added to every line.
	RunID string
}

// Log is a run's audit trail. It implements rollup.AuditSink.
type Log struct {
	logger  zerolog.Logger
	closers []io.Closer
	counts  map[rollup.Reason]int

	// ProcessingPath and ErrorPath are empty for logs built with New.
	ProcessingPath string
	ErrorPath      string
}

var _ rollup.AuditSink = (*Log)(nil)

// Open creates (or appends to) the processing and error logs in opts.Dir.
func Open(opts Options) (*Log, error) {
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	procPath := filepath.Join(opts.Dir, fileutil.RunFileName("processing", opts.Label, opts.Started, ".log"))
	errPath := filepath.Join(opts.Dir, fileutil.RunFileName("errors", opts.Label, opts.Started, ".log"))

	procFile, err := openAppend(procPath)
	if err != nil {
		return nil, err
	}
	errFile, err := openAppend(errPath)
	if err != nil {
		procFile.Close()
		return nil, err
	}

	l := New(procFile, errFile, opts.RunID)
	l.closers = []io.Closer{procFile, errFile}
	l.ProcessingPath = procPath
	l.ErrorPath = errPath
	return l, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	return f, nil
}

// New builds a Log over arbitrary writers.
func New(processing, errorsOut io.Writer, runID string) *Log {
	out := zerolog.MultiLevelWriter(
		zerolog.LevelWriterAdapter{Writer: plainWriter(processing)},
		&zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: plainWriter(errorsOut)},
			Level:  zerolog.ErrorLevel,
		},
	)

	ctx := zerolog.New(out).Level(zerolog.InfoLevel).With()
	if runID != "" {
		ctx = ctx.Str("run_id", runID)
	}

	return &Log{
		logger: ctx.Logger(),
		counts: make(map[rollup.Reason]int),
	}
}

func plainWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.RFC3339,
	}
}

// Record writes one row-level entry.
func (l *Log) Record(e rollup.AuditEntry) {
	l.counts[e.Reason]++

	var ev *zerolog.Event
	switch e.Reason {
	case rollup.ReasonMalformedRow, rollup.ReasonRunFailed:
		ev = l.logger.Error()
	default:
		ev = l.logger.Warn()
	}

	ev = ev.Time(zerolog.TimestampFieldName, e.Time).
		Str("reason", string(e.Reason))
	if e.Line > 0 {
		ev = ev.Int("line", e.Line)
	}
	if e.Detail != "" {
		ev = ev.Str("detail", e.Detail)
	}

	verb := "skipped row"
	if e.Reason.Degraded() {
		verb = "degraded row"
	}
	if e.Raw == "" {
		ev.Msg(verb)
		return
	}
	ev.Msg(verb + ": " + e.Raw)
}

// Failure records a run-level failure and returns the entry written.
func (l *Log) Failure(at time.Time, err error) rollup.AuditEntry {
	e := rollup.AuditEntry{
		Time:   at,
		Reason: rollup.ReasonRunFailed,
		Detail: err.Error(),
	}
	l.counts[e.Reason]++
	l.logger.Error().
		Time(zerolog.TimestampFieldName, at).
		Str("reason", string(e.Reason)).
		Msg("run failed: " + e.Detail)
	return e
}

// Info starts an informational processing-log event (run start, completion).
func (l *Log) Info() *zerolog.Event {
	return l.logger.Info().Timestamp()
}

// Count returns how many entries with reason were recorded.
func (l *Log) Count(reason rollup.Reason) int {
	return l.counts[reason]
}

// Close closes the underlying files, if any.
func (l *Log) Close() error {
	var errs []error
	for _, c := range l.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.closers = nil
	return errors.Join(errs...)
}
