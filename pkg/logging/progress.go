package logging

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/eunmann/inv-rollup/pkg/humanfmt"
)

// DefaultProgressEvery is the default row interval between progress events.
const DefaultProgressEvery = 1_000_000

// RowProgress emits a progress event every N rows of a long read.
// It is not safe for concurrent use; one run owns one tracker.
type RowProgress struct {
	log       zerolog.Logger
	phase     string
	every     uint64
	rows      uint64
	startTime time.Time
	now       func() time.Time
}

// NewRowProgress creates a tracker that logs every `every` rows.
// every == 0 selects DefaultProgressEvery.
func NewRowProgress(log zerolog.Logger, phase string, every uint64) *RowProgress {
	if every == 0 {
		every = DefaultProgressEvery
	}
	return &RowProgress{
		log:       log,
		phase:     phase,
		every:     every,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Add records one row and logs when an interval boundary is crossed.
func (p *RowProgress) Add() {
	p.rows++
	if p.rows%p.every != 0 {
		return
	}

	elapsed := p.now().Sub(p.startTime)
	e := p.log.Info().
		Str("event", "rows_progress").
		Str("phase", p.phase).
		Uint64("rows", p.rows).
		Int64("elapsed_ms", elapsed.Milliseconds())
	if IsPrettyMode() {
		e = e.Str("rows_h", humanfmt.Count(p.rows)).
			Str("rate_h", humanfmt.RowRate(p.rows, elapsed))
	}
	e.Msg("reading extract")
}

// Rows returns the number of rows recorded.
func (p *RowProgress) Rows() uint64 {
	return p.rows
}

// Elapsed returns time since tracking started.
func (p *RowProgress) Elapsed() time.Duration {
	return p.now().Sub(p.startTime)
}

// CompletionEvent helps build consistent completion log events.
type CompletionEvent struct {
	log     zerolog.Logger
	event   string
	phase   string
	elapsed time.Duration
	fields  map[string]interface{}
}

// NewCompletionEvent creates a new completion event builder.
func NewCompletionEvent(log zerolog.Logger, event, phase string, elapsed time.Duration) *CompletionEvent {
	return &CompletionEvent{
		log:     log,
		event:   event,
		phase:   phase,
		elapsed: elapsed,
		fields:  make(map[string]interface{}),
	}
}

// Str adds a string field.
func (ce *CompletionEvent) Str(key, val string) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Int adds an int field.
func (ce *CompletionEvent) Int(key string, val int) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Uint64 adds a uint64 field.
func (ce *CompletionEvent) Uint64(key string, val uint64) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Bytes adds byte count with optional human-readable companion.
func (ce *CompletionEvent) Bytes(key string, bytes uint64) *CompletionEvent {
	ce.fields[key] = bytes
	if IsPrettyMode() {
		ce.fields[key+"_h"] = humanfmt.Bytes(bytes)
	}
	return ce
}

// Rows adds a row count and, when elapsed is known, a rate companion.
func (ce *CompletionEvent) Rows(key string, n uint64) *CompletionEvent {
	ce.fields[key] = n
	if IsPrettyMode() {
		ce.fields[key+"_h"] = humanfmt.Count(n)
		if ce.elapsed > 0 {
			ce.fields[key+"_rate_h"] = humanfmt.RowRate(n, ce.elapsed)
		}
	}
	return ce
}

// Log emits the completion event.
func (ce *CompletionEvent) Log(msg string) {
	e := ce.log.Info().
		Str("event", ce.event).
		Str("phase", ce.phase).
		Int64("duration_ms", ce.elapsed.Milliseconds())

	if IsPrettyMode() {
		e = e.Str("duration_h", humanfmt.Duration(ce.elapsed))
	}

	for k, v := range ce.fields {
		e = e.Interface(k, v)
	}

	e.Msg(msg)
}

// PhaseComplete logs a phase completion event.
func PhaseComplete(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "phase_completed", phase, elapsed)
}

// FileCreated logs a file creation completion event.
func FileCreated(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "file_created", phase, elapsed)
}
