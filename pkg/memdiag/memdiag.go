// Package memdiag reports heap usage during a run.
//
// Enable periodic debug logging with INVROLLUP_MEM_DEBUG=1.
package memdiag

import (
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/eunmann/inv-rollup/pkg/humanfmt"
)

// EnvMemDebug enables periodic memory logging when set to "1".
const EnvMemDebug = "INVROLLUP_MEM_DEBUG"

// Config holds configuration for memory diagnostics.
type Config struct {
	// Enabled controls whether periodic memory logging is active.
	Enabled bool

	// LogInterval is the interval for periodic memory logging.
	LogInterval time.Duration
}

// DefaultConfig returns the default configuration, reading from environment.
func DefaultConfig() Config {
	return Config{
		Enabled:     os.Getenv(EnvMemDebug) == "1",
		LogInterval: 5 * time.Second,
	}
}

// Stats holds memory statistics from runtime.
type Stats struct {
	// HeapAlloc is bytes allocated on heap.
	HeapAlloc uint64

	// HeapInuse is bytes in in-use spans.
	HeapInuse uint64

	// Sys is bytes obtained from OS.
	Sys uint64

	// NumGC is the number of completed GC cycles.
	NumGC uint32
}

// Read reads current memory statistics.
func Read() Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Stats{
		HeapAlloc: m.HeapAlloc,
		HeapInuse: m.HeapInuse,
		Sys:       m.Sys,
		NumGC:     m.NumGC,
	}
}

// Tracker records peak heap usage across the phases of a run.
type Tracker struct {
	config   Config
	log      zerolog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  atomic.Bool
	mu       sync.Mutex
	phase    string
	peakHeap uint64
}

// NewTracker creates a new memory tracker.
func NewTracker(config Config, log zerolog.Logger) *Tracker {
	if config.LogInterval <= 0 {
		config.LogInterval = 5 * time.Second
	}
	return &Tracker{
		config: config,
		log:    log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		phase:  "init",
	}
}

// Start begins periodic memory logging if enabled.
func (t *Tracker) Start() {
	if !t.config.Enabled {
		return
	}
	if !t.started.CompareAndSwap(false, true) {
		return
	}

	t.log.Debug().Msg("memory diagnostics enabled")
	go t.logLoop()
}

// Stop stops the tracker.
func (t *Tracker) Stop() {
	if !t.started.Load() {
		return
	}
	close(t.stopCh)
	<-t.doneCh
	t.started.Store(false)
}

// SetPhase sets the current phase and samples the heap.
func (t *Tracker) SetPhase(phase string) {
	t.mu.Lock()
	t.phase = phase
	t.mu.Unlock()

	t.Sample()
	if t.config.Enabled {
		t.LogNow("phase_change")
	}
}

// Sample reads current statistics and updates the peak.
func (t *Tracker) Sample() Stats {
	stats := Read()
	t.mu.Lock()
	if stats.HeapAlloc > t.peakHeap {
		t.peakHeap = stats.HeapAlloc
	}
	t.mu.Unlock()
	return stats
}

// PeakHeap returns the largest heap allocation sampled so far.
func (t *Tracker) PeakHeap() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peakHeap
}

// LogNow logs current memory stats at debug level.
func (t *Tracker) LogNow(reason string) {
	stats := t.Sample()

	t.mu.Lock()
	phase := t.phase
	peak := t.peakHeap
	t.mu.Unlock()

	t.log.Debug().
		Str("reason", reason).
		Str("phase", phase).
		Str("heap_alloc", humanfmt.Bytes(stats.HeapAlloc)).
		Str("heap_inuse", humanfmt.Bytes(stats.HeapInuse)).
		Str("sys_total", humanfmt.Bytes(stats.Sys)).
		Str("peak_heap", humanfmt.Bytes(peak)).
		Uint32("num_gc", stats.NumGC).
		Msg("memory stats")
}

func (t *Tracker) logLoop() {
	defer close(t.doneCh)

	ticker := time.NewTicker(t.config.LogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.LogNow("periodic")
		}
	}
}
