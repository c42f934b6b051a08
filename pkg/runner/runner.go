// Package runner drives one rollup run: it opens an extract, folds every row
// into a fresh rollup.Aggregator, and writes the summary files.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/eunmann/inv-rollup/internal/logctx"
	"github.com/eunmann/inv-rollup/pkg/audit"
	"github.com/eunmann/inv-rollup/pkg/fileutil"
	"github.com/eunmann/inv-rollup/pkg/inventory"
	"github.com/eunmann/inv-rollup/pkg/logging"
	"github.com/eunmann/inv-rollup/pkg/memdiag"
	"github.com/eunmann/inv-rollup/pkg/rollup"
	"github.com/eunmann/inv-rollup/pkg/s3fetch"
	"github.com/eunmann/inv-rollup/pkg/summary"
)

// Opener opens remote extracts by URI. *s3fetch.Client implements it.
type Opener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Config configures a single run.
type Config struct {
	// Label qualifies output and log file names.
	Label string
	// Input is a local path or an s3:// URI.
	Input string
	// OutDir receives the summary files.
	OutDir string
	// LogDir receives the audit logs. Defaults to OutDir.
	LogDir string

	Reader        inventory.ReaderConfig
	UnknownServer string
	Parquet       bool
	ProgressEvery uint64

	// S3 opens s3:// inputs. Nil creates a client from the default AWS config.
	S3 Opener
	// Now defaults to time.Now.
	Now func() time.Time
}

// Report describes a completed run.
type Report struct {
	RunID      string
	Label      string
	ServerName string

	Counters   rollup.Counters
	BlankLines int
	Keys       int
	TotalBytes uint64
	TotalFiles uint64

	SummaryPath   string
	ParquetPath   string
	ProcessingLog string
	ErrorLog      string

	Started  time.Time
	Elapsed  time.Duration
	PeakHeap uint64
}

// Run executes one run. Row-level problems are audited and never fail the
// run; anything else aborts it with a *RunFailure and no summary file.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if cfg.Input == "" {
		return nil, errors.New("input is required")
	}
	if cfg.OutDir == "" {
		return nil, errors.New("output directory is required")
	}
	if cfg.LogDir == "" {
		cfg.LogDir = cfg.OutDir
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	started := cfg.Now()
	runID := uuid.NewString()
	ctx = logctx.WithRun(ctx, runID, cfg.Label)
	ctx = logctx.WithStr(ctx, "input", cfg.Input)
	log := logctx.FromContext(ctx)

	alog, err := audit.Open(audit.Options{
		Dir:     cfg.LogDir,
		Label:   cfg.Label,
		Started: started,
		RunID:   runID,
	})
	if err != nil {
		return nil, &RunFailure{Label: cfg.Label, Stage: StageLog, Err: err, Time: cfg.Now()}
	}
	defer alog.Close()

	log.Info().
		Str("out_dir", cfg.OutDir).
		Str("processing_log", alog.ProcessingPath).
		Msg("starting run")
	alog.Info().Str("input", cfg.Input).Msg("run started")

	rep := &Report{
		RunID:         runID,
		Label:         cfg.Label,
		ProcessingLog: alog.ProcessingPath,
		ErrorLog:      alog.ErrorPath,
		Started:       started,
	}

	mem := memdiag.NewTracker(memdiag.DefaultConfig(), log)
	mem.Start()
	defer mem.Stop()

	if err := execute(ctx, cfg, alog, mem, rep); err != nil {
		fail := asFailure(cfg, err, alog.ErrorPath)
		alog.Failure(fail.Time, fail)
		log.Error().
			Err(fail.Err).
			Str("stage", string(fail.Stage)).
			Str("error_log", fail.ErrorLog).
			Msg("run failed")
		return nil, fail
	}

	rep.Elapsed = cfg.Now().Sub(started)
	rep.PeakHeap = mem.PeakHeap()
	alog.Info().
		Str("summary", rep.SummaryPath).
		Uint64("rows", rep.Counters.Rows).
		Uint64("accepted", rep.Counters.Accepted).
		Uint64("degraded", rep.Counters.Degraded).
		Uint64("skipped", rep.Counters.Skipped).
		Int("keys", rep.Keys).
		Msg("run completed")
	logging.PhaseComplete(log, "summarize", rep.Elapsed).
		Str("server_name", rep.ServerName).
		Rows("rows", rep.Counters.Rows).
		Uint64("skipped", rep.Counters.Skipped).
		Uint64("degraded", rep.Counters.Degraded).
		Int("keys", rep.Keys).
		Bytes("total_bytes", rep.TotalBytes).
		Bytes("peak_heap", rep.PeakHeap).
		Str("summary", rep.SummaryPath).
		Log("run complete")

	return rep, nil
}

func execute(ctx context.Context, cfg Config, alog *audit.Log, mem *memdiag.Tracker, rep *Report) error {
	src, err := openInput(ctx, cfg)
	if err != nil {
		return &RunFailure{Stage: StageOpen, Err: err}
	}

	rd, err := inventory.NewReaderFromStream(src, cfg.Input, cfg.Reader)
	if err != nil {
		stage := StageOpen
		if errors.Is(err, inventory.ErrMissingColumn) || errors.Is(err, inventory.ErrEmptyExtract) {
			stage = StageHeader
		}
		return &RunFailure{Stage: stage, Err: err}
	}
	defer rd.Close()

	agg := rollup.New(rollup.Config{
		UnknownServer: cfg.UnknownServer,
		Sink:          alog,
		Now:           cfg.Now,
	})
	mem.SetPhase("ingest")
	if err := ingest(ctx, rd, agg, cfg.ProgressEvery); err != nil {
		return &RunFailure{Stage: StageRead, Err: err}
	}
	if bc, ok := rd.(inventory.BlankLineCounter); ok {
		rep.BlankLines = bc.BlankLines()
	}

	mem.SetPhase("finalize")
	s := agg.Finalize()
	rep.ServerName = s.ServerName
	rep.Counters = agg.Counters()
	rep.Keys = agg.KeyCount()
	rep.TotalBytes = s.TotalBytes()
	rep.TotalFiles = s.TotalFiles()

	mem.SetPhase("write")
	if err := writeOutputs(ctx, cfg, rep, s); err != nil {
		return &RunFailure{Stage: StageWrite, Err: err}
	}
	return nil
}

func ingest(ctx context.Context, rd inventory.Reader, agg *rollup.Aggregator, every uint64) error {
	progress := logging.NewRowProgress(logctx.FromContext(ctx), "ingest", every)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := rd.Next()
		if errors.Is(err, io.EOF) {
			logging.PhaseComplete(logctx.FromContext(ctx), "ingest", progress.Elapsed()).
				Rows("rows", progress.Rows()).
				Int("keys", agg.KeyCount()).
				Log("extract read")
			return nil
		}
		var rowErr *inventory.RowError
		if errors.As(err, &rowErr) {
			agg.Skip(rowErr.Line, rowErr.Raw, rollup.ReasonMalformedRow,
				fmt.Sprintf("got %d fields, header has %d", rowErr.Fields, rowErr.Want))
			progress.Add()
			continue
		}
		if err != nil {
			return fmt.Errorf("read extract: %w", err)
		}

		agg.Ingest(row)
		progress.Add()
	}
}

func openInput(ctx context.Context, cfg Config) (io.ReadCloser, error) {
	if !s3fetch.IsS3URI(cfg.Input) {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		return f, nil
	}

	opener := cfg.S3
	if opener == nil {
		client, err := s3fetch.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		opener = client
	}
	return opener.Open(ctx, cfg.Input)
}

// writeOutputs writes the summary (and optional Parquet copy). On failure
// nothing is left in OutDir.
func writeOutputs(ctx context.Context, cfg Config, rep *Report, s rollup.Summary) error {
	log := logctx.FromContext(ctx)
	if err := fileutil.CleanupTmpFiles(cfg.OutDir); err != nil {
		log.Warn().Err(err).Msg("tmp cleanup failed")
	}

	csvPath := filepath.Join(cfg.OutDir, fileutil.RunFileName("summary", cfg.Label, rep.Started, ".csv"))
	pqPath := filepath.Join(cfg.OutDir, fileutil.RunFileName("summary", cfg.Label, rep.Started, ".parquet"))
	for _, p := range []string{csvPath, pqPath} {
		if fileutil.Exists(p) {
			return fmt.Errorf("%s already exists", p)
		}
	}

	start := time.Now()
	err := fileutil.WriteTmpThenMove(cfg.OutDir, csvPath, func(tmp string) error {
		return summary.WriteDelimitedFile(tmp, s)
	})
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	rep.SummaryPath = csvPath
	logging.FileCreated(log, "write", time.Since(start)).
		Str("path", csvPath).
		Int("rows", len(s.Rows)).
		Log("summary written")

	if !cfg.Parquet {
		return nil
	}

	start = time.Now()
	err = fileutil.WriteTmpThenMove(cfg.OutDir, pqPath, func(tmp string) error {
		return summary.WriteParquetFile(tmp, s)
	})
	if err != nil {
		os.Remove(csvPath)
		rep.SummaryPath = ""
		return fmt.Errorf("write parquet summary: %w", err)
	}
	rep.ParquetPath = pqPath
	logging.FileCreated(log, "write", time.Since(start)).
		Str("path", pqPath).
		Int("rows", len(s.Rows)).
		Log("parquet summary written")
	return nil
}
