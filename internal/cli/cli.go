// Package cli implements the command-line interface for invrollup.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/eunmann/inv-rollup/internal/config"
	"github.com/eunmann/inv-rollup/internal/exitcode"
	"github.com/eunmann/inv-rollup/pkg/logging"
	"github.com/eunmann/inv-rollup/pkg/runner"
)

// exitError carries the exit code for a failed command. Errors that were
// already reported to the operator are quiet.
type exitError struct {
	code  int
	err   error
	quiet bool
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func validationError(err error) error {
	if errors.Is(err, config.ErrUsage) {
		return &exitError{code: exitcode.UsageError, err: err}
	}
	return &exitError{code: exitcode.ValidationError, err: err}
}

// app is the state shared by the commands of one invocation.
type app struct {
	cfg        config.Config
	configPath string

	stdout io.Writer
	stderr io.Writer

	now func() time.Time
	s3  runner.Opener
}

// Run executes the CLI with the given arguments and returns the process
// exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	return run(context.Background(), &app{
		cfg:    config.Default(),
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}, args)
}

func run(ctx context.Context, a *app, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitcode.Success
	}

	var ee *exitError
	if !errors.As(err, &ee) {
		ee = &exitError{code: exitcode.UsageError, err: err}
	}
	if !ee.quiet {
		fmt.Fprintf(a.stderr, "error: %v\n", ee.err)
	}
	return ee.code
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "invrollup",
		Short: "Roll up file-server inventory extracts into per-folder storage totals",
		Long: heredoc.Doc(`
			invrollup reads pipe-delimited file inventory extracts (one row per
			file: ServerName, DirectoryName, Length, ...) and writes a summary of
			data size, subfolder count and file count per drive and top-level
			folder.

			Skipped and degraded rows are recorded in a processing log; malformed
			rows and run failures are also written to an error log.
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file")
	pf.StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "Log format: auto, text or json (or set "+config.EnvLogFormat+")")
	pf.BoolVar(&a.cfg.Debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newSummarizeCmd(a),
		newBatchCmd(a),
		newSplitCmd(a),
		newColsumCmd(a),
	)
	return root
}

// setup merges the config file and initializes logging.
func (a *app) setup(cmd *cobra.Command) error {
	if a.configPath != "" {
		if err := a.cfg.LoadFromFile(a.configPath, cmd.Flags().Changed); err != nil {
			return &exitError{code: exitcode.ValidationError, err: err}
		}
	}
	if err := a.cfg.Validate(); err != nil {
		return validationError(err)
	}
	logging.InitWriter(a.stderr, a.cfg.Debug, humanLogs(a.cfg.LogFormat, a.stderr))
	return nil
}

// humanLogs reports whether console-formatted logs should be written to w.
func humanLogs(format string, w io.Writer) bool {
	switch format {
	case config.LogFormatText:
		return true
	case config.LogFormatJSON:
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// addRunFlags registers the flags shared by summarize and batch.
func addRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	f.StringVar(&cfg.OutDir, "out", "", "Output directory for summary files (required)")
	f.StringVar(&cfg.LogDir, "log-dir", "", "Directory for processing and error logs (default: --out)")
	f.StringVar(&cfg.Delimiter, "delimiter", cfg.Delimiter, "Extract field delimiter")
	f.StringVar(&cfg.Columns.ServerName, "server-column", cfg.Columns.ServerName, "Header name of the server column")
	f.StringVar(&cfg.Columns.DirectoryName, "directory-column", cfg.Columns.DirectoryName, "Header name of the directory column")
	f.StringVar(&cfg.Columns.Length, "length-column", cfg.Columns.Length, "Header name of the byte length column")
	f.StringVar(&cfg.UnknownServer, "unknown-server", cfg.UnknownServer, "Server label used when the first row has none")
	f.BoolVar(&cfg.Parquet, "parquet", false, "Also write the summary as Parquet")
	f.Uint64Var(&cfg.ProgressEvery, "progress-every", cfg.ProgressEvery, "Log progress every N rows")
}

func (a *app) runnerConfig(label, input string) runner.Config {
	return runner.Config{
		Label:         label,
		Input:         input,
		OutDir:        a.cfg.OutDir,
		LogDir:        a.cfg.LogDir,
		Reader:        a.cfg.ReaderConfig(),
		UnknownServer: a.cfg.UnknownServer,
		Parquet:       a.cfg.Parquet,
		ProgressEvery: a.cfg.ProgressEvery,
		S3:            a.s3,
		Now:           a.now,
	}
}
