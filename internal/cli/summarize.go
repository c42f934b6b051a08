package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/eunmann/inv-rollup/internal/exitcode"
	"github.com/eunmann/inv-rollup/pkg/discover"
	"github.com/eunmann/inv-rollup/pkg/humanfmt"
	"github.com/eunmann/inv-rollup/pkg/runner"
)

func newSummarizeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize one inventory extract",
		Long: heredoc.Doc(`
			Summarize aggregates one extract into
			summary_<label>_<YYYYMMDD_HHMMSS>.csv in the output directory and
			appends to processing_<label>_<ts>.log and errors_<label>_<ts>.log.

			The input may be a local file (plain, .gz or .parquet) or an
			s3://bucket/key URI. No summary is written when the run fails.
		`),
		Example: heredoc.Doc(`
			invrollup summarize --label FS01 --input FS01_inventory.txt --out ./reports
			invrollup summarize --input s3://inventories/FS02.txt.gz --out ./reports --parquet
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.summarize(cmd)
		},
	}
	cmd.Flags().StringVar(&a.cfg.Label, "label", "", "Run label used in output names (default: input base name)")
	cmd.Flags().StringVar(&a.cfg.Input, "input", "", "Extract path or s3:// URI (required)")
	addRunFlags(cmd, &a.cfg)
	return cmd
}

func (a *app) summarize(cmd *cobra.Command) error {
	if err := a.cfg.ValidateRun(); err != nil {
		return validationError(err)
	}
	label := a.cfg.Label
	if label == "" {
		label = discover.Label(a.cfg.Input)
	}

	rep, err := runner.Run(cmd.Context(), a.runnerConfig(label, a.cfg.Input))
	if err != nil {
		return a.runFailed(err)
	}
	printReport(a.stdout, rep)
	return nil
}

// runFailed reports a failed run on stderr and returns its exit error.
func (a *app) runFailed(err error) error {
	var fail *runner.RunFailure
	if errors.As(err, &fail) && fail.ErrorLog != "" {
		fmt.Fprintf(a.stderr, "run failed, see %s\n", fail.ErrorLog)
		return &exitError{code: exitcode.RunFailed, err: err, quiet: true}
	}
	return &exitError{code: exitcode.RunFailed, err: err}
}

func printReport(w io.Writer, rep *runner.Report) {
	c := rep.Counters
	fmt.Fprintf(w, "Summary for %s (server %s)\n", rep.Label, rep.ServerName)
	fmt.Fprintf(w, "  rows read:      %s\n", humanize.Comma(int64(c.Rows)))
	fmt.Fprintf(w, "  rows ingested:  %s (%s degraded)\n",
		humanize.Comma(int64(c.Accepted+c.Degraded)), humanize.Comma(int64(c.Degraded)))
	fmt.Fprintf(w, "  rows skipped:   %s (%s malformed)\n",
		humanize.Comma(int64(c.Skipped)), humanize.Comma(int64(c.Malformed)))
	if rep.BlankLines > 0 {
		fmt.Fprintf(w, "  blank lines:    %s\n", humanize.Comma(int64(rep.BlankLines)))
	}
	fmt.Fprintf(w, "  folder keys:    %s\n", humanize.Comma(int64(rep.Keys)))
	fmt.Fprintf(w, "  total size:     %s in %s files\n",
		humanize.IBytes(rep.TotalBytes), humanize.Comma(int64(rep.TotalFiles)))
	fmt.Fprintf(w, "  elapsed:        %s (peak heap %s)\n", humanfmt.Duration(rep.Elapsed), humanize.IBytes(rep.PeakHeap))
	fmt.Fprintf(w, "  summary:        %s\n", rep.SummaryPath)
	if rep.ParquetPath != "" {
		fmt.Fprintf(w, "  parquet:        %s\n", rep.ParquetPath)
	}
	fmt.Fprintf(w, "  processing log: %s\n", rep.ProcessingLog)
	fmt.Fprintf(w, "  error log:      %s\n", rep.ErrorLog)
}
