package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/eunmann/inv-rollup/internal/exitcode"
	"github.com/eunmann/inv-rollup/pkg/discover"
	"github.com/eunmann/inv-rollup/pkg/logging"
	"github.com/eunmann/inv-rollup/pkg/runner"
)

func newBatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Summarize every extract found under a directory",
		Long: heredoc.Doc(`
			Batch finds extracts (*.csv, *.txt, *.psv, *.gz, *.parquet) under
			--dir and summarizes each one in turn as an independent run labelled
			with the file's base name. A failed run does not stop the batch.

			Exit code 4 means some runs failed; 3 means all of them did.
		`),
		Example: heredoc.Doc(`
			invrollup batch --dir ./extracts --out ./reports --log-dir ./logs
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.batch(cmd)
		},
	}
	cmd.Flags().StringVar(&a.cfg.Dir, "dir", "", "Directory containing extracts (required)")
	cmd.Flags().IntVar(&a.cfg.MaxDepth, "depth", 0, "Maximum directory depth to search (0=unlimited)")
	addRunFlags(cmd, &a.cfg)
	return cmd
}

func (a *app) batch(cmd *cobra.Command) error {
	if err := a.cfg.ValidateBatch(); err != nil {
		return validationError(err)
	}

	files, err := discover.Extracts(cmd.Context(), a.cfg.Dir, discover.Options{
		Exclude:  []string{a.cfg.OutDir, a.cfg.LogDir},
		MaxDepth: a.cfg.MaxDepth,
	})
	if err != nil {
		return &exitError{code: exitcode.ValidationError, err: err}
	}
	if len(files) == 0 {
		return &exitError{code: exitcode.ValidationError, err: fmt.Errorf("no extracts found under %s", a.cfg.Dir)}
	}

	labels := uniqueLabels(files)
	var failed int
	for i, file := range files {
		rep, err := runner.Run(cmd.Context(), a.runnerConfig(labels[i], file))
		if err != nil {
			failed++
			var fail *runner.RunFailure
			if errors.As(err, &fail) && fail.ErrorLog != "" {
				fmt.Fprintf(a.stdout, "FAIL %s: run failed, see %s\n", file, fail.ErrorLog)
			} else {
				fmt.Fprintf(a.stdout, "FAIL %s: %v\n", file, err)
			}
			continue
		}
		fmt.Fprintf(a.stdout, "ok   %s: %s rows, %s keys -> %s\n",
			file, humanize.Comma(int64(rep.Counters.Rows)), humanize.Comma(int64(rep.Keys)), rep.SummaryPath)
	}

	fmt.Fprintf(a.stdout, "batch complete: %d succeeded, %d failed\n", len(files)-failed, failed)
	log := logging.WithPhase("batch")
	log.Info().
		Str("dir", a.cfg.Dir).
		Int("runs", len(files)).
		Int("failed", failed).
		Msg("batch complete")
	switch {
	case failed == 0:
		return nil
	case failed == len(files):
		return &exitError{code: exitcode.RunFailed, err: errors.New("all runs failed"), quiet: true}
	default:
		return &exitError{code: exitcode.PartialBatch, err: fmt.Errorf("%d of %d runs failed", failed, len(files)), quiet: true}
	}
}

// uniqueLabels derives run labels from file names, suffixing repeats so no
// two runs share output names.
func uniqueLabels(files []string) []string {
	seen := make(map[string]int, len(files))
	labels := make([]string, len(files))
	for i, f := range files {
		label := discover.Label(f)
		seen[label]++
		if n := seen[label]; n > 1 {
			label += "-" + strconv.Itoa(n)
		}
		labels[i] = label
	}
	return labels
}
