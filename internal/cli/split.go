package cli

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/eunmann/inv-rollup/internal/config"
	"github.com/eunmann/inv-rollup/internal/exitcode"
	"github.com/eunmann/inv-rollup/pkg/extsplit"
)

type splitOptions struct {
	input  string
	prefix string
	rows   int
}

func newSplitCmd(a *app) *cobra.Command {
	var opts splitOptions
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a large extract into parts by row count",
		Long: heredoc.Doc(`
			Split writes <prefix>_part1<ext>, <prefix>_part2<ext>, ... each with
			the header row followed by at most --rows data rows. Lines are copied
			unchanged; blank lines are dropped.
		`),
		Example: heredoc.Doc(`
			invrollup split --input FS01_inventory.txt --rows 250000 --prefix ./parts/FS01
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.split(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.input, "input", "", "Extract to split (required)")
	f.StringVar(&opts.prefix, "prefix", "", "Output path prefix (default: input path without extension)")
	f.IntVar(&opts.rows, "rows", extsplit.DefaultRows, "Maximum data rows per part")
	return cmd
}

func (a *app) split(cmd *cobra.Command, opts splitOptions) error {
	if opts.input == "" {
		return validationError(fmt.Errorf("%w: --input is required", config.ErrUsage))
	}
	if opts.rows <= 0 {
		return validationError(fmt.Errorf("--rows must be positive, got %d", opts.rows))
	}
	if _, err := os.Stat(opts.input); err != nil {
		return validationError(fmt.Errorf("input not accessible: %w", err))
	}

	parts, err := extsplit.SplitFile(cmd.Context(), opts.input, extsplit.Options{
		Prefix: opts.prefix,
		Rows:   opts.rows,
	})
	for _, p := range parts {
		fmt.Fprintf(a.stdout, "Saved: %s\n", p)
	}
	if err != nil {
		return &exitError{code: exitcode.RunFailed, err: err}
	}
	if len(parts) == 0 {
		fmt.Fprintln(a.stdout, "No data rows; nothing written.")
	}
	return nil
}
