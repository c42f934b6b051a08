package cli

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/eunmann/inv-rollup/internal/config"
	"github.com/eunmann/inv-rollup/internal/exitcode"
	"github.com/eunmann/inv-rollup/pkg/colsum"
)

type colsumOptions struct {
	input  string
	column string
	outDir string
}

func newColsumCmd(a *app) *cobra.Command {
	var opts colsumOptions
	cmd := &cobra.Command{
		Use:   "colsum",
		Short: "Total one numeric column of an extract",
		Long: heredoc.Doc(`
			Colsum adds up the digit-only values of one column and reports the
			total in bytes, KB, MB and GB. The report is printed and written to
			output_<name>_<YYYYMMDD_HHMMSS>.txt in --out.

			A missing column yields a total of 0. Non-numeric values are skipped.
		`),
		Example: heredoc.Doc(`
			invrollup colsum --input FS01_inventory.txt
			invrollup colsum --input FS01_inventory.txt --column Size --out ./reports
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.colsum(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.input, "input", "", "Extract to read (required)")
	f.StringVar(&opts.column, "column", colsum.DefaultColumn, "Column to sum")
	f.StringVar(&opts.outDir, "out", ".", "Directory for the report file")
	f.StringVar(&a.cfg.Delimiter, "delimiter", a.cfg.Delimiter, "Extract field delimiter")
	return cmd
}

func (a *app) colsum(cmd *cobra.Command, opts colsumOptions) error {
	if opts.input == "" {
		return validationError(fmt.Errorf("%w: --input is required", config.ErrUsage))
	}
	if _, err := os.Stat(opts.input); err != nil {
		return validationError(fmt.Errorf("input not accessible: %w", err))
	}

	res, err := colsum.SumFile(cmd.Context(), opts.input, opts.column, a.cfg.Delimiter)
	if err != nil {
		return &exitError{code: exitcode.RunFailed, err: err}
	}
	if res.ColumnMissing {
		fmt.Fprintf(a.stderr, "warning: column %q not found in %s; total is 0\n", res.Column, opts.input)
	}
	if res.Skipped > 0 || res.Malformed > 0 {
		fmt.Fprintf(a.stderr, "warning: skipped %s non-numeric values and %s malformed rows\n",
			humanize.Comma(int64(res.Skipped)), humanize.Comma(int64(res.Malformed)))
	}

	for _, line := range res.Lines() {
		fmt.Fprintln(a.stdout, line)
	}
	path, err := colsum.WriteReportFile(opts.outDir, res, a.now())
	if err != nil {
		return &exitError{code: exitcode.RunFailed, err: err}
	}
	fmt.Fprintf(a.stdout, "Total %s sum has been written to %s\n", res.Column, path)
	return nil
}
