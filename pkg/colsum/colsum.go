// Package colsum totals one numeric column of an extract and reports it in
// bytes, KB, MB and GB.
package colsum

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/eunmann/inv-rollup/internal/logctx"
	"github.com/eunmann/inv-rollup/pkg/fileutil"
	"github.com/eunmann/inv-rollup/pkg/humanfmt"
	"github.com/eunmann/inv-rollup/pkg/inventory"
	"github.com/eunmann/inv-rollup/pkg/rollup"
)

// DefaultColumn is the column summed when none is given.
const DefaultColumn = inventory.ColLength

// ErrOverflow indicates the column total does not fit in 64 bits.
var ErrOverflow = errors.New("column total overflows uint64")

// Result is the outcome of summing one column.
type Result struct {
	Name   string
	Column string
	Total  uint64

	// Values counts summed cells; Skipped counts non-numeric cells and
	// Malformed counts rows that did not fit the header.
	Values    uint64
	Skipped   uint64
	Malformed uint64

	// ColumnMissing is set when the header lacks Column; Total is then 0.
	ColumnMissing bool
}

// SumFile sums column over the extract at path. Compressed and Parquet
// extracts are read the same way the rollup reads them.
func SumFile(ctx context.Context, path, column, delimiter string) (Result, error) {
	if column == "" {
		column = DefaultColumn
	}
	res := Result{Name: baseName(path), Column: column}

	f, err := os.Open(path)
	if err != nil {
		return res, fmt.Errorf("open input: %w", err)
	}

	// The target column is mapped as both required columns so the shared
	// reader validates and extracts it.
	rd, err := inventory.NewReaderFromStream(f, path, inventory.ReaderConfig{
		Columns: inventory.Columns{
			ServerName:    inventory.ColServerName,
			DirectoryName: column,
			Length:        column,
		},
		Delimiter: delimiter,
	})
	if errors.Is(err, inventory.ErrMissingColumn) || errors.Is(err, inventory.ErrEmptyExtract) {
		log := logctx.FromContext(ctx)
		log.Warn().
			Str("input", path).
			Str("column", column).
			Msg("column not found, total is 0")
		res.ColumnMissing = true
		return res, nil
	}
	if err != nil {
		return res, err
	}
	defer rd.Close()

	return Sum(ctx, rd, res)
}

// Sum adds the Length field of every row read from rd to res.
func Sum(ctx context.Context, rd inventory.Reader, res Result) (Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		row, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		var rowErr *inventory.RowError
		if errors.As(err, &rowErr) {
			res.Malformed++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("read extract: %w", err)
		}

		n, ok := rollup.ParseLength(row.Length)
		if !ok {
			res.Skipped++
			continue
		}
		total, carry := bits.Add64(res.Total, n, 0)
		if carry != 0 {
			return res, ErrOverflow
		}
		res.Total = total
		res.Values++
	}
}

// Lines renders the report lines.
func (r Result) Lines() []string {
	prefix := fmt.Sprintf("Total %s Sum for %s: ", r.Column, r.Name)
	return []string{
		prefix + strconv.FormatUint(r.Total, 10) + " Bytes",
		prefix + humanfmt.FormatUnit(r.Total, 10) + " KB",
		prefix + humanfmt.FormatUnit(r.Total, 20) + " MB",
		prefix + humanfmt.FormatUnit(r.Total, 30) + " GB",
	}
}

// WriteReport writes the report lines to w.
func WriteReport(w io.Writer, r Result) error {
	bw := bufio.NewWriter(w)
	for _, line := range r.Lines() {
		bw.WriteString(line)
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteReportFile writes output_<name>_<timestamp>.txt in dir and returns
// its path.
func WriteReportFile(dir string, r Result, ts time.Time) (string, error) {
	path := filepath.Join(dir, fileutil.RunFileName("output", r.Name, ts, ".txt"))
	err := fileutil.WriteTmpThenMove(dir, path, func(tmp string) error {
		f, err := os.Create(tmp)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		if err := WriteReport(f, r); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func baseName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
