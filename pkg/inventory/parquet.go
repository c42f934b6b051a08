package inventory

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// parquetReader reads inventory rows from Parquet extracts.
// It implements streaming by iterating through row groups.
type parquetReader struct {
	tempFile  *os.File // Temp file for buffering (only if created by us)
	serverCol int      // -1 if not available
	dirCol    int
	lengthCol int
	ordinal   int

	// Row group iteration state
	rowGroups    []parquet.RowGroup
	currentRGIdx int
	currentRows  parquet.Rows
	rowBuf       []parquet.Row
	bufIdx       int
	bufLen       int
}

// NewParquetReader creates a Parquet extract reader from an io.ReaderAt.
func NewParquetReader(r io.ReaderAt, size int64, cols Columns) (Reader, error) {
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	return newParquetReader(file, nil, cols.withDefaults())
}

// NewParquetReaderFromStream creates a Parquet extract reader from a stream.
// Since Parquet requires random access, the stream is buffered to a temp file.
func NewParquetReaderFromStream(r io.ReadCloser, cols Columns) (Reader, error) {
	tempFile, err := os.CreateTemp("", "inventory-extract-*.parquet")
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	written, err := io.Copy(tempFile, r)
	r.Close()
	if err != nil {
		discardTemp(tempFile)
		return nil, fmt.Errorf("buffer parquet data: %w", err)
	}

	file, err := parquet.OpenFile(tempFile, written)
	if err != nil {
		discardTemp(tempFile)
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	pr, err := newParquetReader(file, tempFile, cols.withDefaults())
	if err != nil {
		discardTemp(tempFile)
		return nil, err
	}
	return pr, nil
}

func discardTemp(f *os.File) {
	f.Close()
	os.Remove(f.Name())
}

// newParquetReader resolves column indices from the schema. Leaf columns of
// a flat schema are numbered in Fields() order.
func newParquetReader(file *parquet.File, tempFile *os.File, cols Columns) (*parquetReader, error) {
	r := &parquetReader{
		tempFile:     tempFile,
		serverCol:    -1,
		dirCol:       -1,
		lengthCol:    -1,
		rowGroups:    file.RowGroups(),
		currentRGIdx: -1,
		rowBuf:       make([]parquet.Row, 1024),
	}

	for i, field := range file.Schema().Fields() {
		switch name := field.Name(); {
		case strings.EqualFold(name, cols.ServerName):
			r.serverCol = i
		case strings.EqualFold(name, cols.DirectoryName):
			r.dirCol = i
		case strings.EqualFold(name, cols.Length):
			r.lengthCol = i
		}
	}

	if r.dirCol < 0 {
		return nil, fmt.Errorf("%w %q", ErrMissingColumn, cols.DirectoryName)
	}
	if r.lengthCol < 0 {
		return nil, fmt.Errorf("%w %q", ErrMissingColumn, cols.Length)
	}
	return r, nil
}

// Next returns the next inventory row.
func (r *parquetReader) Next() (Row, error) {
	for {
		if r.bufIdx < r.bufLen {
			row := r.rowBuf[r.bufIdx]
			r.bufIdx++
			r.ordinal++
			return r.toRow(row), nil
		}

		if r.currentRows != nil {
			n, err := r.currentRows.ReadRows(r.rowBuf)
			if n > 0 {
				r.bufIdx = 0
				r.bufLen = n
				continue
			}
			if err != nil && !errors.Is(err, io.EOF) {
				return Row{}, fmt.Errorf("read parquet rows: %w", err)
			}
			// Current row group exhausted
			r.currentRows.Close()
			r.currentRows = nil
		}

		r.currentRGIdx++
		if r.currentRGIdx >= len(r.rowGroups) {
			return Row{}, io.EOF
		}
		r.currentRows = r.rowGroups[r.currentRGIdx].Rows()
	}
}

// toRow converts a parquet.Row to a Row. Numeric columns are rendered in
// decimal so Length follows the same validation as text extracts.
func (r *parquetReader) toRow(row parquet.Row) Row {
	out := Row{Line: r.ordinal}

	for _, val := range row {
		if val.IsNull() {
			continue
		}
		switch val.Column() {
		case r.serverCol:
			out.ServerName = valueText(val)
		case r.dirCol:
			out.DirectoryName = valueText(val)
		case r.lengthCol:
			out.Length = valueText(val)
		default:
			if valueText(val) != "" {
				out.OtherFields = true
			}
		}
	}

	out.Raw = strings.Join([]string{out.ServerName, out.DirectoryName, out.Length}, DefaultDelimiter)
	return out
}

func valueText(v parquet.Value) string {
	switch v.Kind() {
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	default:
		return v.String()
	}
}

// Close releases resources.
func (r *parquetReader) Close() error {
	if r.currentRows != nil {
		r.currentRows.Close()
	}
	if r.tempFile != nil {
		discardTemp(r.tempFile)
	}
	return nil
}
