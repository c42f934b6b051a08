package inventory

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultDelimiter separates fields in an extract.
const DefaultDelimiter = "|"

const utf8BOM = "\ufeff"

// ReaderConfig configures the extract reader.
type ReaderConfig struct {
	// Columns maps header names to Row fields. Zero fields use defaults.
	Columns Columns
	// Delimiter separates fields. Defaults to "|".
	Delimiter string
}

// delimitedReader reads unquoted delimited extracts line by line. Quote
// characters are ordinary data in this format, so encoding/csv is not used.
type delimitedReader struct {
	br        *bufio.Reader
	delim     string
	width     int
	serverCol int // -1 if not available
	dirCol    int
	lengthCol int
	line      int
	blank     int
	closers   []io.Closer
}

// NewDelimitedReader reads the header from r and returns a Reader over the
// remaining rows. It fails with ErrEmptyExtract when r has no header and
// with ErrMissingColumn when DirectoryName or Length are not in it.
func NewDelimitedReader(r io.Reader, cfg ReaderConfig) (Reader, error) {
	dr := &delimitedReader{
		br:    bufio.NewReaderSize(r, 1<<20),
		delim: cfg.Delimiter,
	}
	if dr.delim == "" {
		dr.delim = DefaultDelimiter
	}
	if err := dr.readHeader(cfg.Columns.withDefaults()); err != nil {
		return nil, err
	}
	return dr, nil
}

// NewReaderFromStream creates a Reader from a named stream. Names ending in
// .gz are decompressed; names ending in .parquet are read as Parquet.
// The stream is closed by the returned Reader's Close, or immediately on
// error.
func NewReaderFromStream(r io.ReadCloser, name string, cfg ReaderConfig) (Reader, error) {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".parquet") {
		return NewParquetReaderFromStream(r, cfg.Columns)
	}

	var src io.Reader = r
	closers := []io.Closer{r}

	if strings.HasSuffix(lower, ".gz") {
		gzr, err := gzip.NewReader(r)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		closers = append(closers, gzr)
		src = gzr
	}

	rd, err := NewDelimitedReader(src, cfg)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	dr := rd.(*delimitedReader)
	dr.closers = closers
	return dr, nil
}

func (r *delimitedReader) readHeader(cols Columns) error {
	var header string
	for header == "" {
		line, err := r.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrEmptyExtract
			}
			return fmt.Errorf("read header: %w", err)
		}
		header = strings.TrimPrefix(line, utf8BOM)
	}

	names := strings.Split(header, r.delim)
	r.width = len(names)
	r.serverCol = columnIndex(names, cols.ServerName)
	r.dirCol = columnIndex(names, cols.DirectoryName)
	r.lengthCol = columnIndex(names, cols.Length)

	if r.dirCol < 0 {
		return fmt.Errorf("%w %q", ErrMissingColumn, cols.DirectoryName)
	}
	if r.lengthCol < 0 {
		return fmt.Errorf("%w %q", ErrMissingColumn, cols.Length)
	}
	return nil
}

// columnIndex finds name in the header, exact match first, then
// case-insensitive. Returns -1 if absent.
func columnIndex(names []string, name string) int {
	for i, n := range names {
		if strings.TrimSpace(n) == name {
			return i
		}
	}
	for i, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), name) {
			return i
		}
	}
	return -1
}

// readLine returns the next physical line without its line terminator.
func (r *delimitedReader) readLine() (string, error) {
	line, err := r.br.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) || line == "" {
			return "", err
		}
	}
	r.line++
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// Next returns the next row.
func (r *delimitedReader) Next() (Row, error) {
	for {
		line, err := r.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Row{}, io.EOF
			}
			return Row{}, fmt.Errorf("read line %d: %w", r.line+1, err)
		}

		if line == "" {
			r.blank++
			continue
		}

		fields := strings.Split(line, r.delim)
		if len(fields) != r.width {
			return Row{Line: r.line, Raw: line}, &RowError{
				Line:   r.line,
				Raw:    line,
				Fields: len(fields),
				Want:   r.width,
			}
		}

		row := Row{
			DirectoryName: fields[r.dirCol],
			Length:        fields[r.lengthCol],
			Line:          r.line,
			Raw:           line,
		}
		if r.serverCol >= 0 {
			row.ServerName = fields[r.serverCol]
		}
		for i, f := range fields {
			if f != "" && i != r.serverCol && i != r.dirCol && i != r.lengthCol {
				row.OtherFields = true
				break
			}
		}
		return row, nil
	}
}

// BlankLines returns how many empty lines were skipped so far.
func (r *delimitedReader) BlankLines() int {
	return r.blank
}

// Close releases resources.
func (r *delimitedReader) Close() error {
	return closeAll(r.closers)
}

// closeAll closes in reverse order (decompressor before underlying stream).
func closeAll(closers []io.Closer) error {
	var firstErr error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BlankLineCounter is implemented by readers that skip blank lines.
type BlankLineCounter interface {
	BlankLines() int
}
