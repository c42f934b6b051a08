// Package extsplit chunks a large extract into smaller files by row count.
// Every part repeats the header row.
package extsplit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/eunmann/inv-rollup/internal/logctx"
)

// DefaultRows is the default number of data rows per part.
const DefaultRows = 500_000

// ErrEmptyInput indicates the input has no header row.
var ErrEmptyInput = errors.New("input is empty")

// Options configures Split.
type Options struct {
	// Prefix is the output path prefix; parts are named <Prefix>_part<N><Ext>.
	Prefix string
	// Ext is the part file extension, including the dot.
	Ext string
	// Rows is the maximum number of data rows per part. Zero selects DefaultRows.
	Rows int
}

// Split copies r into parts of at most opts.Rows data rows each and returns
// the paths written. Lines are copied verbatim; blank lines are dropped. A
// header-only input produces no parts.
func Split(ctx context.Context, r io.Reader, opts Options) ([]string, error) {
	if opts.Rows <= 0 {
		opts.Rows = DefaultRows
	}
	if opts.Prefix == "" {
		return nil, errors.New("output prefix is required")
	}
	log := logctx.FromContext(ctx)

	br := bufio.NewReaderSize(r, 1<<20)
	header, err := nextLine(br)
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var (
		parts []string
		cur   *part
		rows  int
	)
	closeCurrent := func() error {
		if cur == nil {
			return nil
		}
		err := cur.close()
		if err == nil {
			log.Info().Str("path", cur.path).Int("rows", rows).Msg("saved part")
		}
		cur = nil
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			closeCurrent()
			return parts, err
		}

		line, err := nextLine(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			closeCurrent()
			return parts, fmt.Errorf("read input: %w", err)
		}

		if cur == nil || rows == opts.Rows {
			if err := closeCurrent(); err != nil {
				return parts, err
			}
			path := fmt.Sprintf("%s_part%d%s", opts.Prefix, len(parts)+1, opts.Ext)
			cur, err = createPart(path, header)
			if err != nil {
				return parts, err
			}
			parts = append(parts, path)
			rows = 0
		}

		if err := cur.writeLine(line); err != nil {
			closeCurrent()
			return parts, err
		}
		rows++
	}

	if err := closeCurrent(); err != nil {
		return parts, err
	}
	return parts, nil
}

// SplitFile splits the file at path. An empty opts.Prefix uses the input path
// without its extension; an empty opts.Ext uses the input's extension.
func SplitFile(ctx context.Context, path string, opts Options) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	ext := filepath.Ext(path)
	if opts.Ext == "" {
		opts.Ext = ext
	}
	if opts.Prefix == "" {
		opts.Prefix = strings.TrimSuffix(path, ext)
	}
	return Split(ctx, f, opts)
}

// nextLine returns the next non-blank line including its terminator. A final
// line without a terminator gets "\n".
func nextLine(br *bufio.Reader) (string, error) {
	for {
		line, err := br.ReadString('\n')
		if line == "" && err != nil {
			return "", err
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		if strings.TrimRight(line, "\r\n") == "" {
			if err != nil {
				return "", err
			}
			continue
		}
		return line, nil
	}
}

type part struct {
	path string
	f    *os.File
	bw   *bufio.Writer
}

func createPart(path, header string) (*part, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create part: %w", err)
	}
	p := &part{path: path, f: f, bw: bufio.NewWriterSize(f, 1<<20)}
	if err := p.writeLine(header); err != nil {
		f.Close()
		return nil, err
	}
	return p, nil
}

func (p *part) writeLine(line string) error {
	if _, err := p.bw.WriteString(line); err != nil {
		return fmt.Errorf("write %s: %w", p.path, err)
	}
	return nil
}

func (p *part) close() error {
	if err := p.bw.Flush(); err != nil {
		p.f.Close()
		return fmt.Errorf("flush %s: %w", p.path, err)
	}
	if err := p.f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", p.path, err)
	}
	return nil
}
