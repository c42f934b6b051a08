// Package summary serializes run summaries.
//
// The delimited form is bit-exact: every field, including the header
// labels, is wrapped in double quotes and fields are joined with '|'.
// Field contents are written verbatim without escaping.
package summary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/eunmann/inv-rollup/pkg/rollup"
)

// Header lists the summary column labels in output order.
var Header = []string{
	"Server_Name",
	"Drive",
	"Top Level Folder",
	"Data(GB)",
	"Number of SubFolders",
	"Number of Files",
}

const (
	delimiter = '|'
	quote     = '"'
)

// WriteDelimited writes the header and one quoted row per summary row.
func WriteDelimited(w io.Writer, s rollup.Summary) error {
	bw := bufio.NewWriter(w)

	if err := writeRecord(bw, Header); err != nil {
		return err
	}

	fields := make([]string, len(Header))
	for _, r := range s.Rows {
		fields[0] = r.ServerName
		fields[1] = r.Drive
		fields[2] = r.TopLevelFolder
		fields[3] = r.DataGB
		fields[4] = strconv.Itoa(r.SubfolderCount)
		fields[5] = strconv.FormatUint(r.FileCount, 10)
		if err := writeRecord(bw, fields); err != nil {
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush summary: %w", err)
	}
	return nil
}

func writeRecord(bw *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			bw.WriteByte(delimiter)
		}
		bw.WriteByte(quote)
		bw.WriteString(f)
		bw.WriteByte(quote)
	}
	if err := bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("write summary row: %w", err)
	}
	return nil
}

// WriteDelimitedFile writes the delimited summary to path.
func WriteDelimitedFile(path string, s rollup.Summary) error {
	return writeFile(path, func(w io.Writer) error { return WriteDelimited(w, s) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
