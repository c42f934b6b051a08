package summary

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/eunmann/inv-rollup/pkg/rollup"
)

// ParquetRow is the typed Parquet form of a summary row.
type ParquetRow struct {
	ServerName     string `parquet:"server_name"`
	Drive          string `parquet:"drive"`
	TopLevelFolder string `parquet:"top_level_folder"`
	TotalBytes     uint64 `parquet:"total_bytes"`
	DataGB         string `parquet:"data_gb"`
	SubfolderCount int64  `parquet:"subfolder_count"`
	FileCount      uint64 `parquet:"file_count"`
}

// WriteParquet writes the summary rows as a single Parquet file to w.
func WriteParquet(w io.Writer, s rollup.Summary) error {
	pw := parquet.NewGenericWriter[ParquetRow](w)

	rows := make([]ParquetRow, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = ParquetRow{
			ServerName:     r.ServerName,
			Drive:          r.Drive,
			TopLevelFolder: r.TopLevelFolder,
			TotalBytes:     r.TotalBytes,
			DataGB:         r.DataGB,
			SubfolderCount: int64(r.SubfolderCount),
			FileCount:      r.FileCount,
		}
	}

	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// WriteParquetFile writes the Parquet summary to path.
func WriteParquetFile(path string, s rollup.Summary) error {
	return writeFile(path, func(w io.Writer) error { return WriteParquet(w, s) })
}
