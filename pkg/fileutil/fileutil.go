// Package fileutil provides output-file helpers: atomic tmp+mv writes and
// timestamp-qualified run file names.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eunmann/inv-rollup/pkg/logging"
)

// TimestampLayout qualifies run output names, e.g. 20250329_160647.
const TimestampLayout = "20060102_150405"

// Exists returns true if the file exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// RunFileName builds "<kind>_<label>_<timestamp><ext>". Characters that are
// unsafe in file names are replaced in label; an empty label is omitted.
func RunFileName(kind, label string, ts time.Time, ext string) string {
	parts := []string{kind}
	if l := SanitizeLabel(label); l != "" {
		parts = append(parts, l)
	}
	parts = append(parts, ts.Format(TimestampLayout))
	return strings.Join(parts, "_") + ext
}

// SanitizeLabel replaces path separators, spaces and other characters that
// are awkward in file names with '-'.
func SanitizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(label))
}

// WriteTmpThenMove writes to a temporary file then atomically moves it to the final path.
// The writeFunc receives the temporary path and should write the complete file.
// On success, the file is moved to outPath atomically.
func WriteTmpThenMove(tmpDir, outPath string, writeFunc func(tmpPath string) error) error {
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return fmt.Errorf("create tmp dir: %w", err)
	}

	tmpPath := filepath.Join(tmpDir, filepath.Base(outPath)+".tmp")

	if err := writeFunc(tmpPath); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := syncFile(tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}

	outDir := filepath.Dir(outPath)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp to final: %w", err)
	}

	return nil
}

// syncFile opens, syncs, and closes a file.
func syncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	err = f.Sync()
	f.Close()
	return err
}

// CleanupTmpFiles removes .tmp files left directly in dir by interrupted runs.
func CleanupTmpFiles(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	var removed int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		if os.Remove(filepath.Join(dir, e.Name())) == nil {
			removed++
		}
	}

	if removed > 0 {
		logging.L().Debug().Int("files_removed", removed).Str("dir", dir).Msg("cleaned up tmp files")
	}
	return nil
}
