// Package discover finds inventory extracts under a directory tree.
package discover

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// DefaultPatterns are the file-name patterns treated as extracts.
var DefaultPatterns = []string{"*.csv", "*.txt", "*.psv", "*.gz", "*.parquet"}

// Options configures Extracts.
type Options struct {
	// Patterns are matched case-insensitively against base names.
	// Empty selects DefaultPatterns.
	Patterns []string
	// Exclude lists directories whose contents are never returned,
	// typically the output and log directories.
	Exclude []string
	// MaxDepth limits recursion below root (0 = unlimited, 1 = root only).
	MaxDepth int
}

// Extracts returns the matching regular files under root, sorted.
func Extracts(ctx context.Context, root string, opts Options) ([]string, error) {
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
	}

	root = filepath.Clean(root)
	excluded := make([]string, 0, len(opts.Exclude))
	for _, dir := range opts.Exclude {
		if dir != "" {
			excluded = append(excluded, filepath.Clean(dir))
		}
	}

	var (
		mu    sync.Mutex
		found []string
	)

	conf := &fastwalk.Config{Follow: false}
	err := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if path != root && (slices.Contains(excluded, filepath.Clean(path)) || tooDeep(root, path, opts.MaxDepth)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !matches(patterns, d.Name()) {
			return nil
		}

		mu.Lock()
		found = append(found, path)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	slices.Sort(found)
	return found, nil
}

// tooDeep reports whether entries inside dir exceed maxDepth.
func tooDeep(root, dir string, maxDepth int) bool {
	if maxDepth <= 0 {
		return false
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	depth := strings.Count(filepath.ToSlash(rel), "/") + 1
	return depth >= maxDepth
}

func matches(patterns []string, name string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if ok, _ := filepath.Match(strings.ToLower(p), lower); ok {
			return true
		}
	}
	return false
}

// Label derives a run label from an extract path: the base name without
// compression and format extensions.
func Label(path string) string {
	base := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(base), ".gz") {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
