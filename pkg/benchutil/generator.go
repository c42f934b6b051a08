// Package benchutil provides synthetic inventory extracts for benchmarks and
// testing.
package benchutil

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"

	"github.com/eunmann/inv-rollup/pkg/inventory"
)

// FakeEntry is one synthetic inventory row.
type FakeEntry struct {
	ServerName    string
	DirectoryName string
	Length        string
}

// GeneratorConfig configures synthetic data generation.
type GeneratorConfig struct {
	// NumRows is the total number of rows to generate.
	NumRows int
	// Server is the server name on every row.
	Server string
	// Shares is the number of distinct shares on the server.
	Shares int
	// TopLevelFolders is the number of top-level folders per share.
	TopLevelFolders int
	// MaxDepth is the maximum subfolder depth below a top-level folder.
	MaxDepth int
	// Fanout is the number of children per subfolder level.
	Fanout int
	// DegradedRate is the fraction of rows with a non-numeric Length.
	DegradedRate float64
	// Seed for reproducible generation. 0 = use default seed.
	Seed int64
}

// DefaultConfig returns a reasonable default configuration.
func DefaultConfig(numRows int) GeneratorConfig {
	return GeneratorConfig{
		NumRows:         numRows,
		Server:          "FS01",
		Shares:          3,
		TopLevelFolders: 12,
		MaxDepth:        5,
		Fanout:          8,
		Seed:            BenchmarkSeed,
	}
}

// Generator generates synthetic inventory rows.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// NewGenerator creates a new data generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = BenchmarkSeed
	}
	if cfg.Shares < 1 {
		cfg.Shares = 1
	}
	if cfg.TopLevelFolders < 1 {
		cfg.TopLevelFolders = 1
	}
	if cfg.Fanout < 1 {
		cfg.Fanout = 1
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Generate returns a slice of synthetic rows.
func (g *Generator) Generate() []FakeEntry {
	entries := make([]FakeEntry, g.cfg.NumRows)
	for i := range entries {
		entries[i] = g.generateEntry()
	}
	return entries
}

// Rows returns the synthetic rows as inventory rows with line numbers
// starting after a header line.
func (g *Generator) Rows() []inventory.Row {
	entries := g.Generate()
	rows := make([]inventory.Row, len(entries))
	for i, e := range entries {
		rows[i] = inventory.Row{
			ServerName:    e.ServerName,
			DirectoryName: e.DirectoryName,
			Length:        e.Length,
			Line:          i + 2,
			Raw:           e.ServerName + "|" + e.DirectoryName + "|" + e.Length,
		}
	}
	return rows
}

// WriteExtract writes a pipe-delimited extract with a header row and returns
// the number of bytes written.
func (g *Generator) WriteExtract(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64

	header := strings.Join([]string{inventory.ColServerName, inventory.ColDirectoryName, inventory.ColLength, "LastWriteTime"}, "|")
	written, _ := bw.WriteString(header + "\n")
	n += int64(written)

	for i := 0; i < g.cfg.NumRows; i++ {
		e := g.generateEntry()
		written, err := fmt.Fprintf(bw, "%s|%s|%s|2024-%02d-%02d\n", e.ServerName, e.DirectoryName, e.Length, 1+i%12, 1+i%28)
		n += int64(written)
		if err != nil {
			return n, err
		}
	}
	if err := bw.Flush(); err != nil {
		return n, err
	}
	return n, nil
}

func (g *Generator) generateEntry() FakeEntry {
	return FakeEntry{
		ServerName:    g.cfg.Server,
		DirectoryName: g.generatePath(),
		Length:        g.generateLength(),
	}
}

func (g *Generator) generatePath() string {
	var sb strings.Builder
	sb.WriteString(`\\`)
	sb.WriteString(strings.ToLower(g.cfg.Server))
	fmt.Fprintf(&sb, `\share%02d`, g.rng.Intn(g.cfg.Shares))
	sb.WriteByte('\\')
	sb.WriteString(topLevelName(g.rng.Intn(g.cfg.TopLevelFolders)))

	depth := 0
	if g.cfg.MaxDepth > 0 {
		depth = g.rng.Intn(g.cfg.MaxDepth + 1)
	}
	for d := 0; d < depth; d++ {
		sb.WriteByte('\\')
		sb.WriteString(g.generateSegment(d))
	}

	// Most rows are files; the rest are directory entries.
	if g.rng.Intn(5) != 0 {
		sb.WriteByte('\\')
		sb.WriteString(g.generateFilename())
	}
	return sb.String()
}

var departments = []string{
	"Finance", "HR", "Legal", "Engineering", "Marketing", "Sales",
	"Operations", "IT", "Facilities", "Research", "Archive", "Public",
}

func topLevelName(i int) string {
	if i < len(departments) {
		return departments[i]
	}
	return "Dept" + strconv.Itoa(i)
}

func (g *Generator) generateSegment(level int) string {
	n := g.rng.Intn(g.cfg.Fanout)
	switch level {
	case 0:
		return strconv.Itoa(2018 + n)
	case 1:
		return fmt.Sprintf("Project_%03d", n)
	default:
		return fmt.Sprintf("sub%d_%d", level, n)
	}
}

func (g *Generator) generateFilename() string {
	extensions := []string{".docx", ".xlsx", ".pdf", ".txt", ".zip", ".msg", ".jpg"}
	ext := extensions[g.rng.Intn(len(extensions))]
	return fmt.Sprintf("file_%08x%s", g.rng.Uint32(), ext)
}

func (g *Generator) generateLength() string {
	if g.cfg.DegradedRate > 0 && g.rng.Float64() < g.cfg.DegradedRate {
		return "N/A"
	}
	return strconv.FormatUint(g.generateSize(), 10)
}

func (g *Generator) generateSize() uint64 {
	// Log-normal-ish distribution: mostly small files, some large
	switch g.rng.Intn(10) {
	case 0: // 10% tiny files (< 1KB)
		return uint64(g.rng.Intn(1024))
	case 1, 2, 3: // 30% small files (1KB - 1MB)
		return uint64(1024 + g.rng.Intn(1024*1024))
	case 4, 5, 6, 7: // 40% medium files (1MB - 100MB)
		return uint64(1024*1024 + g.rng.Intn(100*1024*1024))
	case 8: // 10% large files (100MB - 1GB)
		return uint64(100*1024*1024 + g.rng.Intn(900*1024*1024))
	default: // 10% very large files (1GB - 5GB)
		return uint64(1024*1024*1024 + g.rng.Int63n(4*1024*1024*1024))
	}
}

// GeneratePaths returns DirectoryName values with a fixed shape for
// decomposition benchmarks.
func GeneratePaths(numRows int, shape string) []string {
	switch shape {
	case "deep_narrow":
		return generateDeepNarrowPaths(numRows)
	case "wide_shallow":
		return generateWideShallowPaths(numRows)
	default:
		return generateFileServerPaths(numRows)
	}
}

func generateDeepNarrowPaths(size int) []string {
	paths := make([]string, size)
	const depth = 20
	for i := range paths {
		var sb strings.Builder
		fmt.Fprintf(&sb, `\\fs01\share\%c`, 'A'+byte(i%4))
		for d := 0; d < depth; d++ {
			fmt.Fprintf(&sb, `\level%02d`, d)
		}
		fmt.Fprintf(&sb, `\file%d.txt`, i)
		paths[i] = sb.String()
	}
	return paths
}

func generateWideShallowPaths(size int) []string {
	paths := make([]string, size)
	for i := range paths {
		paths[i] = fmt.Sprintf(`\\fs01\share\top%05d\file%d.txt`, i/5, i%5)
	}
	return paths
}

func generateFileServerPaths(size int) []string {
	g := NewGenerator(DefaultConfig(size))
	paths := make([]string, size)
	for i := range paths {
		paths[i] = g.generatePath()
	}
	return paths
}
