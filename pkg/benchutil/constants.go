package benchutil

// Shared constants for benchmarks across packages.

// BenchmarkSeed is the default seed for reproducible benchmark data generation.
const BenchmarkSeed = 42

// BenchmarkSizes are the standard row counts for quick runs.
var BenchmarkSizes = []int{1000, 10000, 100000}

// ScalingSizes are larger row counts for scaling runs.
// Used with INVROLLUP_LONG_BENCH=1 environment variable.
var ScalingSizes = []int{100000, 500000, 1000000}

// TreeShapes are the standard share layouts for benchmarking.
//   - deep_narrow: long subfolder chains under few top-level folders
//   - wide_shallow: many top-level folders, files directly inside
//   - file_server: department/year/project trees across several shares
var TreeShapes = []string{
	"deep_narrow",
	"wide_shallow",
	"file_server",
}
