package rollup

import (
	"fmt"
	"testing"

	"github.com/eunmann/inv-rollup/pkg/benchutil"
)

/*
Aggregator Benchmarks

Run quick benchmarks:
  go test -bench='BenchmarkIngest' ./pkg/rollup/...

Run scaling tests:
  INVROLLUP_LONG_BENCH=1 go test -bench='BenchmarkIngest_Scaling' -benchtime=1x ./pkg/rollup/...
*/

func BenchmarkIngest(b *testing.B) {
	for _, size := range benchutil.BenchmarkSizes {
		b.Run(fmt.Sprintf("rows=%d", size), func(b *testing.B) {
			benchmarkIngest(b, size)
		})
	}
}

func BenchmarkIngest_Scaling(b *testing.B) {
	benchutil.SkipIfNoLongBench(b)

	for _, size := range benchutil.ScalingSizes {
		b.Run(fmt.Sprintf("rows=%d", size), func(b *testing.B) {
			benchmarkIngest(b, size)
		})
	}
}

func benchmarkIngest(b *testing.B, numRows int) {
	b.Helper()

	cfg := benchutil.DefaultConfig(numRows)
	cfg.DegradedRate = 0.01
	rows := benchutil.NewGenerator(cfg).Rows()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		agg := New(Config{})
		for _, row := range rows {
			agg.Ingest(row)
		}
		s := agg.Finalize()
		if len(s.Rows) == 0 {
			b.Fatal("empty summary")
		}
	}

	b.ReportMetric(float64(numRows)*float64(b.N)/b.Elapsed().Seconds(), "rows/s")
}
