package pathkey

import (
	"fmt"
	"testing"

	"github.com/eunmann/inv-rollup/pkg/benchutil"
)

func BenchmarkDecompose(b *testing.B) {
	for _, shape := range benchutil.TreeShapes {
		b.Run(fmt.Sprintf("shape=%s", shape), func(b *testing.B) {
			paths := benchutil.GeneratePaths(10000, shape)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				Decompose(paths[i%len(paths)])
			}
		})
	}
}
