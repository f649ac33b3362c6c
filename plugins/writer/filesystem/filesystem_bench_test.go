package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"testing"
)

// BenchmarkWrite 不同导出尺寸下的写入性能。
func BenchmarkWrite(b *testing.B) {
	line := []byte(`{"line":0,"bi_text":{"source":"AB","target":"แมว"},"bi_rtoks":{"source":[],"target":[]},"links":[]}` + "\n")
	for _, n := range []int{10, 10000} {
		b.Run(fmt.Sprintf("units=%d", n), func(b *testing.B) {
			data := bytes.Repeat(line, n)
			w, err := New(&Options{OutputDir: b.TempDir()})
			if err != nil {
				b.Fatalf("创建 Writer 失败: %v", err)
			}
			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := w.Write(ctx, "units", bytes.NewReader(data)); err != nil {
					b.Fatalf("写入失败: %v", err)
				}
			}
		})
	}
}
