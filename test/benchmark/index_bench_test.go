// Package benchmark contains Go benchmarks for the inverted index, fuzzy
// matcher, and search engine, measuring throughput and allocation behaviour.
package benchmark

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/oklog/ulid/v2"

	"github.com/viper-logs/viperlog/internal/event"
	"github.com/viper-logs/viperlog/internal/index"
	"github.com/viper-logs/viperlog/internal/index/fuzzy"
	"github.com/viper-logs/viperlog/internal/search"
)

func benchID(b *testing.B, ms uint64) event.ID {
	id, err := ulid.New(ms, rand.Reader)
	if err != nil {
		b.Fatal(err)
	}
	return id
}

func benchFields(i int) map[string]string {
	levels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	components := []string{"auth", "billing", "storage", "gateway"}
	return map[string]string{
		"level":       levels[i%len(levels)],
		"component":   components[i%len(components)],
		"description": "request completed with latency threshold exceeded on retry",
	}
}

// BenchmarkIndexAdd measures per-document insert throughput into the
// inverted index.
func BenchmarkIndexAdd(b *testing.B) {
	ix := index.New()
	ids := make([]event.ID, b.N)
	for i := range ids {
		ids[i] = benchID(b, uint64(i))
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.Add(ids[i], benchFields(i))
	}
}

// BenchmarkIndexSearch measures single-term lookup latency over 10 000
// documents.
func BenchmarkIndexSearch(b *testing.B) {
	ix := index.New()
	for i := 0; i < 10000; i++ {
		ix.Add(benchID(b, uint64(i)), benchFields(i))
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results := ix.Search([]string{"latency"}, true)
		_ = results
	}
}

// BenchmarkIndexSearchParallel measures concurrent read throughput.
func BenchmarkIndexSearchParallel(b *testing.B) {
	ix := index.New()
	for i := 0; i < 10000; i++ {
		ix.Add(benchID(b, uint64(i)), benchFields(i))
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			results := ix.Search([]string{"component:auth", "latency"}, true)
			_ = results
		}
	})
}

// BenchmarkIndexRemove measures targeted removal, including term pruning.
func BenchmarkIndexRemove(b *testing.B) {
	ix := index.New()
	ids := make([]event.ID, b.N)
	for i := range ids {
		ids[i] = benchID(b, uint64(i))
		ix.Add(ids[i], benchFields(i))
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.Remove(ids[i])
	}
}

// BenchmarkFuzzySearch measures edit-distance matching at various vocabulary
// sizes.
func BenchmarkFuzzySearch(b *testing.B) {
	sizes := []int{1000, 10000, 50000}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("vocab_%d", size), func(b *testing.B) {
			fz := fuzzy.New(0)
			for i := 0; i < size; i++ {
				fz.AddTerm(fmt.Sprintf("term%dsuffix", i))
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				matches, _, err := fz.Search("term1234sufix", 0.7)
				if err != nil {
					b.Fatal(err)
				}
				_ = matches
			}
		})
	}
}

// BenchmarkEngineIngest measures full engine ingest throughput at various
// pre-loaded corpus sizes.
func BenchmarkEngineIngest(b *testing.B) {
	sizes := []int{100, 1000, 5000}
	for _, preload := range sizes {
		b.Run(fmt.Sprintf("preload_%d", preload), func(b *testing.B) {
			engine, err := search.New()
			if err != nil {
				b.Fatal(err)
			}
			for i := 0; i < preload; i++ {
				engine.AddDocument(benchID(b, uint64(i)), benchFields(i))
			}
			ids := make([]event.ID, b.N)
			for i := range ids {
				ids[i] = benchID(b, uint64(preload+i))
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				engine.AddDocument(ids[i], benchFields(i))
			}
		})
	}
}
