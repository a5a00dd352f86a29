// Package benchmark contains Go benchmarks for the segmenter, tier assembly,
// and resolution orchestrator, measuring throughput and allocation behaviour.
package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lexiconlabs/resolution-platform/internal/resolver"
	"github.com/lexiconlabs/resolution-platform/internal/segmenter"
	"github.com/lexiconlabs/resolution-platform/internal/tierindex"
	"github.com/lexiconlabs/resolution-platform/pkg/config"
)

type benchBonds struct{}

func (benchBonds) Weight(a, b byte) uint32 {
	return uint32(a)*31 + uint32(b)
}

type benchVocab []string

func (v benchVocab) ForEachWord(fn func(word, tokenID string) error) error {
	for i, w := range v {
		if err := fn(w, fmt.Sprintf("t%08d", i)); err != nil {
			return err
		}
	}
	return nil
}

// benchWords generates a synthetic vocabulary spread across lengths 3 to 8
// and every leading letter.
func benchWords(n int) benchVocab {
	words := make(benchVocab, 0, n)
	for i := 0; i < n; i++ {
		length := 3 + i%6
		var sb strings.Builder
		for j := 0; j < length; j++ {
			sb.WriteByte('a' + byte((i*7+j*13)%26))
		}
		words = append(words, sb.String())
	}
	return words
}

func benchOrchestrator(b *testing.B, vocabSize int) (*resolver.Orchestrator, benchVocab) {
	b.Helper()
	words := benchWords(vocabSize)
	assembly, err := tierindex.Build(benchBonds{}, words, tierindex.DefaultTierCaps)
	if err != nil {
		b.Fatalf("building assembly: %v", err)
	}
	cfg := config.ResolverConfig{
		GlobalCapacity:    1 << 20,
		MaxSlotsPerGroup:  4096,
		StepBudget:        8,
		SettleConcurrency: 8,
	}
	return resolver.NewOrchestrator(assembly, cfg), words
}

// BenchmarkSegment measures run extraction throughput on prose-like text.
func BenchmarkSegment(b *testing.B) {
	text := strings.Repeat("The well-known quick brown fox, jumped over the lazy dog. ", 50)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		runs := segmenter.Segment(text)
		_ = runs
	}
}

// BenchmarkAssemblyBuild measures tier assembly construction cost at several
// vocabulary sizes.
func BenchmarkAssemblyBuild(b *testing.B) {
	for _, size := range []int{1000, 10000} {
		b.Run(fmt.Sprintf("vocab-%d", size), func(b *testing.B) {
			words := benchWords(size)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				assembly, err := tierindex.Build(benchBonds{}, words, tierindex.DefaultTierCaps)
				if err != nil {
					b.Fatal(err)
				}
				_ = assembly
			}
		})
	}
}

// BenchmarkResolve measures end-to-end resolution of a document where every
// run is a vocabulary hit.
func BenchmarkResolve(b *testing.B) {
	orch, words := benchOrchestrator(b, 10000)
	runs := make([]segmenter.Run, 500)
	for i := range runs {
		w := words[i%len(words)]
		runs[i] = segmenter.Run{Text: w, Length: len(w)}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := orch.Resolve(runs)
		_ = m
	}
}

// BenchmarkResolveWithMisses measures resolution when half the runs fall
// through every tier unresolved.
func BenchmarkResolveWithMisses(b *testing.B) {
	orch, words := benchOrchestrator(b, 10000)
	runs := make([]segmenter.Run, 500)
	for i := range runs {
		if i%2 == 0 {
			w := words[i%len(words)]
			runs[i] = segmenter.Run{Text: w, Length: len(w)}
		} else {
			w := fmt.Sprintf("qx%04d", i)
			runs[i] = segmenter.Run{Text: w, Length: len(w)}
		}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := orch.Resolve(runs)
		_ = m
	}
}
