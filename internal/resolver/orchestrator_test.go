package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiconlabs/resolution-platform/internal/arena"
	"github.com/lexiconlabs/resolution-platform/internal/segmenter"
	"github.com/lexiconlabs/resolution-platform/internal/tierindex"
	"github.com/lexiconlabs/resolution-platform/pkg/config"
)

type stubBonds map[[2]byte]uint32

func (b stubBonds) Weight(a, c byte) uint32 {
	return b[[2]byte{a, c}]
}

type stubVocab [][2]string

func (v stubVocab) ForEachWord(fn func(word, tokenID string) error) error {
	for _, pair := range v {
		if err := fn(pair[0], pair[1]); err != nil {
			return err
		}
	}
	return nil
}

func testResolverConfig() config.ResolverConfig {
	return config.ResolverConfig{
		Tier0Max:         16,
		Tier1Max:         32,
		Tier2Max:         64,
		GlobalCapacity:   1 << 16,
		MaxSlotsPerGroup: 64,
		StepBudget:       4,
	}
}

func buildOrchestrator(t *testing.T, bonds stubBonds, caps tierindex.TierCaps, cfg config.ResolverConfig, pairs ...[2]string) *Orchestrator {
	t.Helper()
	assembly, err := tierindex.Build(bonds, stubVocab(pairs), caps)
	require.NoError(t, err)
	return NewOrchestrator(assembly, cfg)
}

func runs(texts ...string) []segmenter.Run {
	rs := make([]segmenter.Run, len(texts))
	for i, tx := range texts {
		rs[i] = segmenter.Run{Text: tx, Length: len(tx)}
	}
	return rs
}

func TestResolveTierOrdering(t *testing.T) {
	// "the" outscores "too"; tier capacities of one push "too" to tier 1.
	bonds := stubBonds{
		{'t', 'h'}: 25, {'h', 'e'}: 25,
		{'t', 'o'}: 5, {'o', 'o'}: 5,
	}
	o := buildOrchestrator(t, bonds, tierindex.TierCaps{Tier0: 1, Tier1: 1, Tier2: 1},
		testResolverConfig(),
		[2]string{"the", "id-the"}, [2]string{"too", "id-too"})

	m := o.Resolve(runs("the", "too", "zzz"))

	require.Len(t, m.Results, 3)
	assert.Equal(t, 2, m.ResolvedRuns)
	assert.Equal(t, 1, m.UnresolvedRuns)

	assert.True(t, m.Results[0].Resolved)
	assert.Equal(t, "id-the", m.Results[0].MatchedToken)
	assert.Equal(t, 0, m.Results[0].TierResolved)

	assert.True(t, m.Results[1].Resolved)
	assert.Equal(t, "id-too", m.Results[1].MatchedToken)
	assert.Equal(t, 1, m.Results[1].TierResolved)

	assert.False(t, m.Results[2].Resolved)
	assert.Equal(t, -1, m.Results[2].TierResolved)
	assert.Empty(t, m.Results[2].MatchedToken)
}

func TestResolveUnknownLengthIsUnresolved(t *testing.T) {
	o := buildOrchestrator(t, stubBonds{}, tierindex.DefaultTierCaps,
		testResolverConfig(), [2]string{"cat", "id-cat"})

	m := o.Resolve(runs("elephant"))
	require.Len(t, m.Results, 1)
	assert.False(t, m.Results[0].Resolved)
	assert.Equal(t, -1, m.Results[0].TierResolved)
	assert.Equal(t, "elephant", m.Results[0].RunText)
}

func TestResolveOverflowDrainsAcrossPasses(t *testing.T) {
	// GlobalCapacity 12 with one length-3 candidate gives two slots per pass;
	// ten identical runs drain in five passes.
	cfg := testResolverConfig()
	cfg.GlobalCapacity = 12
	o := buildOrchestrator(t, stubBonds{}, tierindex.DefaultTierCaps, cfg,
		[2]string{"abc", "id-abc"})

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = "abc"
	}
	m := o.Resolve(runs(texts...))

	assert.Equal(t, 10, m.ResolvedRuns)
	assert.Equal(t, 0, m.UnresolvedRuns)
	assert.Equal(t, 5, m.Passes)
	assert.Equal(t, 20, m.OverflowRuns, "8+6+4+2 deferred loads across passes")
	for _, r := range m.Results {
		assert.True(t, r.Resolved)
		assert.Equal(t, "id-abc", r.MatchedToken)
	}
}

func TestResolveSetDemotesRunsWhenPoolSaturated(t *testing.T) {
	// Occupy every slot of the length-3 arena before resolveSet runs, so its
	// load admits nothing. The pass must terminate with the runs demoted to
	// unresolved rather than re-queueing them forever.
	cfg := testResolverConfig()
	cfg.GlobalCapacity = 12
	o := buildOrchestrator(t, stubBonds{}, tierindex.DefaultTierCaps, cfg,
		[2]string{"abc", "id-abc"})

	ar := o.arenas[3]
	require.NotNil(t, ar)
	filler := []arena.Item{}
	for i := 0; i < ar.SlotsPerGroup(); i++ {
		filler = append(filler, arena.Item{Index: 100 + i, Text: "abc"})
	}
	loaded, overflow := ar.LoadRuns(filler)
	require.Equal(t, len(filler), loaded)
	require.Empty(t, overflow)

	stats := &passStats{}
	outcomes := o.resolveSet([]arena.Item{
		{Index: 0, Text: "abc"},
		{Index: 1, Text: "abc"},
	}, stats)

	require.Len(t, outcomes, 2)
	for i := 0; i < 2; i++ {
		assert.False(t, outcomes[i].Resolved)
		assert.Equal(t, -1, outcomes[i].Tier)
	}
	assert.Equal(t, 1, stats.passes)
	assert.Equal(t, 2, stats.overflow)
}

func TestResolveLiteralHyphenBeatsCompound(t *testing.T) {
	// Both forms are in the vocabulary; the literal hyphenated entry wins and
	// the compound fallback never fires.
	o := buildOrchestrator(t, stubBonds{}, tierindex.DefaultTierCaps,
		testResolverConfig(),
		[2]string{"well-known", "id-literal"}, [2]string{"wellknown", "id-compound"})

	m := o.Resolve(runs("well-known"))
	require.Len(t, m.Results, 1)
	assert.True(t, m.Results[0].Resolved)
	assert.Equal(t, "id-literal", m.Results[0].MatchedToken)
	assert.Equal(t, 0, m.CompoundResolved)
	assert.Equal(t, 0, m.SegmentResolved)
}

func TestResolveCompoundFallback(t *testing.T) {
	o := buildOrchestrator(t, stubBonds{}, tierindex.DefaultTierCaps,
		testResolverConfig(), [2]string{"wellknown", "id-compound"})

	m := o.Resolve(runs("well-known"))
	require.Len(t, m.Results, 1)
	assert.True(t, m.Results[0].Resolved)
	assert.Equal(t, "wellknown", m.Results[0].MatchedWord)
	assert.Equal(t, "id-compound", m.Results[0].MatchedToken)
	assert.Equal(t, "well-known", m.Results[0].RunText, "original text is preserved")
	assert.Equal(t, 1, m.CompoundResolved)
}

func TestResolveSegmentFallback(t *testing.T) {
	// Neither the literal nor the compound form exists, but every segment
	// does; the first segment's entry represents the whole run.
	o := buildOrchestrator(t, stubBonds{}, tierindex.DefaultTierCaps,
		testResolverConfig(),
		[2]string{"well", "id-well"}, [2]string{"known", "id-known"})

	m := o.Resolve(runs("well-known"))
	require.Len(t, m.Results, 1)
	assert.True(t, m.Results[0].Resolved)
	assert.Equal(t, "well", m.Results[0].MatchedWord)
	assert.Equal(t, "id-well", m.Results[0].MatchedToken)
	assert.Equal(t, 1, m.SegmentResolved)
	assert.Equal(t, 0, m.CompoundResolved)
}

func TestResolveSegmentFallbackRequiresAllSegments(t *testing.T) {
	o := buildOrchestrator(t, stubBonds{}, tierindex.DefaultTierCaps,
		testResolverConfig(), [2]string{"well", "id-well"})

	m := o.Resolve(runs("well-zzzz"))
	require.Len(t, m.Results, 1)
	assert.False(t, m.Results[0].Resolved)
	assert.Equal(t, 0, m.SegmentResolved)
}

func TestResolveSegmentFallbackSkipsShortSegments(t *testing.T) {
	o := buildOrchestrator(t, stubBonds{}, tierindex.DefaultTierCaps,
		testResolverConfig(), [2]string{"team", "id-team"})

	m := o.Resolve(runs("a-team"))
	require.Len(t, m.Results, 1)
	assert.False(t, m.Results[0].Resolved)
	assert.Equal(t, 0, m.SegmentResolved)
}

func TestResolveIdempotent(t *testing.T) {
	bonds := stubBonds{
		{'t', 'h'}: 25, {'h', 'e'}: 25,
		{'t', 'o'}: 5, {'o', 'o'}: 5,
	}
	cfg := testResolverConfig()
	cfg.GlobalCapacity = 24
	o := buildOrchestrator(t, bonds, tierindex.TierCaps{Tier0: 1, Tier1: 1, Tier2: 1}, cfg,
		[2]string{"the", "id-the"}, [2]string{"too", "id-too"},
		[2]string{"well", "id-well"}, [2]string{"known", "id-known"})

	input := runs("the", "too", "zzz", "well-known", "the", "too", "the")
	m1 := o.Resolve(input)
	m2 := o.Resolve(input)

	m1.TotalTimeMs, m2.TotalTimeMs = 0, 0
	assert.Equal(t, m1, m2)
}

func TestResolveEmptyInput(t *testing.T) {
	o := buildOrchestrator(t, stubBonds{}, tierindex.DefaultTierCaps,
		testResolverConfig(), [2]string{"cat", "id-cat"})

	m := o.Resolve(nil)
	assert.Equal(t, 0, m.TotalRuns)
	assert.Equal(t, 0, m.Passes)
	assert.Empty(t, m.Results)
}

func TestManifestUnresolvedWords(t *testing.T) {
	m := &Manifest{Results: []Result{
		{RunText: "alpha", Resolved: true},
		{RunText: "beta"},
		{RunText: "gamma"},
		{RunText: "beta"},
	}}
	assert.Equal(t, []string{"beta", "gamma"}, m.UnresolvedWords())
}

func TestSplitSegments(t *testing.T) {
	assert.Equal(t, []string{"well", "known"}, splitSegments("well-known"))
	assert.Equal(t, []string{"up", "to", "date"}, splitSegments("up-to-date"))
	assert.Nil(t, splitSegments("a-team"), "single-character segment")
	assert.Nil(t, splitSegments("---"))
}
