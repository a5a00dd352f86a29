// Package resolver drives the tiered candidate resolution engine. The
// Orchestrator owns one arena per word length, groups inbound runs by length,
// cascades every active arena through the frequency tiers in lock-step,
// drains overflow with additional passes, and falls back through the hyphen
// cascade (literal, compound, segment split) before reporting a run
// unresolved.
package resolver

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexiconlabs/resolution-platform/internal/arena"
	"github.com/lexiconlabs/resolution-platform/internal/segmenter"
	"github.com/lexiconlabs/resolution-platform/internal/tierindex"
	"github.com/lexiconlabs/resolution-platform/pkg/config"
)

// Orchestrator coordinates the resolution arenas. Control flow is
// single-threaded and synchronous: Resolve blocks until the manifest is
// complete, and no concurrent callers are supported against one instance.
// The tier assembly is a read-only shared borrow.
type Orchestrator struct {
	assembly *tierindex.Assembly
	arenas   map[int]*arena.Arena
	cfg      config.ResolverConfig
	logger   *slog.Logger
}

// passStats accumulates pass-level counters across the nested resolve calls
// of one Resolve invocation.
type passStats struct {
	passes   int
	overflow int
	steps    int
}

// NewOrchestrator discovers every word length with vocabulary and builds its
// arena. A length whose arena fails to initialize is excluded from the
// resolvable set with a warning; its runs surface as unresolved.
func NewOrchestrator(assembly *tierindex.Assembly, cfg config.ResolverConfig) *Orchestrator {
	o := &Orchestrator{
		assembly: assembly,
		arenas:   make(map[int]*arena.Arena),
		cfg:      cfg,
		logger:   slog.Default().With("component", "resolution-orchestrator"),
	}
	arenaCfg := arena.Config{
		GlobalCapacity:   cfg.GlobalCapacity,
		MaxSlotsPerGroup: cfg.MaxSlotsPerGroup,
		StepBudget:       cfg.StepBudget,
	}
	if arenaCfg.StepBudget <= 0 {
		arenaCfg.StepBudget = 8
	}
	for _, length := range assembly.Lengths() {
		ar, err := arena.New(assembly, length, arenaCfg)
		if err != nil {
			o.logger.Warn("arena initialization failed, length excluded",
				"length", length,
				"error", err,
			)
			continue
		}
		o.arenas[length] = ar
	}
	o.logger.Info("orchestrator ready", "arenas", len(o.arenas))
	return o
}

// ArenaCount returns the number of initialized arenas.
func (o *Orchestrator) ArenaCount() int { return len(o.arenas) }

// Resolve resolves every run to a vocabulary entry or explicitly flags it
// unknown. The input slice is borrowed for the duration of the call only.
func (o *Orchestrator) Resolve(runs []segmenter.Run) *Manifest {
	start := time.Now()
	m := &Manifest{
		TotalRuns: len(runs),
		Results:   make([]Result, len(runs)),
	}
	items := make([]arena.Item, len(runs))
	for i, r := range runs {
		items[i] = arena.Item{Index: i, Text: r.Text}
		m.Results[i] = Result{RunText: r.Text, TierResolved: -1}
	}

	stats := &passStats{}
	outcomes := o.resolveSet(items, stats)
	for i := range runs {
		if r, ok := outcomes[i]; ok {
			applyOutcome(r, &m.Results[i])
		}
	}

	o.hyphenFallback(m, stats)

	for _, r := range m.Results {
		if r.Resolved {
			m.ResolvedRuns++
		} else {
			m.UnresolvedRuns++
		}
	}
	m.Passes = stats.passes
	m.OverflowRuns = stats.overflow
	m.SettleSteps = stats.steps
	m.TotalTimeMs = time.Since(start).Milliseconds()

	o.logger.Debug("resolve complete",
		"total", m.TotalRuns,
		"resolved", m.ResolvedRuns,
		"unresolved", m.UnresolvedRuns,
		"passes", m.Passes,
		"time_ms", m.TotalTimeMs,
	)
	return m
}

// resolveSet pushes a set of items through the load / tier-cascade / collect
// cycle, re-passing overflow until the set drains. Outcomes are keyed by
// Item.Index; items with no arena path come back unresolved immediately.
func (o *Orchestrator) resolveSet(items []arena.Item, stats *passStats) map[int]arena.Result {
	outcomes := make(map[int]arena.Result, len(items))

	var pending []arena.Item
	for _, it := range items {
		ar := o.arenas[len(it.Text)]
		if it.Text == "" || ar == nil || !ar.CanRoute(it.Text[0]) {
			outcomes[it.Index] = arena.Result{Index: it.Index, Tier: -1}
			continue
		}
		pending = append(pending, it)
	}

	for len(pending) > 0 {
		stats.passes++

		byLength := make(map[int][]arena.Item)
		for _, it := range pending {
			byLength[len(it.Text)] = append(byLength[len(it.Text)], it)
		}
		lengths := make([]int, 0, len(byLength))
		for l := range byLength {
			lengths = append(lengths, l)
		}
		sort.Ints(lengths)

		var next []arena.Item
		var active []*arena.Arena
		for _, l := range lengths {
			ar := o.arenas[l]
			loaded, overflow := ar.LoadRuns(byLength[l])
			stats.overflow += len(overflow)
			if loaded == 0 {
				// No slot accepted a single run, so repeating the pass at this
				// length cannot make progress; demote instead of looping.
				for _, it := range overflow {
					outcomes[it.Index] = arena.Result{Index: it.Index, Tier: -1}
				}
				continue
			}
			next = append(next, overflow...)
			active = append(active, ar)
		}

		if len(active) > 0 {
			o.runCascade(active, stats)
			for _, ar := range active {
				for _, r := range ar.CollectResults() {
					outcomes[r.Index] = r
				}
				ar.ResetDynamics()
			}
		}
		pending = next
	}
	return outcomes
}

// runCascade drives the shared tier cascade: at each tier, coordinated
// settlement batches run across all active arenas simultaneously, followed by
// a settlement check; unresolved slots flip to the next tier. The cascade
// stops early once no arena has unresolved slots.
func (o *Orchestrator) runCascade(active []*arena.Arena, stats *passStats) {
	maxTiers := 0
	for _, ar := range active {
		if n := ar.MaxTierCount(); n > maxTiers {
			maxTiers = n
		}
	}
	for tier := 0; tier < maxTiers; tier++ {
		for {
			work := o.settleStep(active, tier)
			if work == 0 {
				break
			}
			stats.steps++
		}
		anyUnresolved := false
		for _, ar := range active {
			ar.CheckSettlement(tier)
			if ar.HasUnresolved() {
				anyUnresolved = true
			}
		}
		if !anyUnresolved {
			break
		}
		if tier+1 < maxTiers {
			for _, ar := range active {
				ar.FlipToTier(tier + 1)
			}
		}
	}
}

// settleStep executes one bounded settlement step on every active arena as a
// single coordinated batch and returns the total comparisons performed.
func (o *Orchestrator) settleStep(active []*arena.Arena, tier int) int {
	if len(active) == 1 {
		return active[0].RunSettlementStep(tier)
	}
	work := make([]int, len(active))
	g := new(errgroup.Group)
	limit := o.cfg.SettleConcurrency
	if limit <= 0 {
		limit = len(active)
	}
	g.SetLimit(limit)
	for i, ar := range active {
		i, ar := i, ar
		g.Go(func() error {
			work[i] = ar.RunSettlementStep(tier)
			return nil
		})
	}
	// Workers never return errors; Wait only serves as the batch barrier.
	_ = g.Wait()
	total := 0
	for _, w := range work {
		total += w
	}
	return total
}

// hyphenFallback applies the three-step hyphen cascade to runs that remain
// unresolved. The literal hyphenated form has already been attempted; next
// comes the compound form with hyphens stripped, then independent resolution
// of every hyphen-delimited segment. A segment-resolved run records the first
// segment's match as its representative; the remaining segments' identities
// are intentionally not reported.
func (o *Orchestrator) hyphenFallback(m *Manifest, stats *passStats) {
	// Compound retry.
	var compound []arena.Item
	for i := range m.Results {
		res := &m.Results[i]
		if res.Resolved || !strings.Contains(res.RunText, "-") {
			continue
		}
		stripped := strings.ReplaceAll(res.RunText, "-", "")
		if stripped == "" {
			continue
		}
		compound = append(compound, arena.Item{Index: i, Text: stripped})
	}
	if len(compound) > 0 {
		outcomes := o.resolveSet(compound, stats)
		for idx, r := range outcomes {
			if r.Resolved {
				applyOutcome(r, &m.Results[idx])
				m.CompoundResolved++
			}
		}
	}

	// Segment retry for runs the compound form did not rescue.
	type segRef struct {
		runIdx int
		first  bool
	}
	var segItems []arena.Item
	var refs []segRef
	segCounts := make(map[int]int)
	for i := range m.Results {
		res := &m.Results[i]
		if res.Resolved || !strings.Contains(res.RunText, "-") {
			continue
		}
		segs := splitSegments(res.RunText)
		if segs == nil {
			continue
		}
		for s, seg := range segs {
			refs = append(refs, segRef{runIdx: i, first: s == 0})
			segItems = append(segItems, arena.Item{Index: len(segItems), Text: seg})
		}
		segCounts[i] = len(segs)
	}
	if len(segItems) == 0 {
		return
	}
	outcomes := o.resolveSet(segItems, stats)
	resolvedSegs := make(map[int]int)
	firstMatch := make(map[int]arena.Result)
	for j, ref := range refs {
		r := outcomes[j]
		if !r.Resolved {
			continue
		}
		resolvedSegs[ref.runIdx]++
		if ref.first {
			firstMatch[ref.runIdx] = r
		}
	}
	for runIdx, count := range segCounts {
		if resolvedSegs[runIdx] != count {
			continue
		}
		// Every segment resolved; the first segment's entry stands in for
		// the whole run.
		applyOutcome(firstMatch[runIdx], &m.Results[runIdx])
		m.SegmentResolved++
	}
}

// splitSegments splits a hyphenated run into its non-empty segments. All
// segments must be at least two characters long for the segment retry to
// apply; otherwise nil is returned.
func splitSegments(text string) []string {
	parts := strings.Split(text, "-")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if len(p) < 2 {
			return nil
		}
		segs = append(segs, p)
	}
	if len(segs) == 0 {
		return nil
	}
	return segs
}

// applyOutcome copies an arena outcome into a manifest result, preserving
// the original run text.
func applyOutcome(r arena.Result, dst *Result) {
	dst.Resolved = r.Resolved
	dst.MatchedWord = r.MatchedWord
	dst.MatchedToken = r.MatchedToken
	dst.TierResolved = r.Tier
}
