// Package arena implements the per-word-length batch-matching arena. Each
// arena holds, per first-letter group, a fixed tiered candidate layout and a
// bounded reusable pool of run slots. Matching is a per-position character
// identity test: a run settles when every one of its positions matches the
// corresponding position of one candidate in the active tier. The slot pool
// is sized so the total element count across all groups stays under a global
// capacity budget; runs that do not fit are returned as overflow for a later
// pass, never dropped.
package arena

import (
	"fmt"
	"log/slog"

	"github.com/lexiconlabs/resolution-platform/internal/tierindex"
	apperrors "github.com/lexiconlabs/resolution-platform/pkg/errors"
)

// Item is one inbound run routed into the arena, tagged with the caller's
// run index so results can be matched back up.
type Item struct {
	Index int
	Text  string
}

// Result is the terminal outcome for one loaded run slot.
type Result struct {
	Index        int
	Resolved     bool
	MatchedWord  string
	MatchedToken string
	Tier         int // -1 when unresolved
}

// Config bounds the arena's element budget and settlement pacing.
type Config struct {
	GlobalCapacity   int
	MaxSlotsPerGroup int
	StepBudget       int
}

type slotState uint8

const (
	slotActive slotState = iota
	slotConverged
	slotResolved
)

// slot is one run occupying a position in a group's dynamic region. Cleared
// on arena reset, never persisted.
type slot struct {
	runIndex       int
	bufferPosition int
	characterCount int
	runText        string
	state          slotState
	cursor         int // next candidate ordinal to compare within the active tier
	matchedWord    string
	matchedToken   string
	tierResolved   int
}

// group is the per-first-letter partition: a read-only tiered candidate
// layout plus the reusable slot region.
type group struct {
	first  byte
	bucket *tierindex.Bucket
	tiers  [][]byte // tiers[t] holds tier t's candidates flattened, length bytes each
	dyn    []byte   // slotsPerGroup × length, rewritten every pass
	slots  []slot
	used   int
}

// Arena is the persistent batch-matching structure for one word length.
// Mutated only by its owning orchestrator; no concurrent callers.
type Arena struct {
	length        int
	groups        map[byte]*group
	order         []byte // deterministic group iteration order
	slotsPerGroup int
	cfg           Config
	logger        *slog.Logger
}

// New builds the arena for the given word length. It fails when no letter
// group has vocabulary at this length or when the capacity computation
// yields no usable slots.
func New(assembly *tierindex.Assembly, length int, cfg Config) (*Arena, error) {
	a := &Arena{
		length: length,
		groups: make(map[byte]*group),
		cfg:    cfg,
		logger: slog.Default().With("component", "resolution-arena", "length", length),
	}

	elementsPerSlotRow := 0
	for c := byte('a'); c <= 'z'; c++ {
		bucket, ok := assembly.GetBucket(length, c)
		if !ok || len(bucket.Entries()) == 0 {
			continue
		}
		g := &group{first: c, bucket: bucket}
		candidates := 0
		for t := 0; t < bucket.TierCount(); t++ {
			entries := bucket.Tier(t)
			flat := make([]byte, 0, len(entries)*length)
			for _, e := range entries {
				flat = append(flat, e.Word...)
			}
			g.tiers = append(g.tiers, flat)
			candidates += len(entries)
		}
		a.groups[c] = g
		a.order = append(a.order, c)
		// One reference copy of every candidate plus one slot row per group.
		elementsPerSlotRow += (candidates + 1) * length
	}

	if len(a.groups) == 0 {
		return nil, fmt.Errorf("length %d: %w", length, apperrors.ErrEmptyVocabulary)
	}

	a.slotsPerGroup = cfg.GlobalCapacity / elementsPerSlotRow
	if a.slotsPerGroup > cfg.MaxSlotsPerGroup {
		a.slotsPerGroup = cfg.MaxSlotsPerGroup
	}
	if a.slotsPerGroup <= 0 {
		return nil, fmt.Errorf("length %d: %w", length, apperrors.ErrArenaDegenerate)
	}

	for _, g := range a.groups {
		g.dyn = make([]byte, a.slotsPerGroup*length)
		g.slots = make([]slot, a.slotsPerGroup)
	}

	a.logger.Debug("arena initialized",
		"groups", len(a.groups),
		"slots_per_group", a.slotsPerGroup,
	)
	return a, nil
}

// Length returns the word length this arena serves.
func (a *Arena) Length() int { return a.length }

// SlotsPerGroup returns the per-group run capacity of one pass.
func (a *Arena) SlotsPerGroup() int { return a.slotsPerGroup }

// MaxTierCount returns the largest tier count across all letter groups.
func (a *Arena) MaxTierCount() int {
	max := 0
	for _, g := range a.groups {
		if n := g.bucket.TierCount(); n > max {
			max = n
		}
	}
	return max
}

// CanRoute reports whether a run starting with first has a letter group here.
func (a *Arena) CanRoute(first byte) bool {
	_, ok := a.groups[lowerByte(first)]
	return ok
}

// LoadRuns routes each item to its first-letter group and claims a slot.
// Items whose group pool is exhausted (or which cannot be routed) are
// returned as overflow. Loaded slots start active against tier 0.
func (a *Arena) LoadRuns(items []Item) (loaded int, overflow []Item) {
	for _, item := range items {
		if len(item.Text) != a.length {
			overflow = append(overflow, item)
			continue
		}
		g, ok := a.groups[lowerByte(item.Text[0])]
		if !ok || g.used >= a.slotsPerGroup {
			overflow = append(overflow, item)
			continue
		}
		pos := g.used * a.length
		copy(g.dyn[pos:pos+a.length], item.Text)
		g.slots[g.used] = slot{
			runIndex:       item.Index,
			bufferPosition: pos,
			characterCount: a.length,
			runText:        item.Text,
			state:          slotActive,
			tierResolved:   -1,
		}
		g.used++
		loaded++
	}
	return loaded, overflow
}

// RunSettlementStep advances every active slot's comparison cursor by at most
// StepBudget candidates within the given tier. A slot whose run characters
// match a candidate at every position converges and stops interacting.
// Returns the number of candidate comparisons performed.
func (a *Arena) RunSettlementStep(tier int) int {
	work := 0
	for _, c := range a.order {
		g := a.groups[c]
		if tier >= len(g.tiers) {
			continue
		}
		flat := g.tiers[tier]
		candCount := len(flat) / a.length
		for i := 0; i < g.used; i++ {
			s := &g.slots[i]
			if s.state != slotActive || s.cursor >= candCount {
				continue
			}
			end := s.cursor + a.cfg.StepBudget
			if end > candCount {
				end = candCount
			}
			run := g.dyn[s.bufferPosition : s.bufferPosition+a.length]
			for ; s.cursor < end; s.cursor++ {
				work++
				if matchAt(flat, s.cursor, run) {
					s.state = slotConverged
					s.cursor++
					break
				}
			}
		}
	}
	return work
}

// matchAt reports whether every character position of run equals candidate
// ordinal ord in the flattened tier layout.
func matchAt(flat []byte, ord int, run []byte) bool {
	base := ord * len(run)
	for p := 0; p < len(run); p++ {
		if flat[base+p] != run[p] {
			return false
		}
	}
	return true
}

// TierWorkRemaining reports whether any active slot still has candidates to
// compare within the given tier.
func (a *Arena) TierWorkRemaining(tier int) bool {
	for _, c := range a.order {
		g := a.groups[c]
		if tier >= len(g.tiers) {
			continue
		}
		candCount := len(g.tiers[tier]) / a.length
		for i := 0; i < g.used; i++ {
			s := &g.slots[i]
			if s.state == slotActive && s.cursor < candCount {
				return true
			}
		}
	}
	return false
}

// CheckSettlement reads back convergence for the given tier: every converged
// slot is marked resolved and the matching candidate's word and token id are
// recorded via an exact-text scan of the tier (bucket sizes are capped, so
// the scan is cheap). Returns the number of newly resolved slots.
func (a *Arena) CheckSettlement(tier int) int {
	resolved := 0
	for _, c := range a.order {
		g := a.groups[c]
		if tier >= len(g.tiers) {
			continue
		}
		for i := 0; i < g.used; i++ {
			s := &g.slots[i]
			if s.state != slotConverged {
				continue
			}
			for _, e := range g.bucket.Tier(tier) {
				if e.Word == s.runText {
					s.matchedWord = e.Word
					s.matchedToken = e.TokenID
					s.tierResolved = e.Tier
					break
				}
			}
			s.state = slotResolved
			resolved++
		}
	}
	return resolved
}

// FlipToTier re-activates every unresolved slot against the next tier,
// resetting its transient comparison state. Resolved slots stay inert.
// Groups with no such tier are unaffected.
func (a *Arena) FlipToTier(next int) {
	for _, c := range a.order {
		g := a.groups[c]
		if next >= len(g.tiers) {
			continue
		}
		for i := 0; i < g.used; i++ {
			s := &g.slots[i]
			if s.state == slotActive {
				s.cursor = 0
			}
		}
	}
}

// HasUnresolved reports whether any loaded slot has not yet resolved.
func (a *Arena) HasUnresolved() bool {
	for _, g := range a.groups {
		for i := 0; i < g.used; i++ {
			if g.slots[i].state != slotResolved {
				return true
			}
		}
	}
	return false
}

// CollectResults returns the outcome of every loaded slot. Slots that never
// converged surface as unresolved results, not errors.
func (a *Arena) CollectResults() []Result {
	var out []Result
	for _, c := range a.order {
		g := a.groups[c]
		for i := 0; i < g.used; i++ {
			s := &g.slots[i]
			out = append(out, Result{
				Index:        s.runIndex,
				Resolved:     s.state == slotResolved && s.tierResolved >= 0,
				MatchedWord:  s.matchedWord,
				MatchedToken: s.matchedToken,
				Tier:         s.tierResolved,
			})
		}
	}
	return out
}

// ResetDynamics clears all slots and frees the dynamic region for the next
// pass. The candidate layout is untouched.
func (a *Arena) ResetDynamics() {
	for _, g := range a.groups {
		g.used = 0
	}
}

func lowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
