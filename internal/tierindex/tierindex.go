// Package tierindex builds the frequency-ranked vocabulary index consumed by
// the resolution arenas. Words are grouped into buckets keyed by (length,
// first letter), scored by aggregate character-adjacency weight, and
// partitioned into ordered tiers: tier 0 holds the highest-scoring words,
// later tiers progressively lower ones. Words beyond the last tier's capacity
// are excluded entirely and resolve only through the external minting path.
package tierindex

import (
	"fmt"
	"log/slog"
	"sort"
)

// BondTable supplies the co-occurrence strength between two adjacent
// characters. Used only during Build.
type BondTable interface {
	Weight(a, b byte) uint32
}

// Vocabulary iterates every (word, tokenID) pair. Used only during Build.
type Vocabulary interface {
	ForEachWord(fn func(word, tokenID string) error) error
}

// Entry is a single tiered vocabulary word. Immutable after Build.
type Entry struct {
	Word    string
	TokenID string
	Score   uint64
	Tier    int
}

// TierCaps bounds the number of entries per tier within one bucket.
type TierCaps struct {
	Tier0 int
	Tier1 int
	Tier2 int
}

// DefaultTierCaps matches the resolver's default configuration.
var DefaultTierCaps = TierCaps{Tier0: 16, Tier1: 32, Tier2: 64}

func (c TierCaps) cap(tier int) int {
	switch tier {
	case 0:
		return c.Tier0
	case 1:
		return c.Tier1
	case 2:
		return c.Tier2
	default:
		return 0
	}
}

// numTiers is the number of tier partitions per bucket.
const numTiers = 3

// Bucket holds every tiered word sharing a (length, first character) key,
// sorted by score descending with tiers contiguous. Read-only after Build.
type Bucket struct {
	Length    int
	FirstChar byte
	entries   []Entry
	tierStart []int // len numTiers+1; tier t spans entries[tierStart[t]:tierStart[t+1]]
}

// Entries returns all tiered entries in score order.
func (b *Bucket) Entries() []Entry { return b.entries }

// TierCount returns the number of non-empty tiers.
func (b *Bucket) TierCount() int {
	n := 0
	for t := 0; t < numTiers; t++ {
		if b.tierStart[t+1] > b.tierStart[t] {
			n = t + 1
		}
	}
	return n
}

// Tier returns the entries assigned to tier t, or nil when t is out of range.
func (b *Bucket) Tier(t int) []Entry {
	if t < 0 || t >= numTiers {
		return nil
	}
	return b.entries[b.tierStart[t]:b.tierStart[t+1]]
}

// Lookup scans the bucket for an exact word match. Bucket sizes are capped by
// the tier limits, so a linear scan is acceptable.
func (b *Bucket) Lookup(text string) (Entry, bool) {
	for _, e := range b.entries {
		if e.Word == text {
			return e, true
		}
	}
	return Entry{}, false
}

type bucketKey struct {
	length int
	first  byte
}

// Assembly is the complete tiered index. Built once per vocabulary load and
// read-only thereafter; safe to share across orchestrators.
type Assembly struct {
	buckets map[bucketKey]*Bucket
	lengths []int
	caps    TierCaps
}

// Build constructs the Assembly from the vocabulary and bond table. The
// result is deterministic for identical inputs: ties in score are broken by
// word order, and duplicate words keep their first-seen token id.
func Build(bonds BondTable, vocab Vocabulary, caps TierCaps) (*Assembly, error) {
	if caps.Tier0 <= 0 {
		caps = DefaultTierCaps
	}
	log := slog.Default().With("component", "tier-assembly")

	grouped := make(map[bucketKey][]Entry)
	seen := make(map[string]struct{})
	total := 0
	err := vocab.ForEachWord(func(word, tokenID string) error {
		if word == "" {
			return nil
		}
		if _, dup := seen[word]; dup {
			return nil
		}
		seen[word] = struct{}{}
		key := bucketKey{length: len(word), first: lowerByte(word[0])}
		grouped[key] = append(grouped[key], Entry{
			Word:    word,
			TokenID: tokenID,
			Score:   scoreWord(bonds, word),
		})
		total++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating vocabulary: %w", err)
	}

	a := &Assembly{
		buckets: make(map[bucketKey]*Bucket, len(grouped)),
		caps:    caps,
	}
	kept := 0
	lengthSet := make(map[int]struct{})
	for key, entries := range grouped {
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Score != entries[j].Score {
				return entries[i].Score > entries[j].Score
			}
			return entries[i].Word < entries[j].Word
		})
		bucket := &Bucket{
			Length:    key.length,
			FirstChar: key.first,
			tierStart: make([]int, numTiers+1),
		}
		offset := 0
		for t := 0; t < numTiers; t++ {
			bucket.tierStart[t] = len(bucket.entries)
			take := caps.cap(t)
			for i := 0; i < take && offset < len(entries); i++ {
				e := entries[offset]
				e.Tier = t
				bucket.entries = append(bucket.entries, e)
				offset++
			}
		}
		bucket.tierStart[numTiers] = len(bucket.entries)
		// Words past the last tier fall through to the minting path.
		a.buckets[key] = bucket
		kept += len(bucket.entries)
		lengthSet[key.length] = struct{}{}
	}

	a.lengths = make([]int, 0, len(lengthSet))
	for l := range lengthSet {
		a.lengths = append(a.lengths, l)
	}
	sort.Ints(a.lengths)

	log.Info("tier assembly built",
		"words_seen", total,
		"words_tiered", kept,
		"buckets", len(a.buckets),
		"lengths", len(a.lengths),
	)
	return a, nil
}

// GetBucket returns the read-only bucket for (length, firstChar), if any.
// The first character is lowercased before lookup.
func (a *Assembly) GetBucket(length int, firstChar byte) (*Bucket, bool) {
	b, ok := a.buckets[bucketKey{length: length, first: lowerByte(firstChar)}]
	return b, ok
}

// Lengths returns the sorted word lengths with at least one bucket.
func (a *Assembly) Lengths() []int {
	out := make([]int, len(a.lengths))
	copy(out, a.lengths)
	return out
}

// scoreWord sums the pairwise adjacency weight over every consecutive
// character pair. Single-character words score zero.
func scoreWord(bonds BondTable, word string) uint64 {
	var score uint64
	for i := 0; i+1 < len(word); i++ {
		score += uint64(bonds.Weight(word[i], word[i+1]))
	}
	return score
}

func lowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
