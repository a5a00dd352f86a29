package tierindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func pairWeights(ws map[string]uint32) stubBonds {
	b := make(stubBonds, len(ws))
	for pair, w := range ws {
		b[[2]byte{pair[0], pair[1]}] = w
	}
	return b
}

func TestScoreWord(t *testing.T) {
	bonds := pairWeights(map[string]uint32{"th": 25, "he": 25})
	assert.Equal(t, uint64(50), scoreWord(bonds, "the"))
	assert.Equal(t, uint64(0), scoreWord(bonds, "x"), "single-character words score zero")
	assert.Equal(t, uint64(0), scoreWord(bonds, ""))
}

func TestBuildTierPartition(t *testing.T) {
	// Four words of length 3 starting with 't', descending scores.
	bonds := pairWeights(map[string]uint32{
		"th": 25, "he": 25, // the = 50
		"to": 5, "oo": 5, // too = 10
		"ta": 3, "an": 3, // tan = 6
		"ti": 1, "in": 1, // tin = 2
	})
	vocab := stubVocab{
		{"tin", "id-tin"},
		{"the", "id-the"},
		{"tan", "id-tan"},
		{"too", "id-too"},
	}
	a, err := Build(bonds, vocab, TierCaps{Tier0: 1, Tier1: 1, Tier2: 1})
	require.NoError(t, err)

	bucket, ok := a.GetBucket(3, 't')
	require.True(t, ok)
	assert.Equal(t, 3, bucket.TierCount())

	require.Len(t, bucket.Tier(0), 1)
	assert.Equal(t, "the", bucket.Tier(0)[0].Word)
	assert.Equal(t, 0, bucket.Tier(0)[0].Tier)
	require.Len(t, bucket.Tier(1), 1)
	assert.Equal(t, "too", bucket.Tier(1)[0].Word)
	require.Len(t, bucket.Tier(2), 1)
	assert.Equal(t, "tan", bucket.Tier(2)[0].Word)

	// "tin" exceeds every tier capacity and is excluded entirely.
	_, found := bucket.Lookup("tin")
	assert.False(t, found)
	assert.Len(t, bucket.Entries(), 3)
}

func TestBuildGroupsByLengthAndFirstChar(t *testing.T) {
	vocab := stubVocab{
		{"the", "id-the"},
		{"them", "id-them"},
		{"ship", "id-ship"},
	}
	a, err := Build(stubBonds{}, vocab, DefaultTierCaps)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 4}, a.Lengths())

	_, ok := a.GetBucket(3, 't')
	assert.True(t, ok)
	_, ok = a.GetBucket(4, 't')
	assert.True(t, ok)
	_, ok = a.GetBucket(4, 's')
	assert.True(t, ok)
	_, ok = a.GetBucket(5, 't')
	assert.False(t, ok)

	// Lookup lowercases the grouping character.
	_, ok = a.GetBucket(3, 'T')
	assert.True(t, ok)
}

func TestBuildDeterministicTieBreak(t *testing.T) {
	// Equal scores: ties break by word order regardless of input order.
	vocab1 := stubVocab{{"abc", "1"}, {"abd", "2"}, {"abe", "3"}}
	vocab2 := stubVocab{{"abe", "3"}, {"abc", "1"}, {"abd", "2"}}

	a1, err := Build(stubBonds{}, vocab1, TierCaps{Tier0: 2, Tier1: 1, Tier2: 1})
	require.NoError(t, err)
	a2, err := Build(stubBonds{}, vocab2, TierCaps{Tier0: 2, Tier1: 1, Tier2: 1})
	require.NoError(t, err)

	b1, _ := a1.GetBucket(3, 'a')
	b2, _ := a2.GetBucket(3, 'a')
	assert.Equal(t, b1.Entries(), b2.Entries())
	assert.Equal(t, "abc", b1.Tier(0)[0].Word)
	assert.Equal(t, "abd", b1.Tier(0)[1].Word)
	assert.Equal(t, "abe", b1.Tier(1)[0].Word)
}

func TestBuildSkipsDuplicatesAndEmptyWords(t *testing.T) {
	vocab := stubVocab{
		{"", "skip"},
		{"dog", "id-1"},
		{"dog", "id-2"},
	}
	a, err := Build(stubBonds{}, vocab, DefaultTierCaps)
	require.NoError(t, err)

	bucket, ok := a.GetBucket(3, 'd')
	require.True(t, ok)
	require.Len(t, bucket.Entries(), 1)
	assert.Equal(t, "id-1", bucket.Entries()[0].TokenID, "first-seen token id wins")
}

func TestBucketLookup(t *testing.T) {
	vocab := stubVocab{{"cat", "id-cat"}, {"cow", "id-cow"}}
	a, err := Build(stubBonds{}, vocab, DefaultTierCaps)
	require.NoError(t, err)

	bucket, _ := a.GetBucket(3, 'c')
	e, ok := bucket.Lookup("cow")
	require.True(t, ok)
	assert.Equal(t, "id-cow", e.TokenID)

	_, ok = bucket.Lookup("car")
	assert.False(t, ok)
}
