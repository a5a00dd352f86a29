package segmenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentBasic(t *testing.T) {
	runs := Segment("The quick fox")
	require.Len(t, runs, 3)
	assert.Equal(t, "the", runs[0].Text)
	assert.Equal(t, "quick", runs[1].Text)
	assert.Equal(t, "fox", runs[2].Text)
	assert.Equal(t, 0, runs[0].Start)
	assert.Equal(t, 4, runs[1].Start)
	assert.Equal(t, 10, runs[2].Start)
	for _, r := range runs {
		assert.Equal(t, len(r.Text), r.Length)
	}
}

func TestSegmentStripsPunctuation(t *testing.T) {
	runs := Segment(`"Hello," she said.`)
	require.Len(t, runs, 3)
	assert.Equal(t, "hello", runs[0].Text)
	assert.Equal(t, 1, runs[0].Start)
	assert.Equal(t, "she", runs[1].Text)
	assert.Equal(t, "said", runs[2].Text)
}

func TestSegmentKeepsInteriorHyphens(t *testing.T) {
	runs := Segment("a well-known --fact- here")
	require.Len(t, runs, 4)
	assert.Equal(t, "well-known", runs[1].Text)
	assert.Equal(t, "fact", runs[2].Text, "edge hyphens are stripped")
}

func TestSegmentSkipsEmptyWords(t *testing.T) {
	runs := Segment("... -- ,,, one")
	require.Len(t, runs, 1)
	assert.Equal(t, "one", runs[0].Text)
}

func TestSegmentCapsClassification(t *testing.T) {
	cases := []struct {
		word string
		want CapsClass
	}{
		{"plain", CapsNone},
		{"Title", CapsInitial},
		{"LOUD", CapsAll},
		{"McLeod", CapsMixed},
	}
	for _, tc := range cases {
		runs := Segment(tc.word)
		require.Len(t, runs, 1, tc.word)
		assert.Equal(t, tc.want, runs[0].Caps, tc.word)
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	assert.Empty(t, Segment(""))
	assert.Empty(t, Segment("   \t\n "))
}
