package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recallerrors "github.com/notewell/recall/internal/errors"
)

func TestNewChunker_RejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -3, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChunker(tt.size, tt.overlap)
			require.Error(t, err)
			assert.True(t, recallerrors.IsCode(err, recallerrors.ErrCodeChunkParams))

			// The package-level wrapper fails the same way for any text.
			_, err = Chunk("Some text here.", tt.size, tt.overlap)
			require.Error(t, err)
		})
	}
}

func TestSplit_EmptyAndWhitespaceYieldNothing(t *testing.T) {
	c, err := NewChunker(100, 10)
	require.NoError(t, err)

	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   "))
	assert.Empty(t, c.Split("\n\t \n"))
}

func TestSplit_IsDeterministic(t *testing.T) {
	c, err := NewChunker(8, 2)
	require.NoError(t, err)

	text := "The quick brown fox jumps. Over the lazy dog! Again and again? " +
		"Sentences keep coming. Until the text runs out."

	first := c.Split(text)
	second := c.Split(text)
	assert.Equal(t, first, second)
}

func TestSplit_NoBoundaryTreatsInputAsOneSentence(t *testing.T) {
	c, err := NewChunker(100, 0)
	require.NoError(t, err)

	pieces := c.Split("no terminal punctuation at all")
	require.Len(t, pieces, 1)
	assert.Equal(t, "no terminal punctuation at all", pieces[0].Text)
	assert.Equal(t, 0, pieces[0].ChunkIndex)
}

func TestSplit_OffsetsIndexOriginalText(t *testing.T) {
	c, err := NewChunker(5, 1)
	require.NoError(t, err)

	text := "Alpha beats beta. Beta beats gamma. Gamma beats delta. Delta wins."
	pieces := c.Split(text)
	require.NotEmpty(t, pieces)

	for i, p := range pieces {
		assert.Equal(t, i, p.ChunkIndex)
		assert.Equal(t, text[p.StartOffset:p.EndOffset], p.Text)
		assert.Equal(t, (len(p.Text)+3)/4, p.TokenCount)
	}
}

// Scenario: chunkSize=3 tokens (~12 chars), overlap=1 token (~4 chars).
func TestSplit_SmallBudgetProducesOverlappingChunks(t *testing.T) {
	c, err := NewChunker(3, 1)
	require.NoError(t, err)

	pieces := c.Split("One. Two. Three. Four.")
	require.GreaterOrEqual(t, len(pieces), 2)

	// The second chunk's leading text overlaps the tail of the first.
	first, second := pieces[0], pieces[1]
	assert.Less(t, second.StartOffset, first.EndOffset)
	overlap := first.Text[second.StartOffset-first.StartOffset:]
	assert.True(t, strings.HasPrefix(second.Text, overlap))
}

func TestSplit_ZeroOverlapChunksDoNotOverlap(t *testing.T) {
	c, err := NewChunker(4, 0)
	require.NoError(t, err)

	pieces := c.Split("First sentence here. Second sentence here. Third sentence here.")
	require.GreaterOrEqual(t, len(pieces), 2)

	for i := 1; i < len(pieces); i++ {
		assert.GreaterOrEqual(t, pieces[i].StartOffset, pieces[i-1].EndOffset)
	}
}

func TestSplit_OverlapPrefersSentenceBoundaryInWindow(t *testing.T) {
	// A large overlap window spanning a sentence boundary should seed the
	// next chunk at the following sentence start, not mid-word.
	c, err := NewChunker(10, 4)
	require.NoError(t, err)

	text := "Aaaa aaaa aaaa aaaa. Bb bb. Cccc cccc cccc cccc cccc. Dddd dddd dddd."
	pieces := c.Split(text)
	require.GreaterOrEqual(t, len(pieces), 2)

	for _, p := range pieces[1:] {
		if p.StartOffset > 0 {
			prev := text[p.StartOffset-1]
			// Either a raw trailing slice or a sentence start; when the
			// window held a boundary, the chunk starts after whitespace.
			if prev == ' ' {
				assert.False(t, p.Text[0] == ' ')
			}
		}
	}
}

func TestSplit_OversizedSentenceStillEmitted(t *testing.T) {
	c, err := NewChunker(2, 0)
	require.NoError(t, err)

	// A single sentence longer than the budget becomes one oversized chunk.
	long := strings.Repeat("word ", 20) + "end."
	pieces := c.Split(long)
	require.Len(t, pieces, 1)
	assert.Greater(t, pieces[0].TokenCount, 2)
}

func TestTokenCount_CeilDivisionByFour(t *testing.T) {
	assert.Equal(t, 0, TokenCount(""))
	assert.Equal(t, 1, TokenCount("a"))
	assert.Equal(t, 1, TokenCount("abcd"))
	assert.Equal(t, 2, TokenCount("abcde"))
	assert.Equal(t, 3, TokenCount("123456789"))
}
