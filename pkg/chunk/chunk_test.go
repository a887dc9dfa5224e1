package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_ShortTextReturnsSingleChunk(t *testing.T) {
	text := "A short programme description."
	chunks := Split(text, 1000, 200)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplit_EmptyText(t *testing.T) {
	assert.Nil(t, Split("", 100, 20))
	assert.Nil(t, Split("   \n\t  ", 100, 20))
}

func TestSplit_NormalizesWhitespace(t *testing.T) {
	chunks := Split("hello\n\n  world\t!", 100, 10)

	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world !", chunks[0])
}

func TestSplit_ChunkLengthNeverExceedsSize(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 100)
	size, overlap := 200, 50

	chunks := Split(text, size, overlap)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.LessOrEqualf(t, len(c), size, "chunk %d exceeds size", i)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplit_PrefersSentenceBoundary(t *testing.T) {
	// The sentence end lands past the window midpoint, so the cut should
	// happen there instead of mid-word.
	text := strings.Repeat("x", 150) + ". " + strings.Repeat("y", 150)
	chunks := Split(text, 200, 20)

	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0], "."), "first chunk should end at the sentence boundary, got %q tail", chunks[0][len(chunks[0])-5:])
}

func TestSplit_OverlapCarriesTextForward(t *testing.T) {
	text := strings.Repeat("abcdefghij", 50) // 500 chars, no natural breaks
	size, overlap := 100, 20

	chunks := Split(text, size, overlap)
	require.Greater(t, len(chunks), 1)

	// Each chunk after the first starts with the last `overlap` characters
	// of its predecessor.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-overlap:]
		assert.True(t, strings.HasPrefix(chunks[i], tail), "chunk %d does not overlap its predecessor", i)
	}

	// Removing the overlap from every chunk but the first reproduces the
	// input.
	rebuilt := chunks[0]
	for i := 1; i < len(chunks); i++ {
		rebuilt += chunks[i][overlap:]
	}
	assert.Equal(t, text, rebuilt)
}

func TestSplit_OverlapClampedBelowSize(t *testing.T) {
	text := strings.Repeat("z", 500)

	// overlap >= size must still make forward progress.
	chunks := Split(text, 100, 100)
	assert.NotEmpty(t, chunks)
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	assert.GreaterOrEqual(t, total, len(text))
}
