package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinesEmptyText(t *testing.T) {
	assert.Nil(t, Lines("", MemoryDefaults()))
	assert.Nil(t, Lines("   \n\n  ", MemoryDefaults()))
}

func TestLinesSingleSmallChunk(t *testing.T) {
	chunks := Lines("# A\n\nAlpha", MemoryDefaults())
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 3, chunks[0].EndLine)
	assert.Equal(t, "# A\n\nAlpha", chunks[0].Text)
}

func TestLinesSplitsOnLongInputWithOverlap(t *testing.T) {
	lines := make([]string, 200)
	for i := range lines {
		lines[i] = strings.Repeat("x", 20)
	}
	text := strings.Join(lines, "\n")

	chunks := Lines(text, Config{WindowTokens: 100, OverlapTokens: 20})
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.GreaterOrEqual(t, c.StartLine, 1)
		assert.GreaterOrEqual(t, c.EndLine, c.StartLine)
		if i > 0 {
			// Consecutive chunks overlap: the next chunk starts at or
			// before the previous chunk's end.
			assert.LessOrEqual(t, chunks[i].StartLine, chunks[i-1].EndLine)
		}
	}
	// Every chunk makes forward progress and the last one reaches EOF.
	assert.Equal(t, len(lines), chunks[len(chunks)-1].EndLine)
}

func TestLinesHandlesOversizedSingleLine(t *testing.T) {
	huge := strings.Repeat("y", 10000)
	chunks := Lines(huge, Config{WindowTokens: 10, OverlapTokens: 2})
	require.Len(t, chunks, 1)
	assert.Equal(t, huge, chunks[0].Text)
}
