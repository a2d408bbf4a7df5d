// Package chunk splits source text into line-addressed, token-windowed
// chunks for the sync engine (phase C of the component design). Output
// chunks carry 1-based inclusive start/end line numbers so callers can build
// the deterministic "{path}:{startLine}:{endLine}" composite chunk id.
package chunk

import "strings"

// Config controls the chunk window and overlap, both expressed in
// estimated tokens.
type Config struct {
	// WindowTokens is the target chunk size. Memory files default to 400,
	// knowledge-base documents default to 600.
	WindowTokens int

	// OverlapTokens is how much of the previous chunk's tail is repeated at
	// the start of the next chunk. Memory files default to 80, knowledge-base
	// documents default to 100.
	OverlapTokens int
}

// MemoryDefaults returns the token-window defaults for memory file chunking.
func MemoryDefaults() Config {
	return Config{WindowTokens: 400, OverlapTokens: 80}
}

// KBDefaults returns the token-window defaults for knowledge-base chunking.
func KBDefaults() Config {
	return Config{WindowTokens: 600, OverlapTokens: 100}
}

// Chunk is one line-addressed slice of the source text.
type Chunk struct {
	Text      string
	StartLine int // 1-based, inclusive
	EndLine   int // 1-based, inclusive
}

// charsPerToken is the same coarse token estimate the teacher's chunker
// uses: average English text runs about 4 characters per token.
const charsPerToken = 4

func estimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return (len(s) + charsPerToken - 1) / charsPerToken
}

// Lines splits text into a sequence of token-windowed chunks, each spanning
// whole lines, with the configured token overlap carried into the next
// chunk. Trailing whitespace-only lines still count toward line numbers so
// StartLine/EndLine always map back to the original file.
func Lines(text string, cfg Config) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if cfg.WindowTokens <= 0 {
		cfg = MemoryDefaults()
	}

	lines := strings.Split(text, "\n")
	lineTokens := make([]int, len(lines))
	for i, l := range lines {
		lineTokens[i] = estimateTokens(l)
	}

	var chunks []Chunk
	start := 0
	for start < len(lines) {
		end := start
		tokens := 0
		for end < len(lines) {
			next := tokens + lineTokens[end] + 1 // +1 for the joining newline
			if end > start && next > cfg.WindowTokens {
				break
			}
			tokens = next
			end++
		}
		if end == start {
			end = start + 1 // a single oversized line still becomes its own chunk
		}

		chunkText := strings.Join(lines[start:end], "\n")
		chunks = append(chunks, Chunk{
			Text:      chunkText,
			StartLine: start + 1,
			EndLine:   end,
		})

		if end >= len(lines) {
			break
		}
		start = overlapStart(lineTokens, end, cfg.OverlapTokens)
	}

	return chunks
}

// overlapStart walks backward from end, accumulating line token counts until
// the configured overlap budget is spent, returning the index the next
// chunk should start at. Always advances by at least one line to guarantee
// forward progress.
func overlapStart(lineTokens []int, end, overlapTokens int) int {
	if overlapTokens <= 0 {
		return end
	}
	tokens := 0
	i := end
	for i > 0 {
		candidate := tokens + lineTokens[i-1]
		if candidate > overlapTokens {
			break
		}
		tokens = candidate
		i--
	}
	if i >= end {
		return end
	}
	return i
}
