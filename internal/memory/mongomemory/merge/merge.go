// Package merge implements the cross-source result merger (C6): per-method
// score normalization, client-side Reciprocal Rank Fusion for the
// JS-merged hybrid path, content-level deduplication, and full-text query
// construction.
package merge

// Method classifies which scoring scale a Hit's RawScore came from, since
// each scale needs its own normalization into [0, 1].
type Method string

const (
	MethodVector     Method = "vector"
	MethodText       Method = "text"
	MethodHybrid     Method = "hybrid"
	MethodStructured Method = "structured"
	MethodKB         Method = "kb"
)

// Hit is one raw result from a single-source pipeline, before cross-source
// normalization and merging.
type Hit struct {
	Path     string
	Snippet  string
	RawScore float64
	Score    float64 // populated by Normalize; zero until then
	Method   Method
	Source   string // memory/sessions/kb/structured, carried through to the caller
}

// Normalize maps RawScore into [0, 1] per Method's documented formula and
// writes the result back into Score, returning the same slice.
func Normalize(hits []Hit) []Hit {
	for i := range hits {
		hits[i].Score = normalizeOne(hits[i].Method, hits[i].RawScore)
	}
	return hits
}

func normalizeOne(method Method, raw float64) float64 {
	switch method {
	case MethodText:
		return raw / (raw + 5)
	default: // vector, hybrid, structured, kb are already in [0, 1]
		return clamp01(raw)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
