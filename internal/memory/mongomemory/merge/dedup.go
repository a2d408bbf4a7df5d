package merge

// Dedupe collapses entries whose rendered snippet strings are equal,
// keeping the highest-scoring one. This is deliberately a plain string
// compare, not a content hash: two different paths that happen to render
// the same snippet text are the same result from the caller's point of
// view, and a hash would add cost without changing the comparison.
// Preserves the input's relative order among surviving entries.
func Dedupe(hits []Hit) []Hit {
	best := make(map[string]int, len(hits)) // snippet -> index in out
	var out []Hit

	for _, h := range hits {
		if idx, ok := best[h.Snippet]; ok {
			if h.Score > out[idx].Score {
				out[idx] = h
			}
			continue
		}
		best[h.Snippet] = len(out)
		out = append(out, h)
	}
	return out
}
