package merge

import "sort"

const rrfK = 60

// RRF fuses multiple independently-ranked result lists client-side by
// Reciprocal Rank Fusion: each list contributes 1/(60+rank) per item
// (1-based rank), contributions for the same path sum across lists, and
// the total is divided by 2/61 to normalize back onto a familiar scale.
// Ties break by descending rrf-sum, then by the order lists were supplied
// (earlier list wins).
func RRF(lists ...[]Hit) []Hit {
	type acc struct {
		hit      Hit
		sum      float64
		firstSeen int
	}
	byPath := make(map[string]*acc)
	order := 0

	for listIdx, list := range lists {
		for rank, h := range list {
			score := 1.0 / float64(rrfK+rank+1)
			a, ok := byPath[h.Path]
			if !ok {
				order++
				byPath[h.Path] = &acc{hit: h, sum: score, firstSeen: listIdx*1_000_000 + order}
				continue
			}
			a.sum += score
			if a.hit.Snippet == "" {
				a.hit.Snippet = h.Snippet
			}
		}
	}

	const normalizer = 2.0 / (rrfK + 1)

	out := make([]Hit, 0, len(byPath))
	metas := make(map[string]*acc, len(byPath))
	for path, a := range byPath {
		hit := a.hit
		hit.Method = MethodHybrid
		hit.RawScore = a.sum / normalizer
		out = append(out, hit)
		metas[path] = a
	}

	sort.Slice(out, func(i, j int) bool {
		ai, aj := metas[out[i].Path], metas[out[j].Path]
		if ai.sum != aj.sum {
			return ai.sum > aj.sum
		}
		return ai.firstSeen < aj.firstSeen
	})

	return Normalize(out)
}
