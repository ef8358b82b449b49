package vectorstore

import "math"

// Cosine returns the cosine similarity of a and b, or 0 when either is a zero vector.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// MaxMarginalRelevance picks up to k candidates that are similar to the query
// but dissimilar to each other. lambda=1 ranks purely by relevance, lambda=0
// purely by diversity. The result is in selection order.
func MaxMarginalRelevance(query []float32, candidates []Match, k int, lambda float64) []Match {
	k = min(k, len(candidates))
	if k <= 0 {
		return nil
	}
	toQuery := make([]float64, len(candidates))
	best := 0
	for i, c := range candidates {
		toQuery[i] = Cosine(query, c.Vector)
		if toQuery[i] > toQuery[best] {
			best = i
		}
	}

	selected := []int{best}
	chosen := map[int]bool{best: true}
	// redundancy[i] tracks max similarity of candidate i to anything selected so far
	redundancy := make([]float64, len(candidates))
	for i := range candidates {
		redundancy[i] = Cosine(candidates[i].Vector, candidates[best].Vector)
	}
	for len(selected) < k {
		next, nextScore := -1, math.Inf(-1)
		for i := range candidates {
			if chosen[i] {
				continue
			}
			score := lambda*toQuery[i] - (1-lambda)*redundancy[i]
			if score > nextScore {
				next, nextScore = i, score
			}
		}
		selected = append(selected, next)
		chosen[next] = true
		for i := range candidates {
			if s := Cosine(candidates[i].Vector, candidates[next].Vector); s > redundancy[i] {
				redundancy[i] = s
			}
		}
	}

	out := make([]Match, len(selected))
	for i, idx := range selected {
		out[i] = candidates[idx]
	}
	return out
}
