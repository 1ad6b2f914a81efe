package retrieval

// Score converts raw distances into batch-relative similarities:
// similarity = 1 - distance/max(distance) over the batch. The farthest hit
// scores 0, an exact match scores 1. When every distance is zero the
// batch has nothing to rank by, so every hit scores 1.
func Score(hits []Hit) []ScoredHit {
	out := make([]ScoredHit, 0, len(hits))
	if len(hits) == 0 {
		return out
	}

	var max float64
	for _, h := range hits {
		if h.Distance > max {
			max = h.Distance
		}
	}

	for _, h := range hits {
		sim := 1.0
		if max > 0 {
			sim = 1 - h.Distance/max
		}
		out = append(out, ScoredHit{Hit: h, Similarity: sim})
	}
	return out
}
