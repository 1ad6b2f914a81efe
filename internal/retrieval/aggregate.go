package retrieval

import (
	"sort"
	"strings"
)

// DefaultSnippetLength bounds the per-page preview in aggregated results.
const DefaultSnippetLength = 150

// PageGroup is the aggregate of every surviving hit on one page.
type PageGroup struct {
	Page          int      `json:"page"`
	Content       string   `json:"content"`
	Snippet       string   `json:"snippet"`
	MediaRefs     []string `json:"media_refs,omitempty"`
	BestSimilarity float64 `json:"best_similarity"`
}

// Aggregate filters scored hits by the similarity threshold and folds the
// survivors into one group per page, ordered by ascending page number.
// Within a group, content concatenates in hit order and media references
// dedupe while keeping first-seen order. snippetLen <= 0 falls back to
// DefaultSnippetLength.
func Aggregate(hits []ScoredHit, threshold float64, snippetLen int) []PageGroup {
	if snippetLen <= 0 {
		snippetLen = DefaultSnippetLength
	}

	groups := make(map[int]*PageGroup)
	seenRefs := make(map[int]map[string]struct{})
	var contents = make(map[int][]string)

	for _, h := range hits {
		if h.Similarity < threshold {
			continue
		}
		g, ok := groups[h.Page]
		if !ok {
			g = &PageGroup{Page: h.Page}
			groups[h.Page] = g
			seenRefs[h.Page] = make(map[string]struct{})
		}
		contents[h.Page] = append(contents[h.Page], h.Content)
		if h.Similarity > g.BestSimilarity {
			g.BestSimilarity = h.Similarity
		}
		for _, ref := range h.MediaRefs {
			if _, dup := seenRefs[h.Page][ref]; dup {
				continue
			}
			seenRefs[h.Page][ref] = struct{}{}
			g.MediaRefs = append(g.MediaRefs, ref)
		}
	}

	out := make([]PageGroup, 0, len(groups))
	for page, g := range groups {
		g.Content = strings.Join(contents[page], "\n")
		g.Snippet = snippet(g.Content, snippetLen)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Page < out[j].Page })
	return out
}

// snippet truncates on rune boundaries and marks the cut with an ellipsis.
func snippet(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "…"
}
