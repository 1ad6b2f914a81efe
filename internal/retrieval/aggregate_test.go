package retrieval

import (
	"reflect"
	"strings"
	"testing"
)

func TestAggregateGroupsByPageAscending(t *testing.T) {
	hits := []ScoredHit{
		{Hit: Hit{Content: "dosage table", Page: 12, MediaRefs: []string{"img/dose.png"}}, Similarity: 0.9},
		{Hit: Hit{Content: "intro", Page: 3}, Similarity: 0.8},
		{Hit: Hit{Content: "dosage notes", Page: 12, MediaRefs: []string{"img/dose.png", "img/chart.png"}}, Similarity: 0.7},
		{Hit: Hit{Content: "appendix", Page: 40}, Similarity: 0.6},
	}

	groups := Aggregate(hits, 0, 150)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	pages := []int{groups[0].Page, groups[1].Page, groups[2].Page}
	if !reflect.DeepEqual(pages, []int{3, 12, 40}) {
		t.Fatalf("pages out of order: %v", pages)
	}

	dose := groups[1]
	if dose.Content != "dosage table\ndosage notes" {
		t.Fatalf("content not concatenated in hit order: %q", dose.Content)
	}
	if !reflect.DeepEqual(dose.MediaRefs, []string{"img/dose.png", "img/chart.png"}) {
		t.Fatalf("media refs not deduped in first-seen order: %v", dose.MediaRefs)
	}
	if dose.BestSimilarity != 0.9 {
		t.Fatalf("best similarity = %f, want 0.9", dose.BestSimilarity)
	}
}

func TestAggregateThresholdFilters(t *testing.T) {
	hits := []ScoredHit{
		{Hit: Hit{Content: "relevant", Page: 1}, Similarity: 0.8},
		{Hit: Hit{Content: "noise", Page: 2}, Similarity: 0.2},
	}

	groups := Aggregate(hits, 0.5, 150)
	if len(groups) != 1 || groups[0].Page != 1 {
		t.Fatalf("threshold did not filter: %+v", groups)
	}
}

func TestAggregateSnippetTruncation(t *testing.T) {
	long := strings.Repeat("x", 200)
	groups := Aggregate([]ScoredHit{{Hit: Hit{Content: long, Page: 1}, Similarity: 1}}, 0, 150)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if got := groups[0].Snippet; got != strings.Repeat("x", 150)+"…" {
		t.Fatalf("snippet not truncated at 150: %d chars", len(got))
	}

	short := Aggregate([]ScoredHit{{Hit: Hit{Content: "short", Page: 1}, Similarity: 1}}, 0, 150)
	if short[0].Snippet != "short" {
		t.Fatalf("short content must not gain an ellipsis: %q", short[0].Snippet)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if groups := Aggregate(nil, 0, 150); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}
