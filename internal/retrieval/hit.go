package retrieval

// Document is one indexable chunk of the knowledge base.
type Document struct {
	Content   string   `json:"content"`
	Page      int      `json:"page"`
	MediaRefs []string `json:"media_refs,omitempty"`
}

// Hit is one raw search result: a document plus its vector distance from
// the query. Lower distance means closer.
type Hit struct {
	Content   string   `json:"content"`
	Page      int      `json:"page"`
	Distance  float64  `json:"distance"`
	MediaRefs []string `json:"media_refs,omitempty"`
}

// ScoredHit carries the batch-relative similarity derived from the raw
// distances of one search.
type ScoredHit struct {
	Hit
	Similarity float64 `json:"similarity"`
}
