package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// VectorIndex answers nearest-neighbor queries over the knowledge base.
type VectorIndex interface {
	// Search returns up to topK hits ordered by ascending distance.
	Search(ctx context.Context, query string, topK int) ([]Hit, error)
}

// MemoryVectorIndex holds document vectors in process memory and scans them
// linearly. Fine for a knowledge base of handbook size; swap the index, not
// the callers, when the corpus outgrows it.
type MemoryVectorIndex struct {
	embedder Embedder

	mu      sync.RWMutex
	docs    []Document
	vectors [][]float32
}

// NewMemoryVectorIndex builds an empty index over the given embedder.
func NewMemoryVectorIndex(embedder Embedder) *MemoryVectorIndex {
	if embedder == nil {
		panic("retrieval: embedder required")
	}
	return &MemoryVectorIndex{embedder: embedder}
}

// Add embeds and indexes the documents.
func (x *MemoryVectorIndex) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := x.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("retrieval: index documents: %w", err)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.docs = append(x.docs, docs...)
	x.vectors = append(x.vectors, vectors...)
	return nil
}

// Len reports how many documents are indexed.
func (x *MemoryVectorIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

func (x *MemoryVectorIndex) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	if topK <= 0 {
		return []Hit{}, nil
	}
	vectors, err := x.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}
	queryVec := vectors[0]

	x.mu.RLock()
	defer x.mu.RUnlock()

	hits := make([]Hit, 0, len(x.docs))
	for i, doc := range x.docs {
		hits = append(hits, Hit{
			Content:   doc.Content,
			Page:      doc.Page,
			Distance:  cosineDistance(queryVec, x.vectors[i]),
			MediaRefs: doc.MediaRefs,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// cosineDistance is 1 - cosine similarity, so identical vectors are at
// distance 0. Degenerate (zero-norm) vectors land at distance 1.
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
