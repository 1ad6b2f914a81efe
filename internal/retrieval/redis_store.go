package retrieval

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const knowledgeKey = "knowledge:documents"

// RedisStore persists knowledge base documents in a Redis list so the
// in-memory vector index can be rebuilt on restart.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("retrieval: redis client required")
	}
	return &RedisStore{client: client}
}

// Append persists documents in order.
func (s *RedisStore) Append(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	payloads := make([]interface{}, 0, len(docs))
	for _, d := range docs {
		raw, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("retrieval: encode document: %w", err)
		}
		payloads = append(payloads, raw)
	}
	if err := s.client.RPush(ctx, knowledgeKey, payloads...).Err(); err != nil {
		return fmt.Errorf("retrieval: persist documents: %w", err)
	}
	return nil
}

// LoadAll returns every stored document in insertion order.
func (s *RedisStore) LoadAll(ctx context.Context) ([]Document, error) {
	raws, err := s.client.LRange(ctx, knowledgeKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("retrieval: load documents: %w", err)
	}
	docs := make([]Document, 0, len(raws))
	for _, raw := range raws {
		var d Document
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("retrieval: decode document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// Hydrate loads every persisted document into the index.
func (s *RedisStore) Hydrate(ctx context.Context, index *MemoryVectorIndex) error {
	docs, err := s.LoadAll(ctx)
	if err != nil {
		return err
	}
	return index.Add(ctx, docs)
}
