// Package vectordb provides vector store adapters implementing ports.VectorStore.
package vectordb

import (
	"context"
	"sync"

	"github.com/0xcro3dile/clausesmith/internal/domain/entities"
)

// InMemoryStore keeps the index in process memory. It is rebuilt from the
// corpus on every start; use it for small corpora or throwaway runs.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]entities.Chunk // documentID -> chunkID -> chunk
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{docs: make(map[string]map[string]entities.Chunk)}
}

// Store upserts chunks by ID under their document.
func (s *InMemoryStore) Store(ctx context.Context, chunks []entities.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		doc, ok := s.docs[c.DocumentID]
		if !ok {
			doc = make(map[string]entities.Chunk)
			s.docs[c.DocumentID] = doc
		}
		c.Metadata = copyMetadata(c.Metadata)
		doc[c.ID] = c
	}
	return nil
}

// Search ranks every chunk by cosine similarity and keeps the topK best.
func (s *InMemoryStore) Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []entities.QueryResult
	for _, doc := range s.docs {
		for _, c := range doc {
			c.Metadata = copyMetadata(c.Metadata)
			results = append(results, entities.QueryResult{
				Chunk:     c,
				Score:     cosineSimilarity(embedding, c.Embedding),
				SourceDoc: sourceOf(c),
			})
		}
	}
	return rankTopK(results, topK), nil
}

// Delete drops every chunk of documentID.
func (s *InMemoryStore) Delete(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, documentID)
	return nil
}

// Clear empties the store.
func (s *InMemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.docs)
	return nil
}

// Count returns the number of stored chunks.
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, doc := range s.docs {
		n += len(doc)
	}
	return n, nil
}

// Close is a no-op; it lets InMemoryStore stand in for SQLiteStore.
func (s *InMemoryStore) Close() error { return nil }

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
