// Package usecases - retrieve.go finds passages of prior contracts similar to an intent.
package usecases

import (
	"context"
	"fmt"

	"github.com/0xcro3dile/clausesmith/internal/domain/entities"
	"github.com/0xcro3dile/clausesmith/internal/domain/ports"
)

// DefaultTopK is the number of passages retrieved per request.
const DefaultTopK = 5

// RetrieveUseCase implements ports.Retriever over an embedder and a vector store.
// It only reads the store and is safe for concurrent requests.
type RetrieveUseCase struct {
	embedder    ports.EmbeddingService
	vectorStore ports.VectorStore
}

// NewRetrieveUseCase creates a RetrieveUseCase with injected dependencies.
func NewRetrieveUseCase(embedder ports.EmbeddingService, vectorStore ports.VectorStore) *RetrieveUseCase {
	return &RetrieveUseCase{
		embedder:    embedder,
		vectorStore: vectorStore,
	}
}

// Retrieve returns up to k passages ordered by descending similarity.
func (uc *RetrieveUseCase) Retrieve(ctx context.Context, query string, k int) ([]entities.Passage, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	// 1. Embed the query
	queryEmbedding, err := uc.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// 2. Search vector store
	results, err := uc.vectorStore.Search(ctx, queryEmbedding, k)
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}
	if len(results) == 0 {
		return nil, entities.ErrNoPassages
	}

	// 3. Convert to passages, keeping provenance
	passages := make([]entities.Passage, len(results))
	for i, r := range results {
		meta := make(map[string]string, len(r.Chunk.Metadata)+1)
		for key, v := range r.Chunk.Metadata {
			meta[key] = v
		}
		if meta["source"] == "" && r.SourceDoc != "" {
			meta["source"] = r.SourceDoc
		}
		passages[i] = entities.Passage{Content: r.Chunk.Content, Metadata: meta}
	}
	return passages, nil
}
