package vectordb

import (
	"math"
	"sort"

	"github.com/0xcro3dile/clausesmith/internal/domain/entities"
)

// cosineSimilarity calculates cosine similarity between two vectors.
// Mismatched or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankTopK sorts by descending score, ties by chunk ID, and keeps topK.
func rankTopK(results []entities.QueryResult, topK int) []entities.QueryResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

func sourceOf(chunk entities.Chunk) string {
	if s := chunk.Metadata["source"]; s != "" {
		return s
	}
	return chunk.DocumentID
}
