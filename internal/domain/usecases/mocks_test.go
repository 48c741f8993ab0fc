package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xcro3dile/clausesmith/internal/domain/entities"
	"github.com/0xcro3dile/clausesmith/internal/domain/ports"
)

// mockEmbedder implements ports.EmbeddingService for testing
type mockEmbedder struct {
	embedFn func(text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		emb, err := m.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = emb
	}
	return result, nil
}

// mockVectorStore implements ports.VectorStore for testing
type mockVectorStore struct {
	chunks  []entities.Chunk
	deleted []string
	storeFn func(chunks []entities.Chunk) error
}

func (m *mockVectorStore) Store(ctx context.Context, chunks []entities.Chunk) error {
	if m.storeFn != nil {
		return m.storeFn(chunks)
	}
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *mockVectorStore) Search(ctx context.Context, emb []float32, topK int) ([]entities.QueryResult, error) {
	var results []entities.QueryResult
	for i, c := range m.chunks {
		if i >= topK {
			break
		}
		results = append(results, entities.QueryResult{Chunk: c, Score: 0.9, SourceDoc: c.DocumentID})
	}
	return results, nil
}

func (m *mockVectorStore) Delete(ctx context.Context, docID string) error {
	m.deleted = append(m.deleted, docID)
	kept := m.chunks[:0]
	for _, c := range m.chunks {
		if c.DocumentID != docID {
			kept = append(kept, c)
		}
	}
	m.chunks = kept
	return nil
}

func (m *mockVectorStore) Clear(ctx context.Context) error {
	m.chunks = nil
	return nil
}

func (m *mockVectorStore) Count(ctx context.Context) (int, error) {
	return len(m.chunks), nil
}

// mockLLM implements ports.LLMService for testing
type mockLLM struct {
	response string
	err      error
	prompts  []string
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if m.response != "" {
		return m.response, nil
	}
	return "mocked answer", nil
}

// mockRetriever implements ports.Retriever for testing
type mockRetriever struct {
	passages []entities.Passage
	err      error
	calls    int
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, k int) ([]entities.Passage, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.passages) > k {
		return m.passages[:k], nil
	}
	return m.passages, nil
}

// scriptedGenerator implements ports.ClauseGenerator, returning "clause N" on call N.
type scriptedGenerator struct {
	failOn   map[int]bool
	calls    int
	passages [][]entities.Passage
}

func (g *scriptedGenerator) Generate(ctx context.Context, intent string, passages []entities.Passage) (string, error) {
	g.calls++
	g.passages = append(g.passages, passages)
	if g.failOn[g.calls] {
		return "", fmt.Errorf("%w: model unreachable", entities.ErrGeneration)
	}
	return fmt.Sprintf("clause %d", g.calls), nil
}

// scriptedAssessor implements ports.RiskAssessor, grading call N with levels[N-1].
// Calls past the script grade High.
type scriptedAssessor struct {
	levels []entities.RiskLevel
	failOn map[int]bool
	calls  int
}

func (a *scriptedAssessor) AssessRisk(ctx context.Context, clause string) (entities.Assessment, error) {
	a.calls++
	if a.failOn[a.calls] {
		return entities.Assessment{}, errors.New("assessor timeout")
	}
	if a.calls-1 < len(a.levels) {
		return entities.Assessment{Level: a.levels[a.calls-1]}, nil
	}
	return entities.Assessment{Level: entities.RiskHigh}, nil
}

// fixedClassifier implements ports.Classifier for testing
type fixedClassifier struct {
	category entities.Category
}

func (c fixedClassifier) Classify(string) entities.Category {
	if c.category == "" {
		return entities.CategoryGeneral
	}
	return c.category
}

var (
	_ ports.Retriever       = (*mockRetriever)(nil)
	_ ports.ClauseGenerator = (*scriptedGenerator)(nil)
	_ ports.RiskAssessor    = (*scriptedAssessor)(nil)
	_ ports.Classifier      = fixedClassifier{}
	_ ports.Retriever       = (*RetrieveUseCase)(nil)
	_ ports.ClauseGenerator = (*GenerateUseCase)(nil)
)

func fivePassages() []entities.Passage {
	out := make([]entities.Passage, 5)
	for i := range out {
		out[i] = entities.Passage{
			Content:  fmt.Sprintf("prior clause %d", i+1),
			Metadata: map[string]string{"source": fmt.Sprintf("contract-%d.txt", i+1)},
		}
	}
	return out
}

func repeatLevel(level entities.RiskLevel, n int) []entities.RiskLevel {
	out := make([]entities.RiskLevel, n)
	for i := range out {
		out[i] = level
	}
	return out
}
