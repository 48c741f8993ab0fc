// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions, adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/clausesmith/internal/domain/entities"
)

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMService generates text from a language model.
// Implementations must be safe for concurrent use.
type LLMService interface {
	// Generate produces a completion for a fully built prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// VectorStore persists and queries document embeddings.
type VectorStore interface {
	// Store saves chunks with their embeddings.
	Store(ctx context.Context, chunks []entities.Chunk) error

	// Search finds the most similar chunks to a query embedding.
	Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error)

	// Delete removes all chunks for a document.
	Delete(ctx context.Context, documentID string) error

	// Clear removes all data from the store.
	Clear(ctx context.Context) error

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)
}

// Retriever returns up to k passages ordered by descending similarity.
// It fails with entities.ErrNoPassages when the index yields nothing.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]entities.Passage, error)
}

// ClauseGenerator drafts one clause from an intent and retrieved passages.
// Repeated calls with the same passages may return different text.
type ClauseGenerator interface {
	Generate(ctx context.Context, intent string, passages []entities.Passage) (string, error)
}

// RiskAssessor grades the legal risk of clause text.
type RiskAssessor interface {
	AssessRisk(ctx context.Context, clause string) (entities.Assessment, error)
}

// Classifier tags a clause with a category. Pure, no I/O.
type Classifier interface {
	Classify(clause string) entities.Category
}

// DocumentLoader reads and parses documents from various formats.
type DocumentLoader interface {
	// Load reads a document from the given path.
	Load(ctx context.Context, path string) (*entities.Document, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// DocumentParser extracts text from binary document formats (PDF, DOCX, etc).
type DocumentParser interface {
	// Parse extracts text content from document bytes.
	Parse(ctx context.Context, data []byte, filename string) (string, error)

	// SupportedFormats returns formats this parser handles (e.g., "pdf", "docx").
	SupportedFormats() []string
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
