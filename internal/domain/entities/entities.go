// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"
)

// MinIntentTokens is the minimum number of whitespace-separated words an intent needs.
const MinIntentTokens = 3

// DefaultSource is reported when the first passage carries no source metadata.
const DefaultSource = "Unknown"

// FeedbackOptions are the affordances offered with every drafted clause.
var FeedbackOptions = []string{"Accept", "Re-generate", "Edit"}

// Document represents a source contract (PDF, TXT, MD) fed into the index.
type Document struct {
	ID        string
	Name      string
	Path      string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentIDFor derives the deterministic document ID for a file path.
func DocumentIDFor(path string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(path)))
	return hex.EncodeToString(hash[:8])
}

// Chunk represents a piece of a document for embedding.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	Index      int               // Position in document
	Metadata   map[string]string // Provenance, at least "source"
	Embedding  []float32         // Vector representation (populated by adapter)
}

// QueryResult represents a search result with relevance.
type QueryResult struct {
	Chunk     Chunk
	Score     float64 // Similarity score
	SourceDoc string  // Document name for citation
}

// Passage is a retrieved excerpt of prior contract text plus its provenance.
// Passages are immutable once retrieved and shared by every attempt of a request.
type Passage struct {
	Content  string
	Metadata map[string]string
}

// Source returns the passage's source identifier, or DefaultSource.
func (p Passage) Source() string {
	if s := strings.TrimSpace(p.Metadata["source"]); s != "" {
		return s
	}
	return DefaultSource
}

// SourceOf resolves provenance from the first retrieved passage.
func SourceOf(passages []Passage) (map[string]string, string) {
	if len(passages) == 0 {
		return nil, DefaultSource
	}
	first := passages[0]
	meta := first.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	return meta, first.Source()
}

// Intent is validated user text describing the clause to draft.
type Intent string

// NewIntent validates raw prompt text. It rejects empty prompts and prompts
// with fewer than MinIntentTokens words.
func NewIntent(prompt string) (Intent, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", &ValidationError{Reason: "prompt cannot be empty"}
	}
	if len(strings.Fields(trimmed)) < MinIntentTokens {
		return "", &ValidationError{Reason: "prompt is too short to be meaningful"}
	}
	return Intent(trimmed), nil
}

func (i Intent) String() string { return string(i) }

// Assessment is the output of a risk assessor.
type Assessment struct {
	Level     RiskLevel
	Reasoning string // Only model-based assessors fill this in
}

// Candidate is one drafted clause with its classification attached.
type Candidate struct {
	Clause    string
	Risk      RiskLevel
	Category  Category
	Reasoning string
	SourceID  string
	Attempt   int
}

// Evaluation is the single outward result of drafting a clause.
type Evaluation struct {
	Candidate
	Metadata        map[string]string
	FeedbackOptions []string
	Attempts        int // Generation attempts spent, failed ones included
	Failures        int
}
