// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/0xcro3dile/clausesmith/internal/domain/entities"
	"github.com/0xcro3dile/clausesmith/internal/domain/ports"
)

const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 200
)

// IngestUseCase builds the contract index: chunk, embed, store.
type IngestUseCase struct {
	embedder     ports.EmbeddingService
	vectorStore  ports.VectorStore
	loader       ports.DocumentLoader
	chunkSize    int
	chunkOverlap int
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
// loader may be nil when only Ingest is used.
func NewIngestUseCase(
	embedder ports.EmbeddingService,
	vectorStore ports.VectorStore,
	loader ports.DocumentLoader,
	chunkSize, chunkOverlap int,
) *IngestUseCase {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
		if chunkOverlap >= chunkSize {
			chunkOverlap = chunkSize / 10
		}
	}
	return &IngestUseCase{
		embedder:     embedder,
		vectorStore:  vectorStore,
		loader:       loader,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Ingest processes a document: chunks it, embeds it, stores it.
// Existing chunks of the same document are replaced.
func (uc *IngestUseCase) Ingest(ctx context.Context, doc *entities.Document) (int, error) {
	chunks := uc.chunkDocument(doc)
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embeddings, err := uc.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %s: %w", doc.Name, err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding %s: got %d vectors for %d chunks", doc.Name, len(embeddings), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	if err := uc.vectorStore.Delete(ctx, doc.ID); err != nil {
		return 0, fmt.Errorf("replacing %s: %w", doc.Name, err)
	}
	if err := uc.vectorStore.Store(ctx, chunks); err != nil {
		return 0, fmt.Errorf("storing %s: %w", doc.Name, err)
	}
	return len(chunks), nil
}

// IngestFile loads path with the configured loader and ingests it.
func (uc *IngestUseCase) IngestFile(ctx context.Context, path string) (int, error) {
	if uc.loader == nil {
		return 0, fmt.Errorf("ingesting %s: no document loader configured", path)
	}
	doc, err := uc.loader.Load(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("loading %s: %w", path, err)
	}
	return uc.Ingest(ctx, doc)
}

// IngestDir ingests every supported file directly under dir.
// A failing file is logged and skipped.
func (uc *IngestUseCase) IngestDir(ctx context.Context, dir string) (docs, chunks int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("reading corpus dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !uc.supported(e.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return docs, chunks, err
		}
		path := filepath.Join(dir, e.Name())
		n, err := uc.IngestFile(ctx, path)
		if err != nil {
			log.Printf("[ERROR] %v", err)
			continue
		}
		docs++
		chunks += n
		log.Printf("[OK] Indexed %s (%d chunks)", e.Name(), n)
	}
	return docs, chunks, nil
}

// Rebuild empties the store and re-ingests dir, dropping documents that no
// longer exist on disk.
func (uc *IngestUseCase) Rebuild(ctx context.Context, dir string) (docs, chunks int, err error) {
	if _, err := os.Stat(dir); err != nil {
		return 0, 0, fmt.Errorf("reading corpus dir: %w", err)
	}
	if err := uc.vectorStore.Clear(ctx); err != nil {
		return 0, 0, fmt.Errorf("clearing index: %w", err)
	}
	log.Printf("[INFO] Cleared index, rebuilding from %s", dir)
	return uc.IngestDir(ctx, dir)
}

// Delete removes a document from the store.
func (uc *IngestUseCase) Delete(ctx context.Context, documentID string) error {
	return uc.vectorStore.Delete(ctx, documentID)
}

// Sync keeps the index in step with file events until ctx is done or the
// event channel closes.
func (uc *IngestUseCase) Sync(ctx context.Context, events <-chan ports.FileEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			uc.handleEvent(ctx, ev)
		}
	}
}

func (uc *IngestUseCase) handleEvent(ctx context.Context, ev ports.FileEvent) {
	name := filepath.Base(ev.Path)
	switch ev.Operation {
	case ports.FileDeleted:
		if err := uc.Delete(ctx, entities.DocumentIDFor(ev.Path)); err != nil {
			log.Printf("[ERROR] Removing %s: %v", name, err)
			return
		}
		log.Printf("[INFO] Removed %s from index", name)
	case ports.FileCreated, ports.FileModified:
		n, err := uc.IngestFile(ctx, ev.Path)
		if err != nil {
			log.Printf("[ERROR] %v", err)
			return
		}
		log.Printf("[OK] Re-indexed %s (%d chunks)", name, n)
	}
}

func (uc *IngestUseCase) supported(name string) bool {
	if uc.loader == nil {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range uc.loader.SupportedExtensions() {
		if ext == e {
			return true
		}
	}
	return false
}

// chunkDocument splits document content into overlapping chunks.
func (uc *IngestUseCase) chunkDocument(doc *entities.Document) []entities.Chunk {
	content := []rune(strings.TrimSpace(doc.Content))
	if len(content) == 0 {
		return nil
	}

	source := doc.Name
	if source == "" {
		source = entities.DefaultSource
	}

	var chunks []entities.Chunk
	start := 0
	index := 0

	for start < len(content) {
		end := start + uc.chunkSize
		if end > len(content) {
			end = len(content)
		}

		// Try to break at word boundary
		if end < len(content) {
			if lastSpace := lastSpaceIndex(content[start:end]); lastSpace > uc.chunkOverlap {
				end = start + lastSpace
			}
		}

		chunkContent := strings.TrimSpace(string(content[start:end]))
		if len(chunkContent) > 0 {
			chunks = append(chunks, entities.Chunk{
				ID:         generateChunkID(doc.ID, index),
				DocumentID: doc.ID,
				Content:    chunkContent,
				Index:      index,
				Metadata: map[string]string{
					"source":      source,
					"document_id": doc.ID,
					"chunk_index": strconv.Itoa(index),
				},
			})
			index++
		}

		if end >= len(content) {
			break
		}
		next := end - uc.chunkOverlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

func lastSpaceIndex(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == ' ' || rs[i] == '\n' {
			return i
		}
	}
	return -1
}

// generateChunkID creates a deterministic ID for a chunk.
func generateChunkID(docID string, index int) string {
	hash := sha256.Sum256([]byte(docID + "#" + strconv.Itoa(index)))
	return hex.EncodeToString(hash[:8])
}
