// Package loader reads contract files from disk into documents.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/0xcro3dile/clausesmith/internal/domain/entities"
	"github.com/0xcro3dile/clausesmith/internal/domain/ports"
)

// TextLoader loads plain text contracts (.txt, .md).
type TextLoader struct{}

// NewTextLoader creates a new text document loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads a text document from the given path.
func (l *TextLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return newDocument(path, string(content)), nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *TextLoader) SupportedExtensions() []string {
	return []string{".txt", ".md", ".markdown"}
}

// PDFLoader loads PDF contracts through a DocumentParser.
type PDFLoader struct {
	parser ports.DocumentParser
}

// NewPDFLoader creates a PDF loader backed by parser.
func NewPDFLoader(parser ports.DocumentParser) *PDFLoader {
	return &PDFLoader{parser: parser}
}

// Load reads and parses a PDF. Parse failures are returned, not indexed.
func (l *PDFLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text, err := l.parser.Parse(ctx, data, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	return newDocument(path, cleanPDFContent(text)), nil
}

// SupportedExtensions returns file extensions.
func (l *PDFLoader) SupportedExtensions() []string {
	return []string{".pdf"}
}

// MultiLoader dispatches by file extension. It implements ports.DocumentLoader.
type MultiLoader struct {
	loaders map[string]ports.DocumentLoader
}

// NewMultiLoader creates a loader for text files and, when parser is non-nil, PDFs.
func NewMultiLoader(parser ports.DocumentParser) *MultiLoader {
	m := &MultiLoader{loaders: make(map[string]ports.DocumentLoader)}
	m.register(NewTextLoader())
	if parser != nil {
		m.register(NewPDFLoader(parser))
	}
	return m
}

func (m *MultiLoader) register(l ports.DocumentLoader) {
	for _, ext := range l.SupportedExtensions() {
		m.loaders[ext] = l
	}
}

// Load dispatches to the appropriate loader based on extension.
func (m *MultiLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := m.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
	return loader.Load(ctx, path)
}

// SupportedExtensions returns all supported extensions, sorted.
func (m *MultiLoader) SupportedExtensions() []string {
	exts := make([]string, 0, len(m.loaders))
	for ext := range m.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func newDocument(path, content string) *entities.Document {
	modTime := time.Now()
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	}
	return &entities.Document{
		ID:        entities.DocumentIDFor(path),
		Name:      filepath.Base(path),
		Path:      path,
		Content:   content,
		CreatedAt: modTime,
		UpdatedAt: time.Now(),
	}
}

// cleanPDFContent strips control characters left over by text extraction.
func cleanPDFContent(content string) string {
	var cleaned strings.Builder
	for _, r := range content {
		if r == '\n' || r == '\t' || (r >= 32 && r != 127 && r != 0xFFFD) {
			cleaned.WriteRune(r)
		}
	}
	return strings.TrimSpace(cleaned.String())
}
