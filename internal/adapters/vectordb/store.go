package vectordb

import (
	"fmt"

	"github.com/0xcro3dile/clausesmith/internal/domain/ports"
)

// Index backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Store is a VectorStore that owns resources to release.
type Store interface {
	ports.VectorStore
	Close() error
}

// Open returns the store for backend. dataPath only applies to sqlite.
func Open(backend, dataPath string) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteStore(dataPath)
	case BackendMemory:
		return NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", backend)
	}
}

// Persistent reports whether backend keeps its index across runs.
func Persistent(backend string) bool {
	return backend != BackendMemory
}
