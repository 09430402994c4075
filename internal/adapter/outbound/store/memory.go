package store

import (
	"sync"

	"github.com/engine-core/engine/internal/domain/orchestrator"
)

// MemoryStore is an in-process orchestrator.Store backed by a mutex-
// guarded value, for tests that do not need to exercise the filesystem.
type MemoryStore struct {
	mu  sync.Mutex
	doc orchestrator.Document
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (orchestrator.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc, nil
}

func (m *MemoryStore) Save(doc orchestrator.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc
	return nil
}
