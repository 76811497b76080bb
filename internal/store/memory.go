package store

import (
	"context"
	"sync"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu           sync.Mutex
	catalog      schemas.CatalogState
	history      []schemas.SearchRecord
	historyLimit int
}

var _ Repository = (*MemoryStore)(nil)

func NewMemoryStore(historyLimit int) *MemoryStore {
	return &MemoryStore{historyLimit: historyLimit}
}

func (m *MemoryStore) LoadCatalog(ctx context.Context) (schemas.CatalogState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.catalog), nil
}

func (m *MemoryStore) SaveCatalog(ctx context.Context, state schemas.CatalogState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = cloneState(state)
	return nil
}

func (m *MemoryStore) RecordSearch(ctx context.Context, rec schemas.SearchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = capHistory(append(m.history, rec), m.historyLimit)
	return nil
}

func (m *MemoryStore) ListSearches(ctx context.Context, limit int) ([]schemas.SearchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return newest(m.history, limit), nil
}

func (m *MemoryStore) Close() error { return nil }
