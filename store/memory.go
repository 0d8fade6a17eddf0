package store

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory keeps collections in process. Used for tests and the memory backend.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]json.RawMessage)}
}

func (m *Memory) Read(_ context.Context, name string) ([]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.collections[name]), nil
}

func (m *Memory) Write(_ context.Context, name string, records []json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[name] = clone(records)
	return nil
}
