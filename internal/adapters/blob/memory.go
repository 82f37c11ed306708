package blob

import (
	"context"
	"sync"

	perr "gridday/internal/platform/errors"
)

// Memory is an in-process Store for tests and local runs
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

// Fetch returns a copy of the object at key
func (m *Memory) Fetch(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, perr.NotFoundf("blob: %s", key)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put stores a copy of data at key
func (m *Memory) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[key] = cp
	return nil
}

// Keys returns all stored keys, handy for assertions
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}
