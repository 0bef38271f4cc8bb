package vectorstore

import (
	"context"
	"sync"
)

// Memory is a brute-force in-process store, used for tests and local
// experiments. Contents are lost on exit.
type Memory struct {
	mu      sync.RWMutex
	dim     int
	order   []string
	entries map[string]candidate
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]candidate)}
}

func (m *Memory) Upsert(_ context.Context, id string, vector []float32, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dim == 0 {
		m.dim = len(vector)
	} else if len(vector) != m.dim {
		return ErrDimensionMismatch
	}

	if _, exists := m.entries[id]; !exists {
		m.order = append(m.order, id)
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	m.entries[id] = candidate{id: id, text: text, vector: vec}
	return nil
}

func (m *Memory) Query(_ context.Context, vector []float32, k int) ([]Match, error) {
	m.mu.RLock()
	cands := make([]candidate, 0, len(m.order))
	for _, id := range m.order {
		cands = append(cands, m.entries[id])
	}
	m.mu.RUnlock()

	return rankByDistance(vector, cands, k), nil
}

func (m *Memory) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *Memory) Close() error { return nil }
