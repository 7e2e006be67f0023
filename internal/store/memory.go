package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cheltuieli/internal/core"
)

// MemoryStore keeps the state as a JSON snapshot in memory. It is the
// default backend and the test double for the SQLite store.
type MemoryStore struct {
	mu  sync.Mutex
	doc []byte
}

// NewMemoryStore returns an empty store; the first Load seeds it.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load decodes the stored snapshot, or returns the seeded default state
// when nothing has been saved yet or the snapshot does not decode.
func (m *MemoryStore) Load(_ context.Context) (*core.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.doc) == 0 {
		return core.NewState(), nil
	}
	var s core.State
	if err := json.Unmarshal(m.doc, &s); err != nil {
		m.doc = nil
		return core.NewState(), nil
	}
	s.Normalize()
	return &s, nil
}

// Save replaces the stored snapshot.
func (m *MemoryStore) Save(_ context.Context, s *core.State) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	m.mu.Lock()
	m.doc = doc
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
