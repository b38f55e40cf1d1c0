package config

import "sync"

// MemStore is an in-memory Store for tests and mock mode that never writes to disk.
type MemStore struct {
	mu  sync.Mutex
	cfg *Config
}

// NewMemStore returns a new in-memory store with nothing saved (Load returns Default).
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load returns a copy of the stored config, or Default if none has been saved yet.
func (m *MemStore) Load() (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg == nil {
		def := Default()
		return &def, nil
	}
	cp := *m.cfg
	return &cp, nil
}

// Save stores a copy of the given config in memory.
func (m *MemStore) Save(cfg *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cfg
	m.cfg = &cp
	return nil
}

// Clear forgets the stored config.
func (m *MemStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = nil
	return nil
}

// Path returns ":memory:" to indicate this is an in-memory store.
func (m *MemStore) Path() string { return ":memory:" }

// Flush is a no-op for in-memory stores.
func (m *MemStore) Flush() error { return nil }

var _ Store = (*MemStore)(nil)
