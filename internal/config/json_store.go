package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	configFileName = "config.json"
	debounceDelay  = 500 * time.Millisecond
)

// JSONStore is an atomic JSON file store with debounced writes.
type JSONStore struct {
	mu      sync.Mutex
	path    string
	timer   *time.Timer
	pending *Config
}

// NewJSONStore creates a new JSON store in the given config directory.
func NewJSONStore(configDir string) *JSONStore {
	return &JSONStore{
		path: filepath.Join(configDir, configFileName),
	}
}

// Path returns the file path used by this store.
func (s *JSONStore) Path() string { return s.path }

// Load returns the config queued by Save if its write is still pending,
// otherwise it reads the file. Returns Default on ENOENT or parse errors.
func (s *JSONStore) Load() (*Config, error) {
	s.mu.Lock()
	if s.pending != nil {
		cp := *s.pending
		s.mu.Unlock()
		return &cp, nil
	}
	s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			def := Default()
			return &def, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		slog.Warn("config: corrupt JSON config, using defaults", "path", s.path, "err", err)
		def := Default()
		return &def, nil
	}

	migrateConfig(&cfg)
	return &cfg, nil
}

// Save schedules a debounced write of the config to disk.
// The actual write happens after 500ms of no further Save calls.
func (s *JSONStore) Save(cfg *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *cfg
	s.pending = &cp

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(debounceDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.pending == nil {
			return
		}
		if err := s.writeAtomic(s.pending); err != nil {
			slog.Error("config: failed to write config", "path", s.path, "err", err)
			return
		}
		s.pending = nil
	})
	return nil
}

// Flush forces an immediate write of any pending config.
func (s *JSONStore) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	if pending == nil {
		return nil
	}
	return s.writeAtomic(pending)
}

// Clear drops any pending write and removes the file.
func (s *JSONStore) Clear() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *JSONStore) writeAtomic(cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	// Write to temp file, then rename (atomic on Linux)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

var _ Store = (*JSONStore)(nil)
