package config

// Store is the interface for persisting the broker configuration.
type Store interface {
	// Load loads the configuration. Returns Default if nothing is stored
	// or the stored data cannot be parsed.
	Load() (*Config, error)

	// Save persists the configuration. Implementations may debounce rapid saves.
	Save(cfg *Config) error

	// Clear removes any stored configuration (provisioning reset).
	Clear() error

	// Path returns the file path used by this store.
	Path() string

	// Flush forces an immediate write of any pending configuration.
	Flush() error
}
