package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eneby-bridge/eneby-go/internal/config"
)

// --- JSONStore tests ---

func TestJSONStore_LoadMissingFile_ReturnsDefault(t *testing.T) {
	store := config.NewJSONStore(t.TempDir())

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if *cfg != config.Default() {
		t.Errorf("Load() = %+v, want %+v", *cfg, config.Default())
	}
}

func TestJSONStore_SaveLoadRoundTrip(t *testing.T) {
	store := config.NewJSONStore(t.TempDir())

	want := config.Config{MQTTServer: "broker.lan", MQTTPort: 1884, Username: "eneby", Password: "secret"}
	if err := store.Save(&want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *got != want {
		t.Errorf("Load() = %+v, want %+v", *got, want)
	}
}

func TestJSONStore_CorruptJSON_ReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	store := config.NewJSONStore(dir)

	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{invalid json!!!"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if *cfg != config.Default() {
		t.Errorf("corrupt JSON: Load() = %+v, want default", *cfg)
	}
}

func TestJSONStore_ReadsOriginalFirmwareFormat(t *testing.T) {
	dir := t.TempDir()
	store := config.NewJSONStore(dir)

	raw := `{"mqtt_server":" broker.lan ","username":"u","password":"p"}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(raw), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTTServer != "broker.lan" {
		t.Errorf("MQTTServer = %q, want %q", cfg.MQTTServer, "broker.lan")
	}
	if cfg.MQTTPort != config.DefaultPort {
		t.Errorf("MQTTPort = %d, want %d", cfg.MQTTPort, config.DefaultPort)
	}
	if cfg.Username != "u" || cfg.Password != "p" {
		t.Errorf("credentials = %q/%q, want u/p", cfg.Username, cfg.Password)
	}
}

func TestJSONStore_MigratesEmptyServerAndBadPort(t *testing.T) {
	dir := t.TempDir()
	store := config.NewJSONStore(dir)

	raw := `{"mqtt_server":"","mqtt_port":70000}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(raw), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTTServer != config.DefaultServer {
		t.Errorf("MQTTServer = %q, want %q", cfg.MQTTServer, config.DefaultServer)
	}
	if cfg.MQTTPort != config.DefaultPort {
		t.Errorf("MQTTPort = %d, want %d", cfg.MQTTPort, config.DefaultPort)
	}
}

func TestJSONStore_FlushWithoutSave_NoError(t *testing.T) {
	store := config.NewJSONStore(t.TempDir())
	if err := store.Flush(); err != nil {
		t.Errorf("Flush() with no pending save: error = %v, want nil", err)
	}
}

func TestJSONStore_DebouncedWrite(t *testing.T) {
	store := config.NewJSONStore(t.TempDir())

	cfg := config.Default()
	cfg.Username = "first"
	if err := store.Save(&cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cfg.Username = "second"
	if err := store.Save(&cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(store.Path()); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Username != "second" {
		t.Errorf("Username = %q, want %q (last save wins)", got.Username, "second")
	}
}

func TestJSONStore_LoadSeesPendingSave(t *testing.T) {
	store := config.NewJSONStore(t.TempDir())

	want := config.Config{MQTTServer: "new.lan", MQTTPort: 1883, Username: "u", Password: "p"}
	if err := store.Save(&want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(store.Path()); err == nil {
		t.Fatal("file written before the debounce delay")
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != want {
		t.Errorf("Load() before write = %+v, want %+v", *got, want)
	}

	got.Username = "mutated"
	again, _ := store.Load()
	if again.Username != "u" {
		t.Errorf("Load() shares the pending config with callers")
	}
}

func TestJSONStore_Clear(t *testing.T) {
	store := config.NewJSONStore(t.TempDir())

	cfg := config.Config{MQTTServer: "broker.lan", MQTTPort: 1883}
	if err := store.Save(&cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Errorf("config file still present after Clear, stat err = %v", err)
	}
	// Clearing twice is fine.
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

// --- MemStore tests ---

func TestMemStore_SaveLoadRoundTrip(t *testing.T) {
	store := config.NewMemStore()

	want := config.Config{MQTTServer: "broker.lan", MQTTPort: 1883, Username: "u"}
	if err := store.Save(&want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *got != want {
		t.Errorf("Load() = %+v, want %+v", *got, want)
	}
}

func TestMemStore_MutationIsolation(t *testing.T) {
	store := config.NewMemStore()

	cfg := config.Default()
	if err := store.Save(&cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cfg.Username = "mutated"

	got, _ := store.Load()
	if got.Username == "mutated" {
		t.Error("isolation broken: caller mutation visible through store")
	}
}

func TestMemStore_Clear(t *testing.T) {
	store := config.NewMemStore()
	cfg := config.Config{MQTTServer: "broker.lan"}
	_ = store.Save(&cfg)
	_ = store.Clear()

	got, _ := store.Load()
	if *got != config.Default() {
		t.Errorf("Load() after Clear = %+v, want default", *got)
	}
	if store.Path() != ":memory:" {
		t.Errorf("Path() = %q, want \":memory:\"", store.Path())
	}
}

// --- Config helpers ---

func TestConfig_BrokerURL(t *testing.T) {
	tests := []struct {
		cfg  config.Config
		want string
	}{
		{config.Config{MQTTServer: "broker.lan", MQTTPort: 1883}, "tcp://broker.lan:1883"},
		{config.Config{MQTTServer: "10.0.0.2"}, "tcp://10.0.0.2:1883"},
		{config.Config{MQTTServer: "fd00::1", MQTTPort: 8883}, "tcp://[fd00::1]:8883"},
	}
	for _, tt := range tests {
		if got := tt.cfg.BrokerURL(); got != tt.want {
			t.Errorf("BrokerURL(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}

func TestConfig_Redacted(t *testing.T) {
	cfg := config.Config{MQTTServer: "b", Password: "secret"}
	if got := cfg.Redacted().Password; got == "secret" {
		t.Error("Redacted() leaked the password")
	}
	if cfg.Password != "secret" {
		t.Error("Redacted() modified the receiver")
	}
	if got := (config.Config{}).Redacted().Password; got != "" {
		t.Errorf("Redacted() of empty password = %q, want empty", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"ok", config.Config{MQTTServer: "broker.lan", MQTTPort: 1883}, false},
		{"default port", config.Config{MQTTServer: "broker.lan"}, false},
		{"blank server", config.Config{MQTTServer: "  "}, true},
		{"port too large", config.Config{MQTTServer: "b", MQTTPort: 70000}, true},
		{"negative port", config.Config{MQTTServer: "b", MQTTPort: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Normalized(t *testing.T) {
	got := config.Config{MQTTServer: " broker.lan ", Username: " u "}.Normalized()
	want := config.Config{MQTTServer: "broker.lan", MQTTPort: 1883, Username: "u"}
	if got != want {
		t.Errorf("Normalized() = %+v, want %+v", got, want)
	}
}
