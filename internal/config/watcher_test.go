package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/eneby-bridge/eneby-go/internal/config"
)

func TestWatcher_ReportsExternalRewrite(t *testing.T) {
	dir := t.TempDir()
	store := config.NewJSONStore(dir)
	w := config.NewWatcher(store)
	t.Cleanup(w.Close)

	raw := `{"mqtt_server":"provisioned.lan","username":"u","password":"p"}`
	if err := os.WriteFile(store.Path(), []byte(raw), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// The create event may arrive before the content is written, so wait
	// for the reload that sees the new server.
	timeout := time.After(3 * time.Second)
	for {
		select {
		case cfg := <-w.Changes():
			if cfg.MQTTServer == "provisioned.lan" {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for config change")
		}
	}
}

func TestWatcher_CloseTwice(t *testing.T) {
	w := config.NewWatcher(config.NewJSONStore(t.TempDir()))
	w.Close()
	w.Close()
}
