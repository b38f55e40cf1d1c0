package identity_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/eneby-bridge/eneby-go/internal/identity"
)

func TestGetVersion_Fallback(t *testing.T) {
	dir := t.TempDir()
	got := identity.GetVersionFromDir(dir)
	if got != identity.DefaultVersion {
		t.Errorf("GetVersionFromDir(%q) = %q; want %q", dir, got, identity.DefaultVersion)
	}
}

func TestGetVersion_FromFile(t *testing.T) {
	dir := t.TempDir()
	want := "2024.1.0"
	data, _ := json.Marshal(map[string]interface{}{"version": want})
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	if got := identity.GetVersionFromDir(dir); got != want {
		t.Errorf("GetVersionFromDir(%q) = %q; want %q", dir, got, want)
	}
}

func TestGetVersion_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := identity.GetVersionFromDir(dir); got != identity.DefaultVersion {
		t.Errorf("GetVersionFromDir with invalid JSON = %q; want %q", got, identity.DefaultVersion)
	}
}

var idPattern = regexp.MustCompile(`^ENEBY-[0-9A-F]{1,6}$`)

func TestIdentifierFrom_Format(t *testing.T) {
	id := identity.IdentifierFrom("0123456789abcdef")
	if !idPattern.MatchString(id) {
		t.Errorf("IdentifierFrom() = %q, want ENEBY-<hex>", id)
	}
}

func TestIdentifierFrom_Stable(t *testing.T) {
	a := identity.IdentifierFrom("machine-a")
	if b := identity.IdentifierFrom("machine-a"); a != b {
		t.Errorf("IdentifierFrom not stable: %q vs %q", a, b)
	}
	if c := identity.IdentifierFrom("machine-b"); a == c {
		t.Errorf("different seeds gave the same id %q", a)
	}
}

func TestIdentifier_NonEmpty(t *testing.T) {
	if id := identity.Identifier(); !idPattern.MatchString(id) {
		t.Errorf("Identifier() = %q, want ENEBY-<hex>", id)
	}
}

func TestGetHostname(t *testing.T) {
	if h := identity.GetHostname(); h == "" {
		t.Error("GetHostname() returned empty string")
	}
}
