// Package identity provides the device identifier, hostname and version.
package identity

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
)

// DefaultVersion is the fallback version string when metadata.json is not found.
const DefaultVersion = "2021.08.0-go"

// Prefix is prepended to every device identifier.
const Prefix = "ENEBY"

// machineIDPaths are tried in order for a stable per-board identity.
var machineIDPaths = []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}

// Identifier returns the device identifier, e.g. "ENEBY-3FA2C1". It is
// derived from the machine id so it survives reboots and reinstalls of the
// daemon; the hostname is used when no machine id is readable.
func Identifier() string {
	for _, p := range machineIDPaths {
		if data, err := os.ReadFile(p); err == nil {
			if id := strings.TrimSpace(string(data)); id != "" {
				return IdentifierFrom(id)
			}
		}
	}
	return IdentifierFrom(GetHostname())
}

// IdentifierFrom derives an identifier from any seed string. The 24-bit
// suffix mirrors the chip id format of the stock ESP8266 retrofit.
func IdentifierFrom(seed string) string {
	sum := crc32.ChecksumIEEE([]byte(seed)) & 0xFFFFFF
	return fmt.Sprintf("%s-%X", Prefix, sum)
}

// GetHostname returns the system hostname.
func GetHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "eneby"
	}
	return h
}

// GetVersionFromDir reads the version from metadata.json in dir.
// Falls back to DefaultVersion if the file is missing or unreadable.
func GetVersionFromDir(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return DefaultVersion
	}

	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return DefaultVersion
	}

	if v, ok := meta["version"].(string); ok && v != "" {
		return v
	}
	return DefaultVersion
}
