package config

import (
	"log/slog"
	"strings"
)

// migrateConfig fills in values missing from older or hand-edited files.
func migrateConfig(cfg *Config) {
	cfg.MQTTServer = strings.TrimSpace(cfg.MQTTServer)
	cfg.Username = strings.TrimSpace(cfg.Username)

	if cfg.MQTTServer == "" {
		slog.Warn("config: empty mqtt_server, using default", "server", DefaultServer)
		cfg.MQTTServer = DefaultServer
	}
	if cfg.MQTTPort <= 0 || cfg.MQTTPort > 65535 {
		if cfg.MQTTPort != 0 {
			slog.Warn("config: invalid mqtt_port, using default", "port", cfg.MQTTPort)
		}
		cfg.MQTTPort = DefaultPort
	}
}
