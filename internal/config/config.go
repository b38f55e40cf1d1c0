// Package config loads and saves the broker credentials for the speaker
// bridge. Provisioning writes them; everything else only reads them.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	// DefaultServer is the placeholder broker used until provisioning runs.
	DefaultServer = "examplemqtt.tld"
	// DefaultPort is the plain MQTT port.
	DefaultPort = 1883
	// RedactedPassword replaces a non-empty password in Redacted.
	RedactedPassword = "********"
)

// Config holds the MQTT broker credentials. JSON keys match the config.json
// written by the ESP8266 retrofit firmware.
type Config struct {
	MQTTServer string `json:"mqtt_server"`
	MQTTPort   int    `json:"mqtt_port,omitempty"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

// Default returns the in-memory fallback configuration.
func Default() Config {
	return Config{
		MQTTServer: DefaultServer,
		MQTTPort:   DefaultPort,
	}
}

// BrokerURL returns the paho broker URL, e.g. "tcp://broker.lan:1883".
func (c Config) BrokerURL() string {
	port := c.MQTTPort
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("tcp://%s", net.JoinHostPort(c.MQTTServer, strconv.Itoa(port)))
}

// Redacted returns a copy safe to show over the local API.
func (c Config) Redacted() Config {
	if c.Password != "" {
		c.Password = RedactedPassword
	}
	return c
}

// Validate checks a configuration submitted for provisioning. A zero port
// is allowed and means DefaultPort.
func (c Config) Validate() error {
	if strings.TrimSpace(c.MQTTServer) == "" {
		return errors.New("mqtt_server is required")
	}
	if c.MQTTPort < 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("mqtt_port %d out of range", c.MQTTPort)
	}
	return nil
}

// Normalized returns c with whitespace trimmed and defaults filled in, as it
// would read back from the store.
func (c Config) Normalized() Config {
	migrateConfig(&c)
	return c
}
