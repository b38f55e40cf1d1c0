package mqtt

import "strings"

const (
	// DefaultPrefix is the firmware prefix used in every topic.
	DefaultPrefix = "esp8266-eneby"
	// DiscoveryPrefix is the Home Assistant discovery root.
	DiscoveryPrefix = "homeassistant"

	AvailabilityOnline  = "online"
	AvailabilityOffline = "offline"
)

// Topics are the per-device topic names.
type Topics struct {
	Availability  string
	State         string
	Command       string // base for command/<name>
	CommandFilter string // subscription filter for every command
}

// NewTopics builds the topic set for prefix and device id.
func NewTopics(prefix, id string) Topics {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	base := strings.Join([]string{prefix, id}, "/")
	return Topics{
		Availability:  base + "/status",
		State:         base + "/state",
		Command:       base + "/command",
		CommandFilter: base + "/command/#",
	}
}

// CommandTopic returns the inbound topic for one command name.
func (t Topics) CommandTopic(name string) string {
	return t.Command + "/" + name
}

// discoveryTopic returns homeassistant/<component>/<prefix>/<id>_<entity>/config.
func discoveryTopic(component, prefix, id, entity string) string {
	return DiscoveryPrefix + "/" + component + "/" + prefix + "/" + id + "_" + entity + "/config"
}
