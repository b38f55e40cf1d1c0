package mqtt

// DeviceInfo is the Home Assistant device registry block shared by every
// discovery payload so HA groups the entities under one device.
type DeviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	SWVersion    string   `json:"sw_version"`
}

// NewDeviceInfo describes the speaker with the given id and firmware version.
func NewDeviceInfo(id, version string) DeviceInfo {
	return DeviceInfo{
		Identifiers:  []string{id},
		Name:         id,
		Manufacturer: "Ikea",
		Model:        "ENEBY",
		SWVersion:    version,
	}
}

// EntityConfig is the discovery payload for the sensor, switch and number
// components. Fields not used by a component are omitted.
type EntityConfig struct {
	Name                   string     `json:"name"`
	UniqueID               string     `json:"unique_id"`
	Device                 DeviceInfo `json:"device"`
	AvailabilityTopic      string     `json:"availability_topic"`
	StateTopic             string     `json:"state_topic"`
	CommandTopic           string     `json:"command_topic,omitempty"`
	ValueTemplate          string     `json:"value_template,omitempty"`
	JSONAttributesTopic    string     `json:"json_attributes_topic,omitempty"`
	JSONAttributesTemplate string     `json:"json_attributes_template,omitempty"`
	UnitOfMeasurement      string     `json:"unit_of_measurement,omitempty"`
	DeviceClass            string     `json:"device_class,omitempty"`
	EntityCategory         string     `json:"entity_category,omitempty"`
	Icon                   string     `json:"icon,omitempty"`
	PayloadOn              string     `json:"payload_on,omitempty"`
	PayloadOff             string     `json:"payload_off,omitempty"`
	StateOn                string     `json:"state_on,omitempty"`
	StateOff               string     `json:"state_off,omitempty"`
	Min                    *int       `json:"min,omitempty"`
	Max                    *int       `json:"max,omitempty"`
	Step                   *int       `json:"step,omitempty"`
}

type entityDef struct {
	component string
	entity    string
	config    EntityConfig
}

// entityDefinitions lists the WiFi signal sensor and the power and volume
// controls published on every connect.
func (m *Manager) entityDefinitions() []entityDef {
	id := m.opts.ID
	minLevel, maxLevel, step := 0, m.opts.MaxLevel, m.opts.Step
	return []entityDef{
		{
			component: "sensor",
			entity:    "wifi",
			config: EntityConfig{
				Name:                   id + " WiFi",
				UniqueID:               id + "_wifi",
				Device:                 m.device,
				AvailabilityTopic:      m.topics.Availability,
				StateTopic:             m.topics.State,
				ValueTemplate:          "{{value_json.wifi.rssi}}",
				JSONAttributesTopic:    m.topics.State,
				JSONAttributesTemplate: `{"ssid": "{{value_json.wifi.ssid}}", "ip": "{{value_json.wifi.ip}}"}`,
				UnitOfMeasurement:      "dBm",
				DeviceClass:            "signal_strength",
				EntityCategory:         "diagnostic",
				Icon:                   "mdi:wifi",
			},
		},
		{
			component: "switch",
			entity:    "power",
			config: EntityConfig{
				Name:              id + " Power",
				UniqueID:          id + "_power",
				Device:            m.device,
				AvailabilityTopic: m.topics.Availability,
				StateTopic:        m.topics.State,
				CommandTopic:      m.topics.CommandTopic("power"),
				ValueTemplate:     "{{value_json.power}}",
				PayloadOn:         "on",
				PayloadOff:        "off",
				StateOn:           "on",
				StateOff:          "off",
				Icon:              "mdi:speaker",
			},
		},
		{
			component: "number",
			entity:    "volume",
			config: EntityConfig{
				Name:              id + " Volume",
				UniqueID:          id + "_volume",
				Device:            m.device,
				AvailabilityTopic: m.topics.Availability,
				StateTopic:        m.topics.State,
				CommandTopic:      m.topics.CommandTopic("volume"),
				ValueTemplate:     "{{value_json.volume}}",
				Min:               &minLevel,
				Max:               &maxLevel,
				Step:              &step,
				Icon:              "mdi:volume-high",
			},
		},
	}
}
