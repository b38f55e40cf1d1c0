// Package models holds the types exchanged over the local HTTP API.
package models

// DeviceState is the speaker state served by GET /api/state and streamed
// to SSE subscribers.
type DeviceState struct {
	ID        string `json:"id"`
	Power     string `json:"power"`
	Volume    int    `json:"volume"`
	Connected bool   `json:"connected"`
}

// PowerString renders a power flag the way the MQTT state document does.
func PowerString(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// CommandResult is the body of an accepted POST /api/command/{name}.
type CommandResult struct {
	Command string `json:"command"`
	Payload string `json:"payload"`
}
