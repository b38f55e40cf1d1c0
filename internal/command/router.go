// Package command turns inbound (topic, payload) pairs into power, volume
// and system actions.
package command

import (
	"log/slog"
	"strconv"
	"strings"
)

// Topic suffixes the router understands.
const (
	SuffixPower  = "power"
	SuffixVolume = "volume"
	SuffixSystem = "system"
)

// Power is the subset of the power controller the router drives.
type Power interface {
	On()
	Off()
}

// Volume is the subset of the volume controller the router drives.
type Volume interface {
	VolUp()
	VolDown()
	SetVolume(level int)
}

// Resetter performs a provisioning reset.
type Resetter interface {
	Reset()
}

// Router dispatches commands. It holds no state of its own and must be
// called from the control loop only.
type Router struct {
	power  Power
	volume Volume
	reset  Resetter
}

// NewRouter creates a Router. reset may be nil, in which case reset
// commands are ignored.
func NewRouter(power Power, volume Volume, reset Resetter) *Router {
	return &Router{power: power, volume: volume, reset: reset}
}

// Dispatch applies one command and reports whether it was recognised.
// Unrecognised commands are dropped without any reply.
func (r *Router) Dispatch(topic string, payload []byte) bool {
	msg := strings.TrimSpace(string(payload))
	ok := r.dispatch(topic, msg)
	if !ok {
		slog.Debug("command: ignored", "topic", topic, "payload", msg)
	}
	return ok
}

func (r *Router) dispatch(topic, msg string) bool {
	switch {
	case strings.HasSuffix(topic, SuffixPower):
		switch msg {
		case "on":
			r.power.On()
			return true
		case "off":
			r.power.Off()
			return true
		}
	case strings.HasSuffix(topic, SuffixVolume):
		switch {
		case strings.HasPrefix(msg, "up"):
			r.volume.VolUp()
			return true
		case strings.HasPrefix(msg, "down"):
			r.volume.VolDown()
			return true
		}
		level, err := strconv.Atoi(msg)
		if err != nil || level < 0 {
			return false
		}
		if level == 0 {
			r.power.Off()
		} else {
			r.volume.SetVolume(level)
		}
		return true
	case strings.HasSuffix(topic, SuffixSystem):
		if msg == "reset" && r.reset != nil {
			r.reset.Reset()
			return true
		}
	}
	return false
}
