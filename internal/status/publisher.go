// Package status samples the speaker state and publishes snapshots on two
// cadences: a heartbeat that always publishes and a fast poll that only
// publishes changes.
package status

import (
	"log/slog"
	"time"
)

const (
	// HeartbeatInterval is the unconditional publish period.
	HeartbeatInterval = 30 * time.Second
	// PollInterval is the change detection period.
	PollInterval = time.Second
)

// Snapshot is the state considered for publish-on-change.
type Snapshot struct {
	Powered bool
	Volume  int
}

// PowerSensor reports whether the speaker is on.
type PowerSensor interface {
	IsPowered() bool
}

// VolumeEstimate is the volume controller as seen by the publisher.
type VolumeEstimate interface {
	Volume() int
	Reset()
	Disable()
}

// Sink receives snapshots. A non-nil error means the snapshot was not
// delivered and will be offered again on the next poll.
type Sink interface {
	PublishSnapshot(s Snapshot) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(s Snapshot) error

func (f SinkFunc) PublishSnapshot(s Snapshot) error { return f(s) }

// Publisher holds the last published snapshot and the two timers. It is
// driven by Tick from the control loop and is not safe for concurrent use.
type Publisher struct {
	power  PowerSensor
	volume VolumeEstimate
	sink   Sink

	heartbeatEvery time.Duration
	pollEvery      time.Duration
	lastHeartbeat  time.Time
	lastPoll       time.Time

	powered   bool
	last      Snapshot
	published bool
}

// New creates a Publisher. The previous power sample starts as off, which
// matches the disabled volume estimate at boot.
func New(power PowerSensor, volume VolumeEstimate, sink Sink) *Publisher {
	return &Publisher{
		power:          power,
		volume:         volume,
		sink:           sink,
		heartbeatEvery: HeartbeatInterval,
		pollEvery:      PollInterval,
	}
}

// SetIntervals overrides the heartbeat and poll periods.
func (p *Publisher) SetIntervals(heartbeat, poll time.Duration) {
	p.heartbeatEvery = heartbeat
	p.pollEvery = poll
}

// Tick runs whichever of the heartbeat and the fast poll is due at now.
func (p *Publisher) Tick(now time.Time) {
	if p.lastHeartbeat.IsZero() || now.Sub(p.lastHeartbeat) >= p.heartbeatEvery {
		p.lastHeartbeat = now
		p.Heartbeat()
	}
	if p.lastPoll.IsZero() || now.Sub(p.lastPoll) >= p.pollEvery {
		p.lastPoll = now
		p.Poll()
	}
}

// Heartbeat samples and publishes regardless of change. A power flip seen
// here gets its transition default before the snapshot is taken.
func (p *Publisher) Heartbeat() {
	s := Snapshot{Powered: p.samplePower(), Volume: p.volume.Volume()}
	slog.Debug("status: heartbeat", "powered", s.Powered, "volume", s.Volume)
	p.publish(s)
}

// Poll samples the power line, applies the power transition default to the
// volume estimate if power flipped, and publishes only if the snapshot
// differs from the last published one.
func (p *Publisher) Poll() {
	s := Snapshot{Powered: p.samplePower(), Volume: p.volume.Volume()}
	if p.published && s == p.last {
		return
	}
	p.publish(s)
}

// samplePower reads the power line and resets or disables the volume
// estimate when it differs from the previous sample.
func (p *Publisher) samplePower() bool {
	powered := p.power.IsPowered()
	if powered != p.powered {
		p.powered = powered
		if powered {
			p.volume.Reset()
		} else {
			p.volume.Disable()
		}
		slog.Info("status: power changed", "powered", powered)
	}
	return powered
}

// Last returns the last published snapshot, if any.
func (p *Publisher) Last() (Snapshot, bool) {
	return p.last, p.published
}

func (p *Publisher) publish(s Snapshot) {
	if err := p.sink.PublishSnapshot(s); err != nil {
		slog.Debug("status: publish failed", "err", err)
		return
	}
	p.last = s
	p.published = true
}
