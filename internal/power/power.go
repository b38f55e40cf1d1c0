// Package power drives the speaker's power button relay and reads the
// power sense line.
package power

import (
	"log/slog"
	"time"

	"github.com/eneby-bridge/eneby-go/internal/hardware"
)

// SettleDelay is how long the relay line is held low to register a press.
const SettleDelay = 200 * time.Millisecond

// Controller toggles the speaker's power through a momentary relay.
// The speaker latches power itself, so a press always toggles; On and Off
// consult the sense line first to decide whether a press is needed.
type Controller struct {
	relay  hardware.Pin
	sense  hardware.Pin
	settle time.Duration
	sleep  func(time.Duration)
}

// Option configures a Controller.
type Option func(*Controller)

// WithSleep replaces time.Sleep, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Controller) { c.sleep = sleep }
}

// WithSettleDelay overrides SettleDelay.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) { c.settle = d }
}

// New creates a Controller. The sense pin is configured as an input with
// pull-down and the relay pin is released.
func New(relay, sense hardware.Pin, opts ...Option) *Controller {
	c := &Controller{
		relay:  relay,
		sense:  sense,
		settle: SettleDelay,
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sense.SetMode(hardware.InputPullDown)
	c.relay.SetMode(hardware.Input)
	return c
}

// IsPowered reads the sense pin. It is never cached.
func (c *Controller) IsPowered() bool {
	return bool(c.sense.Read())
}

// On presses the power button unless the speaker is already on.
func (c *Controller) On() {
	if c.IsPowered() {
		return
	}
	slog.Info("power: switching on")
	c.Toggle()
}

// Off presses the power button unless the speaker is already off.
func (c *Controller) Off() {
	if !c.IsPowered() {
		return
	}
	slog.Info("power: switching off")
	c.Toggle()
}

// Toggle pulls the relay line low for the settle delay, then releases it.
func (c *Controller) Toggle() {
	c.relay.SetMode(hardware.Output)
	c.relay.Write(hardware.Low)
	c.sleep(c.settle)
	c.relay.SetMode(hardware.Input)
}
