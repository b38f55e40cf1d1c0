// Package volume simulates the speaker's rotary volume encoder by driving
// its two contacts through the quadrature cycle, and keeps a local estimate
// of the volume level.
//
// The speaker has no volume readback. The estimate only changes through the
// step operations, Reset and Disable, so turning the physical knob makes it
// drift until the next power cycle.
package volume

import (
	"log/slog"
	"time"

	"github.com/eneby-bridge/eneby-go/internal/hardware"
)

// patterns is the encoder cycle; bit 0 drives the up pin, bit 1 the down pin.
var patterns = [4]uint8{0b00, 0b01, 0b11, 0b10}

const (
	// DefaultStep is the estimate change per VolUp/VolDown call.
	DefaultStep = 2
	// DefaultResetLevel is the level the speaker comes up at after power on.
	DefaultResetLevel = 20
	// DefaultMaxLevel is the highest level the estimate can reach.
	DefaultMaxLevel = 100
	// DefaultPhaseDelay is the hold time for each encoder phase.
	DefaultPhaseDelay = 20 * time.Millisecond
)

// Options configures a Controller. Zero fields take the defaults.
type Options struct {
	Step       int
	ResetLevel int
	MaxLevel   int
	PhaseDelay time.Duration
	Sleep      func(time.Duration)
}

func (o Options) withDefaults() Options {
	if o.Step <= 0 {
		o.Step = DefaultStep
	}
	if o.ResetLevel <= 0 {
		o.ResetLevel = DefaultResetLevel
	}
	if o.MaxLevel <= 0 {
		o.MaxLevel = DefaultMaxLevel
	}
	if o.ResetLevel > o.MaxLevel {
		o.ResetLevel = o.MaxLevel
	}
	if o.PhaseDelay <= 0 {
		o.PhaseDelay = DefaultPhaseDelay
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	return o
}

// Controller steps the volume encoder. It is not safe for concurrent use;
// SetVolume blocks for PhaseDelay*4 per step.
type Controller struct {
	up, down hardware.Pin
	opts     Options
	idx      int
	level    int
}

// New creates a Controller with the estimate disabled (0).
func New(up, down hardware.Pin, opts Options) *Controller {
	c := &Controller{
		up:   up,
		down: down,
		opts: opts.withDefaults(),
	}
	c.Disable()
	return c
}

// Step returns the estimate change per call.
func (c *Controller) Step() int { return c.opts.Step }

// MaxLevel returns the upper bound of the estimate.
func (c *Controller) MaxLevel() int { return c.opts.MaxLevel }

// Volume returns the local estimate.
func (c *Controller) Volume() int { return c.level }

// Phase returns the current encoder phase index (0..3).
func (c *Controller) Phase() int { return c.idx }

// Reset sets the estimate to the power-on level without touching hardware.
func (c *Controller) Reset() { c.level = c.opts.ResetLevel }

// Disable sets the estimate to 0 without touching hardware.
func (c *Controller) Disable() { c.level = 0 }

// VolUp turns the encoder one detent up.
func (c *Controller) VolUp() {
	c.step(true)
	c.level = min(c.level+c.opts.Step, c.opts.MaxLevel)
}

// VolDown turns the encoder one detent down. The estimate stops at 0 but
// the encoder is still pulsed.
func (c *Controller) VolDown() {
	c.step(false)
	c.level = max(c.level-c.opts.Step, 0)
}

// SetVolume steps towards target (clamped to 0..MaxLevel) until less than
// one step remains. Targets a whole number of steps away are hit exactly.
func (c *Controller) SetVolume(target int) {
	target = max(0, min(target, c.opts.MaxLevel))
	slog.Debug("volume: set", "from", c.level, "to", target)
	for target-c.level >= c.opts.Step {
		c.VolUp()
	}
	for c.level-target >= c.opts.Step {
		c.VolDown()
	}
}

func (c *Controller) step(up bool) {
	c.readEncoderIdx()
	c.drive()
	c.up.SetMode(hardware.Output)
	c.down.SetMode(hardware.Output)
	for range patterns {
		if up {
			c.idx = (c.idx + 1) & 3
		} else {
			c.idx = (c.idx + 3) & 3
		}
		c.drive()
		c.opts.Sleep(c.opts.PhaseDelay)
	}
	c.up.SetMode(hardware.Input)
	c.down.SetMode(hardware.Input)
}

func (c *Controller) drive() {
	p := patterns[c.idx]
	c.up.Write(p&1 != 0)
	c.down.Write(p&2 != 0)
}

// readEncoderIdx resyncs the phase from the idle contact levels. Only the
// all-low rest position is told apart; every other reading maps to phase 2.
func (c *Controller) readEncoderIdx() {
	c.up.SetMode(hardware.Input)
	c.down.SetMode(hardware.Input)
	var p uint8
	if c.up.Read() {
		p |= 1
	}
	if c.down.Read() {
		p |= 2
	}
	if p == patterns[0] {
		c.idx = 0
	} else {
		c.idx = 2
	}
}
