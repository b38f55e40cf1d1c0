package hardware

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphBank opens pins through the periph.io host drivers.
type PeriphBank struct {
	mu   sync.Mutex
	pins map[string]*periphPin
}

// NewPeriph creates a periph.io backed pin bank.
func NewPeriph() *PeriphBank {
	return &PeriphBank{pins: make(map[string]*periphPin)}
}

// Init loads the periph.io host drivers.
func (b *PeriphBank) Init(ctx context.Context) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("gpio: host init failed: %w", err)
	}
	return nil
}

// Pin returns the pin registered under name (BCM naming, e.g. "GPIO17").
func (b *PeriphBank) Pin(name string) (Pin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pins[name]; ok {
		return p, nil
	}
	io := gpioreg.ByName(name)
	if io == nil {
		return nil, ErrHardware(fmt.Sprintf("gpio: failed to open %s", name))
	}
	p := &periphPin{io: io, mode: Input}
	b.pins[name] = p
	return p, nil
}

// Close releases all pins back to high impedance inputs.
func (b *PeriphBank) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.pins {
		p.SetMode(Input)
		if err := p.io.Halt(); err != nil {
			slog.Debug("gpio: halt failed", "pin", p.io.Name(), "err", err)
		}
	}
	b.pins = make(map[string]*periphPin)
	return nil
}

func (b *PeriphBank) IsReal() bool { return true }

type periphPin struct {
	mu    sync.Mutex
	io    gpio.PinIO
	mode  Mode
	level Level
}

func (p *periphPin) Name() string { return p.io.Name() }

func (p *periphPin) SetMode(m Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	switch m {
	case Output:
		err = p.io.Out(gpio.Level(p.level))
	case InputPullDown:
		err = p.io.In(gpio.PullDown, gpio.NoEdge)
	case InputPullUp:
		err = p.io.In(gpio.PullUp, gpio.NoEdge)
	default:
		err = p.io.In(gpio.Float, gpio.NoEdge)
	}
	if err != nil {
		slog.Warn("gpio: set mode failed", "pin", p.io.Name(), "mode", m, "err", err)
		return
	}
	p.mode = m
}

func (p *periphPin) Read() Level {
	return Level(p.io.Read())
}

func (p *periphPin) Write(l Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = l
	if p.mode != Output {
		return
	}
	if err := p.io.Out(gpio.Level(l)); err != nil {
		slog.Warn("gpio: write failed", "pin", p.io.Name(), "level", l, "err", err)
	}
}

var _ Bank = (*PeriphBank)(nil)
