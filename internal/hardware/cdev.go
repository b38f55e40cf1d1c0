//go:build linux

package hardware

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// DefaultChip is the GPIO character device used when no chip is configured.
const DefaultChip = "gpiochip0"

// CdevBank opens pins through the Linux GPIO character device (uAPI v2).
// Pin names are either line offsets on the configured chip ("17") or line
// labels that are looked up across all chips ("GPIO17").
type CdevBank struct {
	mu    sync.Mutex
	chip  string
	lines map[string]*cdevPin
}

// NewCdev creates a gpiocdev backed pin bank on the given chip.
func NewCdev(chip string) *CdevBank {
	if chip == "" {
		chip = DefaultChip
	}
	return &CdevBank{chip: chip, lines: make(map[string]*cdevPin)}
}

// Init verifies the chip can be opened.
func (b *CdevBank) Init(ctx context.Context) error {
	c, err := gpiocdev.NewChip(b.chip)
	if err != nil {
		return fmt.Errorf("gpiocdev: open %s: %w", b.chip, err)
	}
	return c.Close()
}

func (b *CdevBank) Pin(name string) (Pin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.lines[name]; ok {
		return p, nil
	}

	chip, offset := b.chip, 0
	if n, err := strconv.Atoi(name); err == nil {
		offset = n
	} else {
		c, o, err := gpiocdev.FindLine(name)
		if err != nil {
			return nil, ErrHardware(fmt.Sprintf("gpiocdev: line %s not found: %v", name, err))
		}
		chip, offset = c, o
	}

	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsInput, gpiocdev.WithConsumer("enebyd"))
	if err != nil {
		return nil, ErrHardware(fmt.Sprintf("gpiocdev: request %s:%d: %v", chip, offset, err))
	}
	p := &cdevPin{name: name, line: line, mode: Input}
	b.lines[name] = p
	return p, nil
}

func (b *CdevBank) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var first error
	for name, p := range b.lines {
		if err := p.line.Close(); err != nil && first == nil {
			first = fmt.Errorf("gpiocdev: close %s: %w", name, err)
		}
	}
	b.lines = make(map[string]*cdevPin)
	return first
}

func (b *CdevBank) IsReal() bool { return true }

type cdevPin struct {
	mu    sync.Mutex
	name  string
	line  *gpiocdev.Line
	mode  Mode
	level Level
}

func (p *cdevPin) Name() string { return p.name }

func (p *cdevPin) SetMode(m Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	switch m {
	case Output:
		err = p.line.Reconfigure(gpiocdev.AsOutput(levelValue(p.level)))
	case InputPullDown:
		err = p.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown)
	case InputPullUp:
		err = p.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp)
	default:
		err = p.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithBiasDisabled)
	}
	if err != nil {
		slog.Warn("gpiocdev: set mode failed", "pin", p.name, "mode", m, "err", err)
		return
	}
	p.mode = m
}

func (p *cdevPin) Read() Level {
	v, err := p.line.Value()
	if err != nil {
		slog.Warn("gpiocdev: read failed", "pin", p.name, "err", err)
		return Low
	}
	return v != 0
}

func (p *cdevPin) Write(l Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = l
	if p.mode != Output {
		return
	}
	if err := p.line.SetValue(levelValue(l)); err != nil {
		slog.Warn("gpiocdev: write failed", "pin", p.name, "level", l, "err", err)
	}
}

func levelValue(l Level) int {
	if l {
		return 1
	}
	return 0
}

var _ Bank = (*CdevBank)(nil)
