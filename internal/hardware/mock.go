package hardware

import (
	"context"
	"sync"
)

// Mock is a thread-safe in-memory pin bank for testing and development.
type Mock struct {
	mu   sync.Mutex
	pins map[string]*MockPin
}

// NewMock creates an empty mock bank. Pins are created on first use.
func NewMock() *Mock {
	return &Mock{pins: make(map[string]*MockPin)}
}

func (m *Mock) Init(ctx context.Context) error { return nil }

func (m *Mock) Pin(name string) (Pin, error) {
	return m.MockPin(name), nil
}

// MockPin returns the concrete mock for name, creating it if needed.
func (m *Mock) MockPin(name string) *MockPin {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pins[name]; ok {
		return p
	}
	p := &MockPin{name: name, mode: Input}
	m.pins[name] = p
	return p
}

func (m *Mock) Close() error { return nil }

func (m *Mock) IsReal() bool { return false }

// PinEvent is one recorded call on a MockPin.
type PinEvent struct {
	Mode  Mode
	Level Level
	Write bool // true for Write, false for SetMode
}

// MockPin records every mode change and write. When the pin is not an
// output, Read returns the externally applied level set with SetInput.
type MockPin struct {
	mu       sync.Mutex
	name     string
	mode     Mode
	latched  Level
	external Level
	events   []PinEvent
	onChange func()
}

func (p *MockPin) Name() string { return p.name }

func (p *MockPin) SetMode(m Mode) {
	p.mu.Lock()
	p.mode = m
	p.events = append(p.events, PinEvent{Mode: m, Level: p.latched})
	cb := p.onChange
	p.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (p *MockPin) Read() Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode == Output {
		return p.latched
	}
	return p.external
}

func (p *MockPin) Write(l Level) {
	p.mu.Lock()
	p.latched = l
	p.events = append(p.events, PinEvent{Mode: p.mode, Level: l, Write: true})
	cb := p.onChange
	p.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// SetInput sets the level seen by Read while the pin is an input.
func (p *MockPin) SetInput(l Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.external = l
}

// Mode returns the current mode.
func (p *MockPin) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Driven reports whether the pin is an output and the level it drives.
func (p *MockPin) Driven() (Level, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latched, p.mode == Output
}

// Events returns a copy of the recorded calls.
func (p *MockPin) Events() []PinEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PinEvent, len(p.events))
	copy(out, p.events)
	return out
}

// ResetEvents clears the recorded calls.
func (p *MockPin) ResetEvents() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

func (p *MockPin) setOnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

var _ Bank = (*Mock)(nil)
