package hardware

import "sync"

// quadrature is the encoder pattern cycle; bit 0 is the up pin, bit 1 the down pin.
var quadrature = [4]uint8{0b00, 0b01, 0b11, 0b10}

// Speaker simulates the ENEBY front panel on top of a Mock bank: pulsing the
// relay pin low and releasing it toggles the power sense line, and a full
// quadrature cycle on the volume pins counts as one detent.
type Speaker struct {
	mu sync.Mutex

	relay, sense, up, down *MockPin

	powered     bool
	relayLow    bool
	phase       int // index into quadrature, -1 while not both driven
	transitions int
	detents     int
}

// NewSpeaker wires a simulated speaker to the named mock pins.
func NewSpeaker(m *Mock, relay, sense, up, down string) *Speaker {
	s := &Speaker{
		relay: m.MockPin(relay),
		sense: m.MockPin(sense),
		up:    m.MockPin(up),
		down:  m.MockPin(down),
		phase: -1,
	}
	s.relay.setOnChange(s.relayChanged)
	s.up.setOnChange(s.encoderChanged)
	s.down.setOnChange(s.encoderChanged)
	return s
}

// Powered reports the simulated power state.
func (s *Speaker) Powered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.powered
}

// SetPowered simulates someone pressing the physical power button.
func (s *Speaker) SetPowered(on bool) {
	s.mu.Lock()
	s.powered = on
	s.mu.Unlock()
	s.sense.SetInput(Level(on))
}

// Detents returns the net number of volume detents turned (up positive).
func (s *Speaker) Detents() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detents
}

func (s *Speaker) relayChanged() {
	level, driven := s.relay.Driven()
	s.mu.Lock()
	switch {
	case driven && level == Low:
		s.relayLow = true
	case !driven && s.relayLow:
		s.relayLow = false
		s.powered = !s.powered
	}
	on := s.powered
	s.mu.Unlock()
	s.sense.SetInput(Level(on))
}

func (s *Speaker) encoderChanged() {
	upLevel, upDriven := s.up.Driven()
	downLevel, downDriven := s.down.Driven()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !upDriven || !downDriven {
		s.phase = -1
		s.transitions = 0
		return
	}

	var p uint8
	if upLevel {
		p |= 1
	}
	if downLevel {
		p |= 2
	}
	idx := 0
	for i, q := range quadrature {
		if q == p {
			idx = i
		}
	}
	if s.phase < 0 {
		s.phase = idx
		return
	}
	switch idx {
	case (s.phase + 1) & 3:
		s.transitions++
	case (s.phase + 3) & 3:
		s.transitions--
	}
	s.phase = idx
	if s.transitions == 4 {
		s.detents++
		s.transitions = 0
	} else if s.transitions == -4 {
		s.detents--
		s.transitions = 0
	}
}
