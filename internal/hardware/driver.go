// Package hardware provides the GPIO abstraction for the ENEBY retrofit board.
// It defines the Pin and Bank interfaces used by the power and volume
// controllers, with periph.io and GPIO character device backends plus an
// in-memory mock that simulates the speaker.
package hardware

import "context"

// Level is a digital pin level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "High"
	}
	return "Low"
}

// Mode is the direction and bias of a pin.
type Mode int

const (
	// Input releases the pin (high impedance, no bias).
	Input Mode = iota
	// InputPullDown is an input with the internal pull-down enabled.
	InputPullDown
	// InputPullUp is an input with the internal pull-up enabled.
	InputPullUp
	// Output drives the last written level.
	Output
)

func (m Mode) String() string {
	switch m {
	case Input:
		return "input"
	case InputPullDown:
		return "input-pulldown"
	case InputPullUp:
		return "input-pullup"
	case Output:
		return "output"
	}
	return "unknown"
}

// Pin is a single GPIO line.
//
// Pin access is treated as infallible by the controllers: backends log I/O
// failures instead of returning them. Write on a pin that is not in Output
// mode only latches the level; it is driven on the next SetMode(Output).
type Pin interface {
	Name() string
	SetMode(m Mode)
	Read() Level
	Write(l Level)
}

// Bank opens pins by name.
type Bank interface {
	// Init prepares the backend. Must be called before Pin.
	Init(ctx context.Context) error

	// Pin returns the named line. Names are backend specific
	// (e.g. "GPIO17" for periph.io, "17" or a line label for gpiocdev).
	Pin(name string) (Pin, error)

	// Close releases every pin handed out by the bank.
	Close() error

	// IsReal returns true for a real hardware backend, false for a mock.
	IsReal() bool
}

// HardwareError is returned by backends when a pin cannot be opened.
type HardwareError struct {
	msg string
}

func (e HardwareError) Error() string { return e.msg }

// ErrHardware creates a new hardware error.
func ErrHardware(msg string) error { return HardwareError{msg: msg} }
