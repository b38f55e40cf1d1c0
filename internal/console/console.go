// Package console mirrors the log stream to a UART, the way the speaker's
// ESP8266 retrofit logged to its serial port.
package console

import (
	"fmt"
	"io"
	"sync/atomic"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the ESP8266 serial monitor.
const DefaultBaudRate = 115200

// Open opens the serial device at 8N1.
func Open(dev string, baud int) (io.WriteCloser, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(dev, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dev, err)
	}
	return port, nil
}

// Mirror returns a writer that copies everything written to primary onto
// secondary. Failures on secondary are counted and otherwise ignored, so a
// disconnected cable never breaks logging.
func Mirror(primary, secondary io.Writer) *MirrorWriter {
	return &MirrorWriter{primary: primary, secondary: secondary}
}

// MirrorWriter is returned by Mirror.
type MirrorWriter struct {
	primary   io.Writer
	secondary io.Writer
	failures  atomic.Int64
}

func (m *MirrorWriter) Write(p []byte) (int, error) {
	n, err := m.primary.Write(p)
	if _, serr := m.secondary.Write(p); serr != nil {
		m.failures.Add(1)
	}
	return n, err
}

// Failures returns how many writes to the secondary failed.
func (m *MirrorWriter) Failures() int64 { return m.failures.Load() }
