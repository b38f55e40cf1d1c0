// Package system implements the provisioning reset: forget the broker
// credentials and restart the board.
package system

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/eneby-bridge/eneby-go/internal/config"
)

// RebootDelay is the pause between clearing the config and rebooting, long
// enough for the log line to reach the console.
const RebootDelay = 3 * time.Second

// Resetter clears the stored configuration and reboots.
type Resetter struct {
	store  config.Store
	delay  time.Duration
	sleep  func(time.Duration)
	reboot func() error
}

// Option configures a Resetter.
type Option func(*Resetter)

// WithSleep replaces time.Sleep, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(r *Resetter) { r.sleep = sleep }
}

// WithReboot replaces the reboot call.
func WithReboot(reboot func() error) Option {
	return func(r *Resetter) { r.reboot = reboot }
}

// NoReboot logs instead of rebooting. Used in mock mode.
func NoReboot() error {
	slog.Warn("system: reboot skipped (mock mode)")
	return nil
}

// NewResetter creates a Resetter for store. By default it reboots the host.
func NewResetter(store config.Store, opts ...Option) *Resetter {
	r := &Resetter{
		store:  store,
		delay:  RebootDelay,
		sleep:  time.Sleep,
		reboot: reboot,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reset deletes the stored configuration, waits RebootDelay and reboots. On
// a real board it does not return.
func (r *Resetter) Reset() {
	if err := r.ResetErr(); err != nil {
		slog.Error("system: reset failed", "err", err)
	}
}

// ResetErr is Reset with the failure returned instead of logged.
func (r *Resetter) ResetErr() error {
	slog.Warn("system: provisioning reset", "config", r.store.Path())
	if err := r.store.Clear(); err != nil {
		return fmt.Errorf("clear config: %w", err)
	}
	r.sleep(r.delay)
	if err := r.reboot(); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	return nil
}
