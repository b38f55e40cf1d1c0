// Package device owns the speaker controllers and runs the single control
// loop that serialises every action on them.
//
// MQTT messages arrive through the connection's inbox and HTTP requests
// through Do; both are executed on the loop goroutine, so the controllers,
// the router and the status publisher need no locking.
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eneby-bridge/eneby-go/internal/command"
	"github.com/eneby-bridge/eneby-go/internal/config"
	"github.com/eneby-bridge/eneby-go/internal/models"
	"github.com/eneby-bridge/eneby-go/internal/mqtt"
	"github.com/eneby-bridge/eneby-go/internal/power"
	"github.com/eneby-bridge/eneby-go/internal/status"
	"github.com/eneby-bridge/eneby-go/internal/volume"
)

// TickInterval is the loop resolution for reconnects and status timers.
const TickInterval = 50 * time.Millisecond

var (
	// ErrStopped is returned by Do once Run has returned.
	ErrStopped = errors.New("device: control loop stopped")
	// ErrInvalidConfig wraps provisioning validation failures.
	ErrInvalidConfig = errors.New("invalid config")
)

// Connection is the broker session as seen by the loop. *mqtt.Manager
// implements it.
type Connection interface {
	Maintain(now time.Time) bool
	Connected() bool
	Inbox() <-chan mqtt.Message
	Topics() mqtt.Topics
	PublishSnapshot(s status.Snapshot) error
	Reconfigure(cfg config.Config)
	Close()
}

// StatePublisher receives state changes for local subscribers.
type StatePublisher interface {
	Publish(state models.DeviceState)
}

// Resetter performs the provisioning reset.
type Resetter interface {
	Reset()
}

// Options wires a Device.
type Options struct {
	ID       string
	Power    *power.Controller
	Volume   *volume.Controller
	Conn     Connection
	Store    config.Store
	Resetter Resetter
	Events   StatePublisher       // optional
	Changes  <-chan config.Config // optional, external config edits
	Now      func() time.Time
	Tick     time.Duration
}

type request struct {
	fn   func()
	done chan struct{}
}

// Device is the device context: controllers, router, publisher and the
// broker session, all driven from Run.
type Device struct {
	id        string
	power     *power.Controller
	volume    *volume.Controller
	conn      Connection
	store     config.Store
	resetter  Resetter
	events    StatePublisher
	changes   <-chan config.Config
	router    *command.Router
	publisher *status.Publisher
	now       func() time.Time
	tick      time.Duration

	requests chan request
	stopped  chan struct{}

	lastEvent status.Snapshot
	sentEvent bool
}

// New builds a Device. Nothing runs until Run is called.
func New(opts Options) *Device {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tick <= 0 {
		opts.Tick = TickInterval
	}
	d := &Device{
		id:       opts.ID,
		power:    opts.Power,
		volume:   opts.Volume,
		conn:     opts.Conn,
		store:    opts.Store,
		resetter: opts.Resetter,
		events:   opts.Events,
		changes:  opts.Changes,
		now:      opts.Now,
		tick:     opts.Tick,
		requests: make(chan request),
		stopped:  make(chan struct{}),
	}
	var reset command.Resetter
	if opts.Resetter != nil {
		reset = resetFunc(d.reset)
	}
	d.router = command.NewRouter(opts.Power, opts.Volume, reset)
	d.publisher = status.New(opts.Power, opts.Volume, d)
	return d
}

// Publisher exposes the status publisher, mainly so tests can shorten its
// intervals before Run.
func (d *Device) Publisher() *status.Publisher { return d.publisher }

// Run drives the device until ctx is cancelled. Hardware operations in
// progress are completed before it returns.
func (d *Device) Run(ctx context.Context) error {
	defer close(d.stopped)
	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	slog.Info("device: control loop started", "id", d.id)
	d.step()
	for {
		select {
		case <-ctx.Done():
			slog.Info("device: control loop stopping")
			return ctx.Err()
		case msg := <-d.conn.Inbox():
			d.router.Dispatch(msg.Topic, msg.Payload)
		case req := <-d.requests:
			req.fn()
			close(req.done)
		case cfg, ok := <-d.changes:
			if !ok {
				d.changes = nil
				continue
			}
			d.conn.Reconfigure(cfg)
		case <-ticker.C:
			d.step()
		}
	}
}

func (d *Device) step() {
	now := d.now()
	d.conn.Maintain(now)
	d.publisher.Tick(now)
}

// Do runs fn on the control loop and waits for it to finish. ctx bounds
// only the wait for the loop to pick fn up; once accepted, fn runs to
// completion and Do returns after it.
func (d *Device) Do(ctx context.Context, fn func()) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case d.requests <- req:
	case <-d.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-req.done
	return nil
}

// State samples the current state on the loop.
func (d *Device) State(ctx context.Context) (models.DeviceState, error) {
	var st models.DeviceState
	err := d.Do(ctx, func() {
		st = d.stateOf(status.Snapshot{Powered: d.power.IsPowered(), Volume: d.volume.Volume()})
	})
	return st, err
}

// Command routes a payload as if it had arrived on command/<name>. It
// reports whether the command was recognised.
func (d *Device) Command(ctx context.Context, name string, payload []byte) (bool, error) {
	var ok bool
	err := d.Do(ctx, func() {
		ok = d.router.Dispatch(d.conn.Topics().CommandTopic(name), payload)
	})
	return ok, err
}

// Config returns the stored broker configuration.
func (d *Device) Config() (config.Config, error) {
	cfg, err := d.store.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return *cfg, nil
}

// Provision stores new broker credentials and reconnects with them.
func (d *Device) Provision(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg = cfg.Normalized()
	if err := d.store.Save(&cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	slog.Info("device: provisioned", "broker", cfg.BrokerURL(), "username", cfg.Username)
	return d.Do(ctx, func() { d.conn.Reconfigure(cfg) })
}

// Reset performs the provisioning reset on the loop.
func (d *Device) Reset(ctx context.Context) error {
	if d.resetter == nil {
		return errors.New("device: reset not available")
	}
	return d.Do(ctx, d.reset)
}

// reset announces offline, clears the credentials and reboots. If the
// reboot does not happen (mock mode) the session falls back to the default
// broker.
func (d *Device) reset() {
	d.conn.Close()
	d.resetter.Reset()
	d.conn.Reconfigure(config.Default())
}

// PublishSnapshot is the status publisher's sink: changes go to local
// subscribers, then to the broker.
func (d *Device) PublishSnapshot(s status.Snapshot) error {
	if d.events != nil && (!d.sentEvent || s != d.lastEvent) {
		d.events.Publish(d.stateOf(s))
		d.lastEvent, d.sentEvent = s, true
	}
	return d.conn.PublishSnapshot(s)
}

func (d *Device) stateOf(s status.Snapshot) models.DeviceState {
	return models.DeviceState{
		ID:        d.id,
		Power:     models.PowerString(s.Powered),
		Volume:    s.Volume,
		Connected: d.conn.Connected(),
	}
}

type resetFunc func()

func (f resetFunc) Reset() { f() }
