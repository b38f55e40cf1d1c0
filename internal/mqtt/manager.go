package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/time/rate"

	"github.com/eneby-bridge/eneby-go/internal/config"
	"github.com/eneby-bridge/eneby-go/internal/netinfo"
	"github.com/eneby-bridge/eneby-go/internal/status"
)

const (
	// RetryInterval is the minimum time between reconnect windows.
	RetryInterval = 60 * time.Second
	// ConnectAttempts is the number of connect attempts per window.
	ConnectAttempts = 3
	// AttemptBackoff separates attempts within a window.
	AttemptBackoff = 5 * time.Second

	keepAlive      = 10 * time.Second
	connectTimeout = 5 * time.Second
	publishTimeout = 5 * time.Second
	inboxSize      = 16
	inboundRate    = 10 // messages per second
	inboundBurst   = 20
)

// ErrNotConnected is returned by publishes while the session is down.
var ErrNotConnected = errors.New("mqtt: not connected")

// Message is one inbound command.
type Message struct {
	Topic   string
	Payload []byte
}

// StateDocument is the retained JSON on the state topic.
type StateDocument struct {
	Power  string       `json:"power"`
	Volume int          `json:"volume"`
	WiFi   netinfo.WiFi `json:"wifi"`
	Heap   int          `json:"heap"`
}

// NewStateDocument builds the state document for a snapshot.
func NewStateDocument(s status.Snapshot, wifi netinfo.WiFi, heap int) StateDocument {
	power := "off"
	if s.Powered {
		power = "on"
	}
	return StateDocument{Power: power, Volume: s.Volume, WiFi: wifi, Heap: heap}
}

// Options configures a Manager.
type Options struct {
	Prefix   string
	ID       string
	Version  string
	MaxLevel int // advertised volume range for discovery
	Step     int

	WiFi netinfo.Provider

	// NewClient builds the paho client; defaults to paho.NewClient.
	NewClient func(*paho.ClientOptions) paho.Client
	// Sleep is used for the backoff between attempts; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Manager is the broker session. Maintain, Reconfigure, PublishSnapshot and
// Close must be called from the control loop; the inbox is filled from the
// paho goroutine.
type Manager struct {
	opts   Options
	topics Topics
	device DeviceInfo
	cfg    config.Config

	client      paho.Client
	lastAttempt time.Time
	attempted   bool

	inbox   chan Message
	limiter *rate.Limiter
	dropped atomic.Int64
}

// New creates a Manager for cfg. It does not connect; the first Maintain
// call does.
func New(cfg config.Config, opts Options) *Manager {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.NewClient == nil {
		opts.NewClient = paho.NewClient
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.WiFi == nil {
		opts.WiFi = netinfo.Static{}
	}
	m := &Manager{
		opts:    opts,
		topics:  NewTopics(opts.Prefix, opts.ID),
		device:  NewDeviceInfo(opts.ID, opts.Version),
		cfg:     cfg,
		inbox:   make(chan Message, inboxSize),
		limiter: rate.NewLimiter(rate.Limit(inboundRate), inboundBurst),
	}
	m.client = opts.NewClient(m.clientOptions())
	return m
}

// Topics returns the device topics.
func (m *Manager) Topics() Topics { return m.topics }

// Inbox delivers inbound command messages.
func (m *Manager) Inbox() <-chan Message { return m.inbox }

// Connected reports whether the session is up.
func (m *Manager) Connected() bool { return m.client.IsConnected() }

// Dropped returns how many inbound messages were discarded because the
// inbox was full or the rate limit was exceeded.
func (m *Manager) Dropped() int64 { return m.dropped.Load() }

func (m *Manager) clientOptions() *paho.ClientOptions {
	return paho.NewClientOptions().
		AddBroker(m.cfg.BrokerURL()).
		SetClientID(m.opts.ID).
		SetUsername(m.cfg.Username).
		SetPassword(m.cfg.Password).
		SetKeepAlive(keepAlive).
		SetConnectTimeout(connectTimeout).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetWill(m.topics.Availability, AvailabilityOffline, 1, true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			slog.Warn("mqtt: connection lost", "err", err)
		})
}

// Maintain reconnects if the session is down and the retry window allows
// it. It returns true when the session is up afterwards.
func (m *Manager) Maintain(now time.Time) bool {
	if m.client.IsConnected() {
		return true
	}
	if m.attempted && now.Sub(m.lastAttempt) < RetryInterval {
		return false
	}
	m.attempted = true
	m.lastAttempt = now
	slog.Info("mqtt: reconnecting", "broker", m.cfg.BrokerURL())
	return m.connect()
}

// connect makes up to ConnectAttempts attempts, sleeping AttemptBackoff
// between failures. It blocks the caller for the whole sequence.
func (m *Manager) connect() bool {
	for attempt := 1; attempt <= ConnectAttempts; attempt++ {
		t := m.client.Connect()
		t.Wait()
		if err := t.Error(); err != nil {
			slog.Warn("mqtt: connect failed", "attempt", attempt, "broker", m.cfg.BrokerURL(), "err", err)
			if attempt < ConnectAttempts {
				m.opts.Sleep(AttemptBackoff)
			}
			continue
		}
		slog.Info("mqtt: connected", "broker", m.cfg.BrokerURL(), "attempt", attempt)
		m.onConnected()
		return true
	}
	slog.Warn("mqtt: giving up until next retry window", "retry_in", RetryInterval)
	return false
}

// onConnected announces availability and discovery before subscribing, so
// retained commands are never handled before the device announced itself.
func (m *Manager) onConnected() {
	if err := m.publish(m.topics.Availability, 1, true, []byte(AvailabilityOnline)); err != nil {
		slog.Warn("mqtt: availability publish failed", "err", err)
	}
	m.publishDiscovery()

	t := m.client.Subscribe(m.topics.CommandFilter, 0, m.handleMessage)
	if !t.WaitTimeout(publishTimeout) {
		slog.Warn("mqtt: subscribe timed out", "topic", m.topics.CommandFilter)
	} else if err := t.Error(); err != nil {
		slog.Warn("mqtt: subscribe failed", "topic", m.topics.CommandFilter, "err", err)
	}
}

func (m *Manager) publishDiscovery() {
	for _, d := range m.entityDefinitions() {
		topic := discoveryTopic(d.component, m.opts.Prefix, m.opts.ID, d.entity)
		payload, err := json.Marshal(d.config)
		if err != nil {
			slog.Error("mqtt: marshal discovery payload", "entity", d.entity, "err", err)
			continue
		}
		if err := m.publish(topic, 0, true, payload); err != nil {
			slog.Warn("mqtt: discovery publish failed", "entity", d.entity, "topic", topic, "err", err)
			continue
		}
		slog.Debug("mqtt: discovery published", "entity", d.entity, "topic", topic)
	}
}

// handleMessage runs on the paho goroutine and only queues.
func (m *Manager) handleMessage(_ paho.Client, msg paho.Message) {
	if !m.limiter.Allow() {
		m.dropped.Add(1)
		slog.Warn("mqtt: inbound rate exceeded, dropping", "topic", msg.Topic())
		return
	}
	payload := append([]byte(nil), msg.Payload()...)
	select {
	case m.inbox <- Message{Topic: msg.Topic(), Payload: payload}:
	default:
		m.dropped.Add(1)
		slog.Warn("mqtt: inbox full, dropping", "topic", msg.Topic())
	}
}

// PublishSnapshot publishes the retained state document.
func (m *Manager) PublishSnapshot(s status.Snapshot) error {
	if !m.client.IsConnected() {
		return ErrNotConnected
	}
	doc := NewStateDocument(s, m.opts.WiFi.WiFi(), heapInUse())
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("mqtt: marshal state: %w", err)
	}
	return m.publish(m.topics.State, 0, true, payload)
}

// Reconfigure switches to new broker credentials. The current session, if
// any, is closed and the retry window is cleared so the next Maintain call
// connects immediately.
func (m *Manager) Reconfigure(cfg config.Config) {
	if cfg == m.cfg {
		return
	}
	slog.Info("mqtt: broker config changed", "broker", cfg.BrokerURL())
	m.disconnect()
	m.cfg = cfg
	m.client = m.opts.NewClient(m.clientOptions())
	m.attempted = false
}

// Close announces offline and disconnects.
func (m *Manager) Close() {
	m.disconnect()
}

func (m *Manager) disconnect() {
	if !m.client.IsConnected() {
		return
	}
	if err := m.publish(m.topics.Availability, 1, true, []byte(AvailabilityOffline)); err != nil {
		slog.Debug("mqtt: offline publish failed", "err", err)
	}
	m.client.Disconnect(250)
}

func (m *Manager) publish(topic string, qos byte, retained bool, payload []byte) error {
	t := m.client.Publish(topic, qos, retained, payload)
	if !t.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt: publish %s timed out", topic)
	}
	return t.Error()
}

// heapInUse reports the Go heap in use, in bytes.
func heapInUse() int {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int(ms.HeapInuse)
}
