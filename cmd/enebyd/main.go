// Command enebyd bridges an ENEBY speaker's power relay and volume encoder
// to MQTT. Run with --mock to use a simulated speaker (no GPIO required).
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/eneby-bridge/eneby-go/internal/api"
	"github.com/eneby-bridge/eneby-go/internal/config"
	"github.com/eneby-bridge/eneby-go/internal/console"
	"github.com/eneby-bridge/eneby-go/internal/device"
	"github.com/eneby-bridge/eneby-go/internal/events"
	"github.com/eneby-bridge/eneby-go/internal/hardware"
	"github.com/eneby-bridge/eneby-go/internal/identity"
	"github.com/eneby-bridge/eneby-go/internal/mqtt"
	"github.com/eneby-bridge/eneby-go/internal/netinfo"
	"github.com/eneby-bridge/eneby-go/internal/power"
	"github.com/eneby-bridge/eneby-go/internal/system"
	"github.com/eneby-bridge/eneby-go/internal/volume"
	"github.com/eneby-bridge/eneby-go/internal/zeroconf"
)

const wifiCacheTTL = 10 * time.Second

func main() {
	var (
		mock       = flag.Bool("mock", false, "simulate the speaker instead of driving GPIO")
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		cfgDir     = flag.String("config-dir", "", "config directory (default: ~/.config/eneby)")
		debug      = flag.Bool("debug", false, "enable debug logging")
		consoleDev = flag.String("console", "", "mirror logs to this serial device, e.g. /dev/serial0")
		baud       = flag.Int("baud", console.DefaultBaudRate, "console baud rate")
		gpio       = flag.String("gpio", "periph", "GPIO backend: periph or cdev")
		chip       = flag.String("chip", hardware.DefaultChip, "GPIO chip for the cdev backend")
		pinPower   = flag.String("pin-power", "GPIO17", "power button relay pin")
		pinSense   = flag.String("pin-sense", "GPIO27", "power sense (LED) pin")
		pinVolUp   = flag.String("pin-vol-up", "GPIO22", "volume encoder up contact")
		pinVolDown = flag.String("pin-vol-down", "GPIO23", "volume encoder down contact")
		prefix     = flag.String("prefix", mqtt.DefaultPrefix, "MQTT topic prefix")
		noMDNS     = flag.Bool("no-mdns", false, "do not advertise the HTTP API over mDNS")
	)
	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	var logOut io.Writer = os.Stderr
	if *consoleDev != "" {
		port, err := console.Open(*consoleDev, *baud)
		if err != nil {
			slog.Warn("serial console unavailable", "dev", *consoleDev, "err", err)
		} else {
			defer port.Close()
			logOut = console.Mirror(os.Stderr, port)
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: logLevel})))

	// Resolve config directory
	if *cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("cannot determine home directory", "err", err)
			os.Exit(1)
		}
		*cfgDir = filepath.Join(home, ".config", "eneby")
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}

	// Graceful shutdown context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	id := identity.Identifier()
	version := identity.GetVersionFromDir(*cfgDir)
	slog.Info("ENEBY bridge starting", "id", id, "version", version, "hostname", identity.GetHostname())

	// GPIO
	var bank hardware.Bank
	switch {
	case *mock:
		slog.Info("using simulated speaker")
		m := hardware.NewMock()
		hardware.NewSpeaker(m, *pinPower, *pinSense, *pinVolUp, *pinVolDown)
		bank = m
	case *gpio == "cdev":
		slog.Info("using GPIO character device", "chip", *chip)
		bank = hardware.NewCdev(*chip)
	default:
		slog.Info("using periph.io GPIO")
		bank = hardware.NewPeriph()
	}
	if err := bank.Init(ctx); err != nil {
		slog.Error("GPIO initialization failed", "err", err)
		os.Exit(1)
	}
	defer bank.Close()

	pins := make(map[string]hardware.Pin)
	for _, name := range []string{*pinPower, *pinSense, *pinVolUp, *pinVolDown} {
		p, err := bank.Pin(name)
		if err != nil {
			slog.Error("GPIO pin unavailable", "pin", name, "err", err)
			os.Exit(1)
		}
		pins[name] = p
	}
	pc := power.New(pins[*pinPower], pins[*pinSense])
	vc := volume.New(pins[*pinVolUp], pins[*pinVolDown], volume.Options{})

	// Config store
	store := config.NewJSONStore(*cfgDir)
	cfg, err := store.Load()
	if err != nil {
		slog.Warn("config load failed, using defaults", "err", err)
		def := config.Default()
		cfg = &def
	}
	watcher := config.NewWatcher(store)
	defer watcher.Close()

	// WiFi facts for the state document
	var wifi netinfo.Provider
	if *mock {
		wifi = netinfo.Static{SSID: "mock", RSSI: -50}
	} else {
		wifi = netinfo.NewCached(netinfo.NewNetworkManager(), wifiCacheTTL)
	}

	// Broker session
	conn := mqtt.New(*cfg, mqtt.Options{
		Prefix:   *prefix,
		ID:       id,
		Version:  version,
		MaxLevel: vc.MaxLevel(),
		Step:     vc.Step(),
		WiFi:     wifi,
	})

	var resetOpts []system.Option
	if *mock {
		resetOpts = append(resetOpts, system.WithReboot(system.NoReboot))
	}

	bus := events.NewBus()
	dev := device.New(device.Options{
		ID:       id,
		Power:    pc,
		Volume:   vc,
		Conn:     conn,
		Store:    store,
		Resetter: system.NewResetter(store, resetOpts...),
		Events:   bus,
		Changes:  watcher.Changes(),
	})

	loopDone := make(chan error, 1)
	go func() { loopDone <- dev.Run(ctx) }()

	// Zeroconf mDNS registration
	if !*noMDNS {
		zc := zeroconf.New(id, listenPort(*addr), zeroconf.TXT(id, version))
		go func() {
			if err := zc.Start(ctx); err != nil {
				slog.Warn("zeroconf failed", "err", err)
			}
		}()
	}

	// HTTP server
	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.NewRouter(dev, bus),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("ENEBY bridge listening", "addr", *addr, "mock", *mock, "config", store.Path())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	// The loop owns the session; close it only after the loop has stopped.
	<-loopDone
	conn.Close()

	// Flush pending config writes
	if err := store.Flush(); err != nil {
		slog.Warn("failed to flush config", "err", err)
	}

	slog.Info("shutdown complete")
}

// listenPort extracts the port from a listen address, defaulting to 80.
func listenPort(addr string) int {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 80
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 80
	}
	return port
}
