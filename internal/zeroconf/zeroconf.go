// Package zeroconf advertises the bridge's local HTTP API over mDNS/DNS-SD
// so provisioning tools can find the speaker on the LAN.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the DNS-SD type of the local HTTP API.
	ServiceType = "_http._tcp"
	domain      = "local."
)

// Service manages mDNS service registration.
type Service struct {
	instance string // device id, e.g. "ENEBY-1A2B3C"
	port     int
	txt      []string
}

// New creates a Service advertising instance on port.
func New(instance string, port int, txt []string) *Service {
	return &Service{
		instance: instance,
		port:     port,
		txt:      txt,
	}
}

// TXT builds the TXT records for a device.
func TXT(id, version string) []string {
	return []string{"id=" + id, "model=ENEBY", "version=" + version}
}

// Start registers the service and blocks until ctx is cancelled, then
// unregisters it.
func (s *Service) Start(ctx context.Context) error {
	server, err := zeroconf.Register(
		s.instance,
		ServiceType,
		domain,
		s.port,
		s.txt,
		nil, // all interfaces
	)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	slog.Info("zeroconf: registered mDNS service",
		"instance", s.instance,
		"port", s.port,
		"txt", s.txt,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}
