// Package netinfo reports the WiFi facts published in the state document.
package netinfo

import (
	"net"
	"sync"
	"time"
)

// WiFi is the "wifi" object of the state document.
type WiFi struct {
	SSID string `json:"ssid"`
	IP   string `json:"ip"`
	RSSI int    `json:"rssi"`
}

// Provider returns the current WiFi facts. Implementations never fail; they
// return whatever they could find.
type Provider interface {
	WiFi() WiFi
}

// Static is a Provider returning a fixed value (mock mode, tests).
type Static WiFi

func (s Static) WiFi() WiFi { return WiFi(s) }

// Cached wraps a Provider and reuses its answer for ttl.
type Cached struct {
	mu     sync.Mutex
	src    Provider
	ttl    time.Duration
	now    func() time.Time
	value  WiFi
	expiry time.Time
}

// NewCached caches src for ttl.
func NewCached(src Provider, ttl time.Duration) *Cached {
	return &Cached{src: src, ttl: ttl, now: time.Now}
}

func (c *Cached) WiFi() WiFi {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if now.Before(c.expiry) {
		return c.value
	}
	c.value = c.src.WiFi()
	c.expiry = now.Add(c.ttl)
	return c.value
}

// interfaceIP returns the first IPv4 address of the named interface, or of
// the first non-loopback interface that is up when name is empty.
func interfaceIP(name string) string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if name != "" && iface.Name != name {
			continue
		}
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipn, ok := a.(*net.IPNet); ok && ipn.IP.To4() != nil {
				return ipn.IP.String()
			}
		}
	}
	return ""
}
