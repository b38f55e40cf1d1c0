package netinfo

import (
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	nmService        = "org.freedesktop.NetworkManager"
	nmPath           = "/org/freedesktop/NetworkManager"
	nmDeviceTypeWiFi = uint32(2)
)

// NetworkManager reads the active access point from NetworkManager over the
// system D-Bus. When NetworkManager is unavailable it still reports the IP
// address of the first usable interface.
type NetworkManager struct{}

// NewNetworkManager returns a NetworkManager provider.
func NewNetworkManager() *NetworkManager { return &NetworkManager{} }

func (n *NetworkManager) WiFi() WiFi {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		slog.Debug("netinfo: failed to connect to D-Bus", "err", err)
		return WiFi{IP: interfaceIP("")}
	}
	defer conn.Close()

	var devices []dbus.ObjectPath
	call := conn.Object(nmService, nmPath).Call(nmService+".GetDevices", 0)
	if call.Err != nil {
		slog.Debug("netinfo: GetDevices failed", "err", call.Err)
		return WiFi{IP: interfaceIP("")}
	}
	if err := call.Store(&devices); err != nil {
		return WiFi{IP: interfaceIP("")}
	}

	for _, path := range devices {
		dev := conn.Object(nmService, path)
		typ, err := dev.GetProperty(nmService + ".Device.DeviceType")
		if err != nil {
			continue
		}
		if t, ok := typ.Value().(uint32); !ok || t != nmDeviceTypeWiFi {
			continue
		}

		info := WiFi{}
		if v, err := dev.GetProperty(nmService + ".Device.Interface"); err == nil {
			if name, ok := v.Value().(string); ok {
				info.IP = interfaceIP(name)
			}
		}

		apVariant, err := dev.GetProperty(nmService + ".Device.Wireless.ActiveAccessPoint")
		if err != nil {
			return info
		}
		apPath, ok := apVariant.Value().(dbus.ObjectPath)
		if !ok || apPath == "/" {
			return info
		}
		ap := conn.Object(nmService, apPath)
		if v, err := ap.GetProperty(nmService + ".AccessPoint.Ssid"); err == nil {
			if ssid, ok := v.Value().([]byte); ok {
				info.SSID = string(ssid)
			}
		}
		if v, err := ap.GetProperty(nmService + ".AccessPoint.Strength"); err == nil {
			if strength, ok := v.Value().(byte); ok {
				info.RSSI = strengthToDBm(strength)
			}
		}
		return info
	}

	return WiFi{IP: interfaceIP("")}
}

// strengthToDBm maps NetworkManager's 0-100 signal quality back to an
// approximate RSSI, inverting the 2*(dBm+100) rule NetworkManager uses.
func strengthToDBm(strength byte) int {
	if strength > 100 {
		strength = 100
	}
	return int(strength)/2 - 100
}
