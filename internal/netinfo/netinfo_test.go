package netinfo

import (
	"testing"
	"time"
)

type countingProvider struct {
	calls int
}

func (c *countingProvider) WiFi() WiFi {
	c.calls++
	return WiFi{SSID: "home", RSSI: -40 - c.calls}
}

func TestCached_ReusesValueWithinTTL(t *testing.T) {
	src := &countingProvider{}
	c := NewCached(src, 10*time.Second)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	first := c.WiFi()
	now = now.Add(5 * time.Second)
	second := c.WiFi()
	if src.calls != 1 {
		t.Fatalf("calls = %d, want 1", src.calls)
	}
	if first != second {
		t.Errorf("cached value changed: %+v then %+v", first, second)
	}

	now = now.Add(5 * time.Second)
	third := c.WiFi()
	if src.calls != 2 {
		t.Errorf("calls after TTL = %d, want 2", src.calls)
	}
	if third.RSSI != -42 {
		t.Errorf("RSSI = %d, want -42", third.RSSI)
	}
}

func TestStrengthToDBm(t *testing.T) {
	tests := []struct {
		strength byte
		want     int
	}{
		{0, -100},
		{50, -75},
		{100, -50},
		{255, -50},
	}
	for _, tt := range tests {
		if got := strengthToDBm(tt.strength); got != tt.want {
			t.Errorf("strengthToDBm(%d) = %d, want %d", tt.strength, got, tt.want)
		}
	}
}

func TestStatic(t *testing.T) {
	want := WiFi{SSID: "mock", IP: "192.0.2.10", RSSI: -55}
	if got := Static(want).WiFi(); got != want {
		t.Errorf("Static.WiFi() = %+v, want %+v", got, want)
	}
}
