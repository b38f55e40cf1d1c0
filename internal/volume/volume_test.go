package volume_test

import (
	"testing"
	"time"

	"github.com/eneby-bridge/eneby-go/internal/hardware"
	"github.com/eneby-bridge/eneby-go/internal/volume"
)

type rig struct {
	c      *volume.Controller
	m      *hardware.Mock
	spk    *hardware.Speaker
	sleeps int
}

func newRig(t *testing.T, opts volume.Options) *rig {
	t.Helper()
	r := &rig{m: hardware.NewMock()}
	r.spk = hardware.NewSpeaker(r.m, "relay", "sense", "up", "down")
	opts.Sleep = func(time.Duration) { r.sleeps++ }
	r.c = volume.New(r.m.MockPin("up"), r.m.MockPin("down"), opts)
	return r
}

func TestNewStartsDisabled(t *testing.T) {
	r := newRig(t, volume.Options{})
	if v := r.c.Volume(); v != 0 {
		t.Errorf("Volume() = %d, want 0", v)
	}
	if r.c.Step() != volume.DefaultStep || r.c.MaxLevel() != volume.DefaultMaxLevel {
		t.Errorf("step/max = %d/%d", r.c.Step(), r.c.MaxLevel())
	}
}

func TestResetAndDisableDoNotTouchHardware(t *testing.T) {
	r := newRig(t, volume.Options{})
	up := r.m.MockPin("up")
	up.ResetEvents()

	r.c.Reset()
	if v := r.c.Volume(); v != volume.DefaultResetLevel {
		t.Errorf("Volume() after Reset = %d, want %d", v, volume.DefaultResetLevel)
	}
	r.c.Disable()
	if v := r.c.Volume(); v != 0 {
		t.Errorf("Volume() after Disable = %d, want 0", v)
	}
	if n := len(up.Events()); n != 0 {
		t.Errorf("up pin touched %d times, want 0", n)
	}
}

func TestVolUpOneDetent(t *testing.T) {
	r := newRig(t, volume.Options{})
	r.c.Reset()

	r.c.VolUp()
	if v := r.c.Volume(); v != volume.DefaultResetLevel+volume.DefaultStep {
		t.Errorf("Volume() = %d, want %d", v, volume.DefaultResetLevel+volume.DefaultStep)
	}
	if d := r.spk.Detents(); d != 1 {
		t.Errorf("Detents() = %d, want 1", d)
	}
	if r.sleeps != 4 {
		t.Errorf("phase sleeps = %d, want 4", r.sleeps)
	}
	if r.m.MockPin("up").Mode() != hardware.Input || r.m.MockPin("down").Mode() != hardware.Input {
		t.Error("encoder pins not released after the step")
	}
}

func TestVolDownOneDetent(t *testing.T) {
	r := newRig(t, volume.Options{})
	r.c.Reset()

	r.c.VolDown()
	if v := r.c.Volume(); v != volume.DefaultResetLevel-volume.DefaultStep {
		t.Errorf("Volume() = %d, want %d", v, volume.DefaultResetLevel-volume.DefaultStep)
	}
	if d := r.spk.Detents(); d != -1 {
		t.Errorf("Detents() = %d, want -1", d)
	}
}

func TestEstimateClampedButHardwareStillPulsed(t *testing.T) {
	r := newRig(t, volume.Options{})

	r.c.VolDown()
	if v := r.c.Volume(); v != 0 {
		t.Errorf("Volume() = %d, want 0 at the lower bound", v)
	}
	if d := r.spk.Detents(); d != -1 {
		t.Errorf("Detents() = %d, want -1 (still pulsed)", d)
	}

	r = newRig(t, volume.Options{MaxLevel: 4, ResetLevel: 4})
	r.c.Reset()
	r.c.VolUp()
	if v := r.c.Volume(); v != 4 {
		t.Errorf("Volume() = %d, want 4 at the upper bound", v)
	}
	if d := r.spk.Detents(); d != 1 {
		t.Errorf("Detents() = %d, want 1 (still pulsed)", d)
	}
}

func TestSetVolume(t *testing.T) {
	tests := []struct {
		name    string
		target  int
		want    int
		detents int
	}{
		{"reachable up", 30, 30, 5},
		{"reachable down", 10, 10, -5},
		{"same", 20, 20, 0},
		{"odd target stops short", 25, 24, 2},
		{"odd target down", 15, 16, -2},
		{"above max", 500, 100, 40},
		{"below zero", -7, 0, -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, volume.Options{})
			r.c.Reset()
			r.c.SetVolume(tt.target)
			if v := r.c.Volume(); v != tt.want {
				t.Errorf("Volume() = %d, want %d", v, tt.want)
			}
			if d := r.spk.Detents(); d != tt.detents {
				t.Errorf("Detents() = %d, want %d", d, tt.detents)
			}
		})
	}
}

func TestPhaseResyncFromIdleLevels(t *testing.T) {
	r := newRig(t, volume.Options{})
	up := r.m.MockPin("up")

	// A contact resting high is read as phase 2 before stepping.
	up.SetInput(hardware.High)
	up.ResetEvents()
	r.c.VolUp()

	var writes []hardware.Level
	for _, ev := range up.Events() {
		if ev.Write {
			writes = append(writes, ev.Level)
		}
	}
	// Resync writes phase 2 (up=High), then phases 3,0,1,2.
	want := []hardware.Level{hardware.High, hardware.Low, hardware.Low, hardware.High, hardware.High}
	if len(writes) != len(want) {
		t.Fatalf("up writes = %v, want %v", writes, want)
	}
	for i := range want {
		if writes[i] != want[i] {
			t.Errorf("up write %d = %v, want %v", i, writes[i], want[i])
		}
	}
	if p := r.c.Phase(); p != 2 {
		t.Errorf("Phase() = %d, want 2 after a full cycle", p)
	}
}
