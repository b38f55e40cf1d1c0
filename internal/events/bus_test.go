package events_test

import (
	"testing"
	"time"

	"github.com/eneby-bridge/eneby-go/internal/events"
	"github.com/eneby-bridge/eneby-go/internal/models"
)

func TestBusSubscribePublish(t *testing.T) {
	bus := events.NewBus()

	ch := bus.Subscribe("test1")
	bus.Publish(models.DeviceState{ID: "ENEBY-1", Power: "on", Volume: 20})

	select {
	case got := <-ch:
		if got.Power != "on" || got.Volume != 20 {
			t.Errorf("got %+v, want power on volume 20", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusSubscribeStartsEmpty(t *testing.T) {
	bus := events.NewBus()
	bus.Publish(models.DeviceState{Volume: 4})
	bus.Publish(models.DeviceState{Volume: 6})

	ch := bus.Subscribe("late")
	select {
	case got := <-ch:
		t.Fatalf("late subscriber received %+v before any new publish", got)
	default:
	}

	last, ok := bus.Last()
	if !ok || last.Volume != 6 {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := events.NewBus()
	ch := bus.Subscribe("test-unsub")

	bus.Unsubscribe("test-unsub")

	// Channel should be closed
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed after unsubscribe")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestBusDropsEventsWhenFull(t *testing.T) {
	bus := events.NewBus()
	bus.Subscribe("slow-reader")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			bus.Publish(models.DeviceState{Volume: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Publish blocked for too long (should drop events)")
	}

	bus.Unsubscribe("slow-reader")
}

func TestBusSubscriberCount(t *testing.T) {
	bus := events.NewBus()
	if n := bus.SubscriberCount(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
	bus.Subscribe("s1")
	bus.Subscribe("s2")
	if n := bus.SubscriberCount(); n != 2 {
		t.Errorf("expected 2 subscribers, got %d", n)
	}
	bus.Unsubscribe("s1")
	if n := bus.SubscriberCount(); n != 1 {
		t.Errorf("expected 1 subscriber, got %d", n)
	}
}
