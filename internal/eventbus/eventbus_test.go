package eventbus

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	defer bus.Close()

	a := bus.Subscribe(4)
	b := bus.Subscribe(4)

	bus.Publish("hello")

	for _, sub := range []<-chan Event{a, b} {
		select {
		case e := <-sub:
			if e != "hello" {
				t.Fatalf("expected hello got %v", e)
			}
		case <-time.After(time.Second):
			t.Fatalf("event not delivered")
		}
	}
}

func TestBus_SlowSubscriberDropsEvents(t *testing.T) {
	bus := New()
	defer bus.Close()

	sub := bus.Subscribe(1)
	bus.Publish(1)
	bus.Publish(2)
	bus.Publish(3)

	if got := bus.Dropped(sub); got != 2 {
		t.Fatalf("expected 2 dropped got %d", got)
	}
	if e := <-sub; e != 1 {
		t.Fatalf("expected first event got %v", e)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	defer bus.Close()

	sub := bus.Subscribe(1)
	bus.Unsubscribe(sub)

	if _, open := <-sub; open {
		t.Fatalf("channel must be closed after unsubscribe")
	}
	bus.Publish("after") // must not panic
}

func TestBus_Close(t *testing.T) {
	bus := New()
	sub := bus.Subscribe(1)
	bus.Close()

	if _, open := <-sub; open {
		t.Fatalf("channel must be closed after bus close")
	}
	bus.Publish("late") // ignored
	bus.Close()         // idempotent

	late := bus.Subscribe(1)
	if _, open := <-late; open {
		t.Fatalf("subscribing on a closed bus must return a closed channel")
	}
}
