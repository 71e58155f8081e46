package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New()
	ch, unsub := bus.Subscribe(4)
	defer unsub()

	bus.Publish(Event{Type: "webhook.sent", Time: time.Now()})
	select {
	case e := <-ch:
		if e.Type != "webhook.sent" {
			t.Fatalf("type = %q", e.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	bus := New()
	_, unsub := bus.Subscribe(1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(Event{Type: "x"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New()
	ch, unsub := bus.Subscribe(1)
	unsub()
	bus.Publish(Event{Type: "x"})
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
}
