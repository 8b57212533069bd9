package ws

import (
	"context"
	"testing"

	"f1-penca/pkg/events"
)

func TestHubScopesUserEvents(t *testing.T) {
	hub := NewHub()
	alice := hub.Subscribe(1)
	bob := hub.Subscribe(2)
	defer hub.Unsubscribe(alice)
	defer hub.Unsubscribe(bob)

	if err := hub.Publish(context.Background(), events.ForUser(1, events.TypeBetPlaced, "10", nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := hub.Publish(context.Background(), events.New(events.TypeResultsSynced, "run", nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if got := len(alice.ch); got != 2 {
		t.Fatalf("expected alice to receive 2 events, got %d", got)
	}
	if got := len(bob.ch); got != 1 {
		t.Fatalf("expected bob to receive only the broadcast, got %d", got)
	}
	if e := <-bob.ch; e.Type != events.TypeResultsSynced {
		t.Fatalf("unexpected event for bob: %s", e.Type)
	}
}

func TestHubDropsWhenClientIsSlow(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(1)
	defer hub.Unsubscribe(sub)

	for i := 0; i < outboundBuffer+5; i++ {
		_ = hub.Publish(context.Background(), events.New(events.TypeResultsSynced, "run", nil))
	}
	if got := len(sub.ch); got != outboundBuffer {
		t.Fatalf("expected buffer to cap at %d, got %d", outboundBuffer, got)
	}
}

func TestHubUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(1)
	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)
	if hub.Count() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.Count())
	}
}
