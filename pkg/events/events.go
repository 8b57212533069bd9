package events

import (
	"context"
	"time"
)

const (
	TypeBetPlaced     = "bet.placed"
	TypeBetSettled    = "bet.settled"
	TypeResultsSynced = "results.synced"
)

// Event is the envelope fanned out to websocket clients and the message bus.
type Event struct {
	Type    string      `json:"type"`
	Key     string      `json:"key"`
	Payload interface{} `json:"payload"`
	Ts      time.Time   `json:"ts"`
	// UserID scopes delivery to one user's sockets; zero broadcasts.
	UserID int64 `json:"user_id,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

func New(eventType, key string, payload interface{}) Event {
	return Event{Type: eventType, Key: key, Payload: payload, Ts: time.Now().UTC()}
}

// ForUser builds an event only the given user's live connections receive.
func ForUser(userID int64, eventType, key string, payload interface{}) Event {
	e := New(eventType, key, payload)
	e.UserID = userID
	return e
}

type nop struct{}

func (nop) Publish(context.Context, Event) error { return nil }

// Nop discards every event.
func Nop() Publisher { return nop{} }

// Multi delivers to every sink and returns the first error seen; one failing
// sink does not stop delivery to the others.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var first error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
