package ws

import (
	"context"
	"sync"

	"f1-penca/pkg/events"
	"f1-penca/pkg/logger"

	"go.uber.org/zap"
)

const outboundBuffer = 32

type Subscription struct {
	userID int64
	ch     chan events.Event
}

// Hub fans domain events out to connected websocket clients. It satisfies
// events.Publisher so services publish to it like any other sink.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

func (h *Hub) Subscribe(userID int64) *Subscription {
	sub := &Subscription{userID: userID, ch: make(chan events.Event, outboundBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
	h.mu.Unlock()
}

// Publish never blocks on a slow client; its event is dropped instead.
func (h *Hub) Publish(_ context.Context, e events.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if e.UserID != 0 && e.UserID != sub.userID {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			logger.Log.Warn("ws client too slow, event dropped",
				zap.Int64("userID", sub.userID),
				zap.String("type", e.Type))
		}
	}
	return nil
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
