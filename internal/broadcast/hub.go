package broadcast

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/bullsgame/internal/model"
)

// Subscriber receives the snapshots of one bound connection
type Subscriber interface {
	// Deliver queues a snapshot without blocking. It returns
	// model.ErrSlowConsumer when the subscriber cannot take another one.
	Deliver(snapshot model.Snapshot) error

	// Close disconnects the subscriber. It must not block or call back
	// into the room.
	Close()
}

// Hub fans room snapshots out to the room's bound connections.
// Publish is only called from the owning room's goroutine, so every
// subscriber sees snapshots in commit order.
type Hub struct {
	subscribers map[Subscriber]model.PlayerName
	mu          sync.RWMutex
	logger      *slog.Logger
	closed      bool
}

// NewHub creates a Hub; logger should already carry the room
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[Subscriber]model.PlayerName),
		logger:      logger.With(slog.String("component", "broadcast")),
	}
}

// Subscribe starts delivering snapshots personalised for player to sub
func (h *Hub) Subscribe(sub Subscriber, player model.PlayerName) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.Close()
		return
	}
	h.subscribers[sub] = player
	count := len(h.subscribers)
	h.mu.Unlock()

	h.logger.Info("subscriber added",
		slog.String("player", string(player)),
		slog.Int("total_subscribers", count))
}

// Unsubscribe stops delivery to sub. It reports whether sub was subscribed.
func (h *Hub) Unsubscribe(sub Subscriber) bool {
	h.mu.Lock()
	player, ok := h.subscribers[sub]
	delete(h.subscribers, sub)
	count := len(h.subscribers)
	h.mu.Unlock()

	if ok {
		h.logger.Info("subscriber removed",
			slog.String("player", string(player)),
			slog.Int("total_subscribers", count))
	}
	return ok
}

// Publish delivers the view to every subscriber, each personalised for
// its player. Subscribers that cannot keep up are evicted and closed
// rather than skipped, so a subscriber that stays subscribed never misses
// a snapshot. It returns the number of successful deliveries.
func (h *Hub) Publish(view model.RoomView) int {
	var evicted []Subscriber

	h.mu.Lock()
	sent := 0
	for sub, player := range h.subscribers {
		err := sub.Deliver(view.SnapshotFor(player))
		if err == nil {
			sent++
			continue
		}
		if !errors.Is(err, model.ErrSlowConsumer) {
			h.logger.Error("snapshot delivery failed",
				slog.String("player", string(player)),
				slog.Any("error", err))
		} else {
			h.logger.Warn("evicting slow subscriber",
				slog.String("player", string(player)))
		}
		delete(h.subscribers, sub)
		evicted = append(evicted, sub)
	}
	h.mu.Unlock()

	for _, sub := range evicted {
		sub.Close()
	}
	return sent
}

// Count returns the number of subscribers
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber. Later subscriptions are closed
// immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]Subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	clear(h.subscribers)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	h.logger.Info("hub closed", slog.Int("disconnected_subscribers", len(subs)))
}
