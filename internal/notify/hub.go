// Package notify fans out change events to overlay viewers. Delivery is
// at-least-once: a slow subscriber gets a coalesced wakeup rather than a
// backlog, so consumers must reload the latest snapshot per event instead of
// applying events as deltas.
package notify

import (
	"sync"
)

// EntityKind names what changed.
type EntityKind string

const (
	KindMatch EntityKind = "match"
	KindGame  EntityKind = "game"
	// KindSync is a periodic nudge for lossy consumers; nothing changed,
	// re-render the current snapshot.
	KindSync EntityKind = "sync"
)

// Event identifies a changed entity within a match.
type Event struct {
	Kind    EntityKind `json:"kind"`
	ID      string     `json:"id"`
	MatchID string     `json:"match_id"`
	Seq     int64      `json:"seq"`
}

// Subscription receives events for one match until cancelled.
type Subscription struct {
	C chan Event

	hub     *Hub
	matchID string
	once    sync.Once
}

// Cancel detaches the subscription and closes its channel.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.remove(s.matchID, s)
		close(s.C)
	})
}

// Hub routes events to per-match subscriber sets.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

const subscriptionBuffer = 8

// Subscribe registers a listener for the given match.
func (h *Hub) Subscribe(matchID string) *Subscription {
	sub := &Subscription{
		C:       make(chan Event, subscriptionBuffer),
		hub:     h,
		matchID: matchID,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[matchID] == nil {
		h.subs[matchID] = make(map[*Subscription]struct{})
	}
	h.subs[matchID][sub] = struct{}{}
	return sub
}

// Publish delivers an event to every subscriber of its match without
// blocking. When a subscriber's buffer is full the event is dropped; the
// pending buffered events already force a snapshot reload, so the drop
// coalesces rather than loses state.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[ev.MatchID] {
		select {
		case sub.C <- ev:
		default:
		}
	}
}

// SubscribedMatches lists the match IDs that currently have listeners.
func (h *Hub) SubscribedMatches() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	return ids
}

// SubscriberCount reports listeners for a match, for tests and metrics.
func (h *Hub) SubscriberCount(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[matchID])
}

func (h *Hub) remove(matchID string, sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.subs[matchID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, matchID)
		}
	}
}
