package testutil

import (
	"context"
	"testing"

	"pickleball-score-service/internal/app/match"
	"pickleball-score-service/internal/domain"
	"pickleball-score-service/internal/notify"
	"pickleball-score-service/internal/store"
)

// NewServiceWithMatch builds a match service backed by an in-memory store
// preloaded with the given match, plus the hub it publishes to.
func NewServiceWithMatch(t *testing.T, m domain.MatchState) (*match.Service, store.Store, *notify.Hub) {
	t.Helper()
	ms := store.NewMemoryStore()
	if m.ID != "" {
		if err := ms.UpsertMatch(context.Background(), m); err != nil {
			t.Fatalf("seed match: %v", err)
		}
	}
	hub := notify.NewHub()
	return match.NewService(ms, hub, nil, nil, nil), ms, hub
}
