// Package overlay serves the public, read-only broadcast view: an opaque
// token resolves to an owner's currently active match, and viewers consume
// whole snapshots keyed by a sequence number.
package overlay

import (
	"context"
	"log/slog"

	"pickleball-score-service/internal/domain"
	"pickleball-score-service/internal/notify"
	"pickleball-score-service/internal/store"
)

// Snapshot is the full overlay payload for one render. Viewers discard any
// snapshot whose seq is lower than the last one shown; re-applying the same
// snapshot is a no-op.
type Snapshot struct {
	Match      domain.MatchState `json:"match"`
	Game       domain.GameState  `json:"game"`
	TeamAGames int               `json:"team_a_games"`
	TeamBGames int               `json:"team_b_games"`
	Seq        int64             `json:"seq"`
}

// Service resolves overlay tokens and builds snapshots.
type Service struct {
	store  store.Store
	hub    *notify.Hub
	logger *slog.Logger
}

// NewService constructs an overlay Service.
func NewService(st store.Store, hub *notify.Hub, logger *slog.Logger) *Service {
	return &Service{store: st, hub: hub, logger: logger}
}

// Resolve maps a public token to the owning account's active match.
func (s *Service) Resolve(ctx context.Context, token string) (domain.MatchState, error) {
	ownerID, err := s.store.ResolveToken(ctx, token)
	if err != nil {
		return domain.MatchState{}, err
	}
	return s.store.GetActiveMatch(ctx, ownerID)
}

// SnapshotFor builds the current overlay snapshot for a token.
func (s *Service) SnapshotFor(ctx context.Context, token string) (Snapshot, error) {
	m, err := s.Resolve(ctx, token)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshotOf(ctx, m)
}

// SnapshotForMatch rebuilds the snapshot for an already-resolved match;
// used by the stream loop on each change event.
func (s *Service) SnapshotForMatch(ctx context.Context, matchID string) (Snapshot, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshotOf(ctx, m)
}

// Subscribe attaches a listener for the match backing the snapshot stream.
func (s *Service) Subscribe(matchID string) *notify.Subscription {
	return s.hub.Subscribe(matchID)
}

func (s *Service) snapshotOf(ctx context.Context, m domain.MatchState) (Snapshot, error) {
	games, err := s.store.ListGames(ctx, m.ID)
	if err != nil {
		return Snapshot{}, err
	}

	var current domain.GameState
	seq := m.Seq
	for _, g := range games {
		if g.GameNumber == m.CurrentGame {
			current = g
		}
		if g.Seq > seq {
			seq = g.Seq
		}
	}
	teamA, teamB := domain.GamesWon(games)

	return Snapshot{
		Match:      m,
		Game:       current,
		TeamAGames: teamA,
		TeamBGames: teamB,
		Seq:        seq,
	}, nil
}
