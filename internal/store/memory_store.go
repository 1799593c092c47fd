package store

import (
	"context"
	"sort"
	"sync"

	"pickleball-score-service/internal/domain"
)

// MemoryStore keeps thread-safe match/game state in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	matches map[string]domain.MatchState
	games   map[string]map[int]domain.GameState // matchID → gameNumber → state
	tokens  map[string]string                   // token → ownerID
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matches: make(map[string]domain.MatchState),
		games:   make(map[string]map[int]domain.GameState),
		tokens:  make(map[string]string),
	}
}

// GetMatch retrieves a match by ID.
func (s *MemoryStore) GetMatch(_ context.Context, id string) (domain.MatchState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return domain.MatchState{}, ErrNotFound
	}
	return m, nil
}

// GetActiveMatch returns the owner's currently active match. If more than
// one match is flagged active the highest-seq one wins and the rest are
// repaired in place.
func (s *MemoryStore) GetActiveMatch(_ context.Context, ownerID string) (domain.MatchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []domain.MatchState
	for _, m := range s.matches {
		if m.OwnerID == ownerID && m.ActiveOverlay {
			active = append(active, m)
		}
	}
	if len(active) == 0 {
		return domain.MatchState{}, ErrNotFound
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Seq > active[j].Seq })
	for _, stale := range active[1:] {
		stale.ActiveOverlay = false
		s.matches[stale.ID] = stale
	}
	return active[0], nil
}

// ListMatches returns the owner's matches ordered by ID.
func (s *MemoryStore) ListMatches(_ context.Context, ownerID string) ([]domain.MatchState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.MatchState, 0)
	for _, m := range s.matches {
		if m.OwnerID == ownerID {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// UpsertMatch stores the match snapshot.
func (s *MemoryStore) UpsertMatch(_ context.Context, m domain.MatchState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.matches[m.ID] = m
	return nil
}

// SetActiveMatch flips the active overlay flag to the target match and off
// every other match of the same owner, under one lock.
func (s *MemoryStore) SetActiveMatch(_ context.Context, ownerID, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.matches[matchID]
	if !ok || target.OwnerID != ownerID {
		return ErrNotFound
	}
	for id, m := range s.matches {
		if m.OwnerID != ownerID {
			continue
		}
		m.ActiveOverlay = id == matchID
		s.matches[id] = m
	}
	return nil
}

// GetGame retrieves one game of a match.
func (s *MemoryStore) GetGame(_ context.Context, matchID string, gameNumber int) (domain.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[matchID][gameNumber]
	if !ok {
		return domain.GameState{}, ErrNotFound
	}
	return g, nil
}

// ListGames returns a match's games ordered by game number.
func (s *MemoryStore) ListGames(_ context.Context, matchID string) ([]domain.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.GameState, 0, len(s.games[matchID]))
	for _, g := range s.games[matchID] {
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].GameNumber < result[j].GameNumber })
	return result, nil
}

// UpsertGame stores the game snapshot.
func (s *MemoryStore) UpsertGame(_ context.Context, g domain.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.games[g.MatchID] == nil {
		s.games[g.MatchID] = make(map[int]domain.GameState)
	}
	s.games[g.MatchID][g.GameNumber] = g
	return nil
}

// DeleteGames removes games by ID across all matches.
func (s *MemoryStore) DeleteGames(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	for matchID, games := range s.games {
		for n, g := range games {
			if drop[g.ID] {
				delete(games, n)
			}
		}
		if len(games) == 0 {
			delete(s.games, matchID)
		}
	}
	return nil
}

// ResolveToken maps an overlay token to its owner.
func (s *MemoryStore) ResolveToken(_ context.Context, token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.tokens[token]
	if !ok {
		return "", ErrNotFound
	}
	return owner, nil
}

// SetOwnerToken registers (or replaces) the owner's overlay token.
func (s *MemoryStore) SetOwnerToken(_ context.Context, ownerID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for t, o := range s.tokens {
		if o == ownerID {
			delete(s.tokens, t)
		}
	}
	s.tokens[token] = ownerID
	return nil
}

// OwnerToken returns the owner's overlay token if one is registered.
func (s *MemoryStore) OwnerToken(_ context.Context, ownerID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for t, o := range s.tokens {
		if o == ownerID {
			return t, nil
		}
	}
	return "", ErrNotFound
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(context.Context) error { return nil }
