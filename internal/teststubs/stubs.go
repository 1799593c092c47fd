package teststubs

import (
	"context"
	"sync"
	"sync/atomic"

	"pickleball-score-service/internal/domain"
	"pickleball-score-service/internal/store"
)

// StubStore is a test double for store.Store. Zero value behaves as an empty
// store; Err (or the per-op overrides) injects failures, Calls counts every
// method invocation.
type StubStore struct {
	mu sync.Mutex

	Matches map[string]domain.MatchState
	Games   map[string][]domain.GameState // keyed by match id
	Tokens  map[string]string             // token -> owner id

	Err        error
	GetErr     error
	UpsertErr  error
	DeleteErr  error
	PingErr    error
	FailsLeft  int // when >0, the next FailsLeft calls return Err then succeed
	Calls      atomic.Int32
	Deleted    []string
	LastUpsert domain.MatchState
}

func (s *StubStore) injected(override error) error {
	s.Calls.Add(1)
	if override != nil {
		return override
	}
	if s.Err == nil {
		return nil
	}
	if s.FailsLeft > 0 {
		s.FailsLeft--
		err := s.Err
		if s.FailsLeft == 0 {
			s.Err = nil
		}
		return err
	}
	return s.Err
}

func (s *StubStore) GetMatch(ctx context.Context, id string) (domain.MatchState, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(s.GetErr); err != nil {
		return domain.MatchState{}, err
	}
	m, ok := s.Matches[id]
	if !ok {
		return domain.MatchState{}, store.ErrNotFound
	}
	return m, nil
}

func (s *StubStore) GetActiveMatch(ctx context.Context, ownerID string) (domain.MatchState, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(s.GetErr); err != nil {
		return domain.MatchState{}, err
	}
	for _, m := range s.Matches {
		if m.OwnerID == ownerID && m.ActiveOverlay {
			return m, nil
		}
	}
	return domain.MatchState{}, store.ErrNotFound
}

func (s *StubStore) ListMatches(ctx context.Context, ownerID string) ([]domain.MatchState, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(s.GetErr); err != nil {
		return nil, err
	}
	var out []domain.MatchState
	for _, m := range s.Matches {
		if ownerID == "" || m.OwnerID == ownerID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *StubStore) UpsertMatch(ctx context.Context, m domain.MatchState) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(s.UpsertErr); err != nil {
		return err
	}
	if s.Matches == nil {
		s.Matches = make(map[string]domain.MatchState)
	}
	s.Matches[m.ID] = m
	s.LastUpsert = m
	return nil
}

func (s *StubStore) SetActiveMatch(ctx context.Context, ownerID, matchID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(s.UpsertErr); err != nil {
		return err
	}
	if _, ok := s.Matches[matchID]; !ok {
		return store.ErrNotFound
	}
	for id, m := range s.Matches {
		if m.OwnerID != ownerID {
			continue
		}
		m.ActiveOverlay = id == matchID
		s.Matches[id] = m
	}
	return nil
}

func (s *StubStore) GetGame(ctx context.Context, matchID string, gameNumber int) (domain.GameState, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(s.GetErr); err != nil {
		return domain.GameState{}, err
	}
	for _, g := range s.Games[matchID] {
		if g.GameNumber == gameNumber {
			return g, nil
		}
	}
	return domain.GameState{}, store.ErrNotFound
}

func (s *StubStore) ListGames(ctx context.Context, matchID string) ([]domain.GameState, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(s.GetErr); err != nil {
		return nil, err
	}
	return append([]domain.GameState(nil), s.Games[matchID]...), nil
}

func (s *StubStore) UpsertGame(ctx context.Context, g domain.GameState) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(s.UpsertErr); err != nil {
		return err
	}
	if s.Games == nil {
		s.Games = make(map[string][]domain.GameState)
	}
	games := s.Games[g.MatchID]
	for i, existing := range games {
		if existing.GameNumber == g.GameNumber {
			games[i] = g
			return nil
		}
	}
	s.Games[g.MatchID] = append(games, g)
	return nil
}

func (s *StubStore) DeleteGames(ctx context.Context, ids []string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(s.DeleteErr); err != nil {
		return err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	for matchID, games := range s.Games {
		kept := games[:0]
		for _, g := range games {
			if drop[g.ID] {
				s.Deleted = append(s.Deleted, g.ID)
				continue
			}
			kept = append(kept, g)
		}
		s.Games[matchID] = kept
	}
	return nil
}

func (s *StubStore) ResolveToken(ctx context.Context, token string) (string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(s.GetErr); err != nil {
		return "", err
	}
	owner, ok := s.Tokens[token]
	if !ok {
		return "", store.ErrNotFound
	}
	return owner, nil
}

func (s *StubStore) SetOwnerToken(ctx context.Context, ownerID, token string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(s.UpsertErr); err != nil {
		return err
	}
	if s.Tokens == nil {
		s.Tokens = make(map[string]string)
	}
	s.Tokens[token] = ownerID
	return nil
}

func (s *StubStore) OwnerToken(ctx context.Context, ownerID string) (string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(s.GetErr); err != nil {
		return "", err
	}
	for token, owner := range s.Tokens {
		if owner == ownerID {
			return token, nil
		}
	}
	return "", store.ErrNotFound
}

func (s *StubStore) Ping(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.injected(s.PingErr)
}
