package teststubs

import (
	"context"
	"errors"
	"testing"

	"pickleball-score-service/internal/domain"
	"pickleball-score-service/internal/store"
)

func TestStubStoreMatchRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := &StubStore{}

	m := domain.MatchState{ID: "m1", OwnerID: "o1", TeamAName: "A", TeamBName: "B"}
	if err := s.UpsertMatch(ctx, m); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if s.LastUpsert.ID != "m1" {
		t.Fatalf("expected last upsert tracked, got %+v", s.LastUpsert)
	}

	got, err := s.GetMatch(ctx, "m1")
	if err != nil || got.TeamAName != "A" {
		t.Fatalf("expected stored match, got %+v err %v", got, err)
	}
	if _, err := s.GetMatch(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if s.Calls.Load() != 3 {
		t.Fatalf("expected 3 calls counted, got %d", s.Calls.Load())
	}
}

func TestStubStoreActiveMatch(t *testing.T) {
	ctx := context.Background()
	s := &StubStore{}
	_ = s.UpsertMatch(ctx, domain.MatchState{ID: "m1", OwnerID: "o1", ActiveOverlay: true})
	_ = s.UpsertMatch(ctx, domain.MatchState{ID: "m2", OwnerID: "o1"})

	if err := s.SetActiveMatch(ctx, "o1", "m2"); err != nil {
		t.Fatalf("set active: %v", err)
	}
	active, err := s.GetActiveMatch(ctx, "o1")
	if err != nil || active.ID != "m2" {
		t.Fatalf("expected m2 active, got %+v err %v", active, err)
	}
	if m1, _ := s.GetMatch(ctx, "m1"); m1.ActiveOverlay {
		t.Fatalf("expected m1 deactivated")
	}
	if err := s.SetActiveMatch(ctx, "o1", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for unknown match, got %v", err)
	}
}

func TestStubStoreGames(t *testing.T) {
	ctx := context.Background()
	s := &StubStore{}
	_ = s.UpsertGame(ctx, domain.GameState{ID: "g1", MatchID: "m1", GameNumber: 1})
	_ = s.UpsertGame(ctx, domain.GameState{ID: "g2", MatchID: "m1", GameNumber: 2})
	_ = s.UpsertGame(ctx, domain.GameState{ID: "g1", MatchID: "m1", GameNumber: 1, TeamAScore: 5})

	games, err := s.ListGames(ctx, "m1")
	if err != nil || len(games) != 2 {
		t.Fatalf("expected 2 games, got %d err %v", len(games), err)
	}
	g, err := s.GetGame(ctx, "m1", 1)
	if err != nil || g.TeamAScore != 5 {
		t.Fatalf("expected upsert in place, got %+v err %v", g, err)
	}

	if err := s.DeleteGames(ctx, []string{"g2"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(s.Deleted) != 1 || s.Deleted[0] != "g2" {
		t.Fatalf("expected g2 recorded as deleted, got %v", s.Deleted)
	}
	if _, err := s.GetGame(ctx, "m1", 2); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected g2 gone, got %v", err)
	}
}

func TestStubStoreTokens(t *testing.T) {
	ctx := context.Background()
	s := &StubStore{}
	if err := s.SetOwnerToken(ctx, "o1", "tok-1"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	owner, err := s.ResolveToken(ctx, "tok-1")
	if err != nil || owner != "o1" {
		t.Fatalf("expected owner o1, got %q err %v", owner, err)
	}
	tok, err := s.OwnerToken(ctx, "o1")
	if err != nil || tok != "tok-1" {
		t.Fatalf("expected tok-1, got %q err %v", tok, err)
	}
	if _, err := s.ResolveToken(ctx, "bogus"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStubStoreErrorInjection(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	s := &StubStore{Err: boom}
	if err := s.Ping(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}

	// Per-op overrides win over the blanket error.
	override := errors.New("get failed")
	s = &StubStore{Err: boom, GetErr: override}
	if _, err := s.GetMatch(ctx, "m1"); !errors.Is(err, override) {
		t.Fatalf("expected override error, got %v", err)
	}
	if err := s.UpsertMatch(ctx, domain.MatchState{ID: "m1"}); !errors.Is(err, boom) {
		t.Fatalf("expected blanket error for upsert, got %v", err)
	}
}

func TestStubStoreFailsLeftRecovers(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("transient")

	s := &StubStore{Err: boom, FailsLeft: 2}
	for i := 0; i < 2; i++ {
		if err := s.Ping(ctx); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected failure, got %v", i, err)
		}
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("expected recovery after failures, got %v", err)
	}
}
