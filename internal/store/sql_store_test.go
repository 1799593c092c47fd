package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"pickleball-score-service/internal/domain"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s := NewSQLStore(db, "sqlite")
	if err := s.CreateSchema(context.Background()); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return s
}

func TestSQLStoreMatchRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	if _, err := s.GetMatch(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	started := time.Date(2026, 8, 1, 18, 30, 0, 0, time.UTC)
	want := domain.MatchState{
		ID:          "m1",
		OwnerID:     "owner-1",
		TeamAName:   "Ospreys",
		TeamBName:   "Herons",
		BestOf:      5,
		CurrentGame: 2,
		Rules: domain.GameRules{
			FirstToPoints: 11,
			WinBy:         2,
			PointCap:      15,
			ScoringMode:   domain.ModeRally,
			WinOnServe:    true,
		},
		StartingServer:  1,
		Status:          domain.StatusInProgress,
		ActiveOverlay:   true,
		IsGamePoint:     true,
		StartedAt:       started,
		DurationSeconds: 0,
		Seq:             7,
	}
	if err := s.UpsertMatch(ctx, want); err != nil {
		t.Fatalf("upsert match: %v", err)
	}

	got, err := s.GetMatch(ctx, "m1")
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if !got.StartedAt.Equal(want.StartedAt) {
		t.Fatalf("started_at mismatch: %v vs %v", got.StartedAt, want.StartedAt)
	}
	got.StartedAt = want.StartedAt
	if got != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	// Upsert replaces in place.
	want.Seq = 8
	want.Status = domain.StatusCompleted
	if err := s.UpsertMatch(ctx, want); err != nil {
		t.Fatalf("upsert match again: %v", err)
	}
	got, err = s.GetMatch(ctx, "m1")
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if got.Seq != 8 || got.Status != domain.StatusCompleted {
		t.Fatalf("expected updated row, got %+v", got)
	}
}

func TestSQLStoreSetActiveMatch(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	for _, id := range []string{"m1", "m2"} {
		m := domain.MatchState{ID: id, OwnerID: "owner-1", BestOf: 3, CurrentGame: 1, Rules: domain.DefaultRules(), Status: domain.StatusInProgress, Seq: 1}
		if err := s.UpsertMatch(ctx, m); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	if err := s.SetActiveMatch(ctx, "owner-1", "m1"); err != nil {
		t.Fatalf("set active: %v", err)
	}
	if err := s.SetActiveMatch(ctx, "owner-1", "m2"); err != nil {
		t.Fatalf("flip active: %v", err)
	}

	active, err := s.GetActiveMatch(ctx, "owner-1")
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.ID != "m2" {
		t.Fatalf("expected m2 active, got %s", active.ID)
	}
	m1, _ := s.GetMatch(ctx, "m1")
	if m1.ActiveOverlay {
		t.Fatalf("expected m1 deactivated")
	}

	if err := s.SetActiveMatch(ctx, "owner-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetActiveMatch(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown owner, got %v", err)
	}
}

func TestSQLStoreGetActiveMatchRepairsDuplicates(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	for i, id := range []string{"m1", "m2"} {
		m := domain.MatchState{ID: id, OwnerID: "owner-1", BestOf: 3, CurrentGame: 1, Rules: domain.DefaultRules(), ActiveOverlay: true, Seq: int64(i + 1)}
		if err := s.UpsertMatch(ctx, m); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	active, err := s.GetActiveMatch(ctx, "owner-1")
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.ID != "m2" {
		t.Fatalf("expected highest-seq match, got %s", active.ID)
	}
	m1, _ := s.GetMatch(ctx, "m1")
	if m1.ActiveOverlay {
		t.Fatalf("expected duplicate flag repaired")
	}
}

func TestSQLStoreGames(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	m := domain.MatchState{ID: "m1", OwnerID: "owner-1", BestOf: 3, CurrentGame: 1, Rules: domain.DefaultRules(), Seq: 1}
	if err := s.UpsertMatch(ctx, m); err != nil {
		t.Fatalf("seed match: %v", err)
	}

	want := domain.GameState{
		ID:              "g1",
		MatchID:         "m1",
		GameNumber:      1,
		Rules:           domain.DefaultRules(),
		TeamAScore:      10,
		TeamBScore:      8,
		TeamAGamePoints: 1,
		Server:          2,
		Latch:           domain.LatchAwaitingSideOut,
		SideOutCount:    4,
		Winner:          domain.TeamNone,
		Seq:             19,
	}
	if err := s.UpsertGame(ctx, want); err != nil {
		t.Fatalf("upsert game: %v", err)
	}

	got, err := s.GetGame(ctx, "m1", 1)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	// Same match/number upserts in place.
	want.TeamAScore = 11
	want.Completed = true
	want.Winner = domain.TeamA
	if err := s.UpsertGame(ctx, want); err != nil {
		t.Fatalf("upsert game again: %v", err)
	}
	games, err := s.ListGames(ctx, "m1")
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(games) != 1 || !games[0].Completed || games[0].Winner != domain.TeamA {
		t.Fatalf("expected single updated game, got %+v", games)
	}

	if err := s.DeleteGames(ctx, []string{"g1"}); err != nil {
		t.Fatalf("delete games: %v", err)
	}
	if _, err := s.GetGame(ctx, "m1", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected game deleted, got %v", err)
	}
	if err := s.DeleteGames(ctx, nil); err != nil {
		t.Fatalf("empty delete should no-op, got %v", err)
	}
}

func TestSQLStoreTokens(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	if _, err := s.ResolveToken(ctx, "tok"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetOwnerToken(ctx, "owner-1", "tok-1"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if err := s.SetOwnerToken(ctx, "owner-1", "tok-2"); err != nil {
		t.Fatalf("replace token: %v", err)
	}
	token, err := s.OwnerToken(ctx, "owner-1")
	if err != nil || token != "tok-2" {
		t.Fatalf("owner token = %q, %v", token, err)
	}
	owner, err := s.ResolveToken(ctx, "tok-2")
	if err != nil || owner != "owner-1" {
		t.Fatalf("resolve = %q, %v", owner, err)
	}
	if _, err := s.OwnerToken(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestPlaceholderRebindForPostgres(t *testing.T) {
	pg := NewSQLStore(nil, "postgres")
	got := pg.q(`SELECT id FROM matches WHERE owner_id = ? AND active_overlay = ?`)
	want := `SELECT id FROM matches WHERE owner_id = $1 AND active_overlay = $2`
	if got != want {
		t.Fatalf("rebind = %q, want %q", got, want)
	}

	lite := NewSQLStore(nil, "sqlite")
	query := `SELECT id FROM matches WHERE id = ?`
	if lite.q(query) != query {
		t.Fatalf("sqlite queries must pass through untouched")
	}
}
