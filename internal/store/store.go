// Package store defines how match and game state is persisted. The scoring
// core is storage-agnostic; implementations here cover an in-memory map
// (tests, single-node dev) and database/sql (SQLite or Postgres).
package store

import (
	"context"
	"errors"
	"fmt"

	"pickleball-score-service/internal/domain"
)

// ErrNotFound is returned when a match, game, or token does not exist.
var ErrNotFound = errors.New("not found")

// StoreError wraps persistence failures so callers can treat any backend
// problem uniformly and decide to retry or roll back.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// AsStoreError attempts to unwrap an error into a StoreError.
func AsStoreError(err error) (*StoreError, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Store is the persistence contract for match and game snapshots.
// Implementations must make SetActiveMatch atomic: at no observable point
// may an owner have zero or more than one active match (beyond the update
// itself), and reads should repair any violation they find.
type Store interface {
	GetMatch(ctx context.Context, id string) (domain.MatchState, error)
	GetActiveMatch(ctx context.Context, ownerID string) (domain.MatchState, error)
	ListMatches(ctx context.Context, ownerID string) ([]domain.MatchState, error)
	UpsertMatch(ctx context.Context, m domain.MatchState) error
	SetActiveMatch(ctx context.Context, ownerID, matchID string) error

	GetGame(ctx context.Context, matchID string, gameNumber int) (domain.GameState, error)
	ListGames(ctx context.Context, matchID string) ([]domain.GameState, error)
	UpsertGame(ctx context.Context, g domain.GameState) error
	DeleteGames(ctx context.Context, ids []string) error

	// ResolveToken maps an opaque public overlay token to its owner.
	ResolveToken(ctx context.Context, token string) (string, error)
	SetOwnerToken(ctx context.Context, ownerID, token string) error
	OwnerToken(ctx context.Context, ownerID string) (string, error)

	// Ping reports backend reachability, for readiness probes.
	Ping(ctx context.Context) error
}
