package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pickleball-score-service/internal/domain"
	"pickleball-score-service/internal/logging"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
)

type backoffFunc func(attempt int) time.Duration

// retryingStore wraps a Store with retry/backoff on transient backend
// failures. Domain outcomes (ErrNotFound) pass through untouched.
type retryingStore struct {
	inner       Store
	logger      *slog.Logger
	maxAttempts int
	backoffFn   backoffFunc
}

// NewRetryingStore wraps the given store with retries. If maxAttempts/backoff are <= 0, defaults are used.
func NewRetryingStore(inner Store, logger *slog.Logger, maxAttempts int, backoff time.Duration) Store {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &retryingStore{
		inner:       inner,
		logger:      logger,
		maxAttempts: maxAttempts,
		backoffFn: func(attempt int) time.Duration {
			return time.Duration(attempt) * backoff
		},
	}
}

func (r *retryingStore) do(ctx context.Context, op string, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := fn()
		if err == nil || !retryable(err) {
			return err
		}
		lastErr = err

		if attempt == r.maxAttempts {
			break
		}

		r.logWarn(ctx, "store call retry", "op", op, "attempt", attempt, "max_attempts", r.maxAttempts, "err", err)

		delay := r.backoffFn(attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	r.logWarn(ctx, "store call failed", "op", op, "attempts", r.maxAttempts, "err", lastErr)
	return lastErr
}

// retryable treats only wrapped StoreErrors as transient.
func retryable(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return false
	}
	_, ok := AsStoreError(err)
	return ok
}

func (r *retryingStore) GetMatch(ctx context.Context, id string) (domain.MatchState, error) {
	var m domain.MatchState
	err := r.do(ctx, "get match", func() error {
		var err error
		m, err = r.inner.GetMatch(ctx, id)
		return err
	})
	return m, err
}

func (r *retryingStore) GetActiveMatch(ctx context.Context, ownerID string) (domain.MatchState, error) {
	var m domain.MatchState
	err := r.do(ctx, "get active match", func() error {
		var err error
		m, err = r.inner.GetActiveMatch(ctx, ownerID)
		return err
	})
	return m, err
}

func (r *retryingStore) ListMatches(ctx context.Context, ownerID string) ([]domain.MatchState, error) {
	var ms []domain.MatchState
	err := r.do(ctx, "list matches", func() error {
		var err error
		ms, err = r.inner.ListMatches(ctx, ownerID)
		return err
	})
	return ms, err
}

func (r *retryingStore) UpsertMatch(ctx context.Context, m domain.MatchState) error {
	return r.do(ctx, "upsert match", func() error {
		return r.inner.UpsertMatch(ctx, m)
	})
}

func (r *retryingStore) SetActiveMatch(ctx context.Context, ownerID, matchID string) error {
	return r.do(ctx, "set active match", func() error {
		return r.inner.SetActiveMatch(ctx, ownerID, matchID)
	})
}

func (r *retryingStore) GetGame(ctx context.Context, matchID string, gameNumber int) (domain.GameState, error) {
	var g domain.GameState
	err := r.do(ctx, "get game", func() error {
		var err error
		g, err = r.inner.GetGame(ctx, matchID, gameNumber)
		return err
	})
	return g, err
}

func (r *retryingStore) ListGames(ctx context.Context, matchID string) ([]domain.GameState, error) {
	var gs []domain.GameState
	err := r.do(ctx, "list games", func() error {
		var err error
		gs, err = r.inner.ListGames(ctx, matchID)
		return err
	})
	return gs, err
}

func (r *retryingStore) UpsertGame(ctx context.Context, g domain.GameState) error {
	return r.do(ctx, "upsert game", func() error {
		return r.inner.UpsertGame(ctx, g)
	})
}

func (r *retryingStore) DeleteGames(ctx context.Context, ids []string) error {
	return r.do(ctx, "delete games", func() error {
		return r.inner.DeleteGames(ctx, ids)
	})
}

func (r *retryingStore) ResolveToken(ctx context.Context, token string) (string, error) {
	var owner string
	err := r.do(ctx, "resolve token", func() error {
		var err error
		owner, err = r.inner.ResolveToken(ctx, token)
		return err
	})
	return owner, err
}

func (r *retryingStore) SetOwnerToken(ctx context.Context, ownerID, token string) error {
	return r.do(ctx, "set owner token", func() error {
		return r.inner.SetOwnerToken(ctx, ownerID, token)
	})
}

func (r *retryingStore) OwnerToken(ctx context.Context, ownerID string) (string, error) {
	var token string
	err := r.do(ctx, "owner token", func() error {
		var err error
		token, err = r.inner.OwnerToken(ctx, ownerID)
		return err
	})
	return token, err
}

func (r *retryingStore) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

func (r *retryingStore) logWarn(ctx context.Context, msg string, args ...any) {
	logger := logging.FromContext(ctx, r.logger)
	if logger != nil {
		logger.Warn(msg, args...)
	}
}
