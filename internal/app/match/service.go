// Package match orchestrates best-of-N matches: it sequences games, feeds
// rallies through the scoring evaluator, and owns persistence and broadcast
// of the resulting snapshots.
package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pickleball-score-service/internal/archive"
	"pickleball-score-service/internal/domain"
	"pickleball-score-service/internal/logging"
	"pickleball-score-service/internal/metrics"
	"pickleball-score-service/internal/notify"
	"pickleball-score-service/internal/scoring"
	"pickleball-score-service/internal/store"
	"pickleball-score-service/internal/timeutil"
)

// Service coordinates match operations over a Store and Hub.
type Service struct {
	store   store.Store
	hub     *notify.Hub
	metrics *metrics.Recorder
	logger  *slog.Logger
	archive *archive.Writer
	now     func() time.Time
	newID   func() string
}

// NewService constructs a Service. hub, recorder, logger, and archiver may
// be nil; the service degrades to pure persistence.
func NewService(st store.Store, hub *notify.Hub, recorder *metrics.Recorder, logger *slog.Logger, archiver *archive.Writer) *Service {
	return &Service{
		store:   st,
		hub:     hub,
		metrics: recorder,
		logger:  logger,
		archive: archiver,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// CreateParams define a new match.
type CreateParams struct {
	OwnerID        string           `json:"owner_id"`
	TeamAName      string           `json:"team_a_name"`
	TeamBName      string           `json:"team_b_name"`
	BestOf         int              `json:"best_of"`
	Rules          domain.GameRules `json:"rules"`
	StartingServer int              `json:"starting_server"`
}

// CreateMatch validates the setup, stores a fresh match, and ensures the
// owner has an overlay token.
func (s *Service) CreateMatch(ctx context.Context, p CreateParams) (domain.MatchState, error) {
	if p.OwnerID == "" {
		return domain.MatchState{}, fmt.Errorf("%w: owner_id required", domain.ErrInvalidConfiguration)
	}
	if p.BestOf < 1 || p.BestOf%2 == 0 {
		return domain.MatchState{}, fmt.Errorf("%w: best_of must be odd and >= 1, got %d", domain.ErrInvalidConfiguration, p.BestOf)
	}
	if err := p.Rules.Validate(); err != nil {
		return domain.MatchState{}, err
	}
	if p.StartingServer != 0 {
		if _, err := scoring.ServingTeam(p.StartingServer, p.Rules.ScoringMode); err != nil {
			return domain.MatchState{}, err
		}
	}

	m := domain.MatchState{
		ID:             s.newID(),
		OwnerID:        p.OwnerID,
		TeamAName:      p.TeamAName,
		TeamBName:      p.TeamBName,
		BestOf:         p.BestOf,
		CurrentGame:    1,
		Rules:          p.Rules,
		StartingServer: p.StartingServer,
		Status:         domain.StatusNotStarted,
		Seq:            1,
	}
	if err := s.upsertMatch(ctx, m); err != nil {
		return domain.MatchState{}, err
	}

	if _, err := s.store.OwnerToken(ctx, p.OwnerID); errors.Is(err, store.ErrNotFound) {
		if err := s.store.SetOwnerToken(ctx, p.OwnerID, s.newID()); err != nil {
			return domain.MatchState{}, err
		}
	} else if err != nil {
		return domain.MatchState{}, err
	}

	logging.Info(s.logger, "match created",
		logging.FieldMatchID, m.ID,
		logging.FieldOwnerID, m.OwnerID,
		"best_of", m.BestOf,
		"scoring_mode", string(m.Rules.ScoringMode),
	)
	return m, nil
}

// Match returns a match by ID.
func (s *Service) Match(ctx context.Context, id string) (domain.MatchState, error) {
	return s.store.GetMatch(ctx, id)
}

// Games returns a match's games ordered by game number.
func (s *Service) Games(ctx context.Context, matchID string) ([]domain.GameState, error) {
	return s.store.ListGames(ctx, matchID)
}

// CurrentGame returns the game currently receiving rally input, creating it
// lazily on first access.
func (s *Service) CurrentGame(ctx context.Context, matchID string) (domain.GameState, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return domain.GameState{}, err
	}
	return s.ensureGame(ctx, m, m.CurrentGame)
}

// RecordRally applies a rally outcome (won is from the serving team's
// perspective) to the match's current game, persists the new game and match
// snapshots, and broadcasts the change. Nothing is published when
// persistence fails, so viewers never observe a state the store rejected.
func (s *Service) RecordRally(ctx context.Context, matchID string, won bool) (scoring.Outcome, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return scoring.Outcome{}, err
	}
	switch m.Status {
	case domain.StatusNotStarted:
		return scoring.Outcome{}, domain.ErrMatchNotStarted
	case domain.StatusCompleted:
		return scoring.Outcome{}, domain.ErrMatchComplete
	}

	g, err := s.ensureGame(ctx, m, m.CurrentGame)
	if err != nil {
		return scoring.Outcome{}, err
	}

	out, err := scoring.EvaluateRally(g, won)
	if err != nil {
		return scoring.Outcome{}, err
	}

	g = out.Game
	g.Seq++
	if err := s.upsertGame(ctx, g); err != nil {
		return scoring.Outcome{}, err
	}

	m.IsGamePoint = out.GamePoint
	m.Seq++
	if err := s.upsertMatch(ctx, m); err != nil {
		return scoring.Outcome{}, err
	}
	out.Game = g

	s.metrics.RecordRally(string(g.Rules.ScoringMode), out.SideOut, out.Won)
	s.publishGame(g)
	s.publishMatch(m)

	logging.Info(s.logger, "rally recorded",
		logging.FieldMatchID, matchID,
		logging.FieldGameNumber, g.GameNumber,
		"team_a_score", g.TeamAScore,
		"team_b_score", g.TeamBScore,
		"server", g.Server,
		"side_out", out.SideOut,
		"completed", g.Completed,
	)
	return out, nil
}

// ChangeGame moves the current-game pointer by delta. Advancing requires the
// current game to be complete; retreating is always allowed. The target game
// is created lazily with the match's rules and default server.
func (s *Service) ChangeGame(ctx context.Context, matchID string, delta int) (domain.MatchState, error) {
	if delta == 0 {
		return domain.MatchState{}, domain.ErrOutOfRange
	}
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return domain.MatchState{}, err
	}

	target := m.CurrentGame + delta
	if target < 1 || target > m.BestOf {
		return domain.MatchState{}, domain.ErrOutOfRange
	}
	if delta > 0 {
		current, err := s.ensureGame(ctx, m, m.CurrentGame)
		if err != nil {
			return domain.MatchState{}, err
		}
		if !current.Completed {
			return domain.MatchState{}, domain.ErrGameNotComplete
		}
	}

	g, err := s.ensureGame(ctx, m, target)
	if err != nil {
		return domain.MatchState{}, err
	}

	m.CurrentGame = target
	_, m.IsGamePoint = scoring.AtGamePoint(g)
	m.Seq++
	if err := s.upsertMatch(ctx, m); err != nil {
		return domain.MatchState{}, err
	}
	s.publishMatch(m)
	return m, nil
}

// SetServer explicitly overrides the current game's server slot.
func (s *Service) SetServer(ctx context.Context, matchID string, server int) (domain.GameState, error) {
	return s.mutateCurrentGame(ctx, matchID, func(g *domain.GameState) error {
		if _, err := scoring.ServingTeam(server, g.Rules.ScoringMode); err != nil {
			return err
		}
		g.Server = server
		return nil
	})
}

// SetScore manually overrides one side's score, bypassing rule validation.
// Used to correct mis-entered rallies; completed games stay immutable.
func (s *Service) SetScore(ctx context.Context, matchID string, team domain.TeamSide, value int) (domain.GameState, error) {
	if team != domain.TeamA && team != domain.TeamB {
		return domain.GameState{}, fmt.Errorf("%w: cannot set score for side %q", domain.ErrInvalidConfiguration, team)
	}
	if value < 0 {
		return domain.GameState{}, fmt.Errorf("%w: score must be >= 0, got %d", domain.ErrInvalidConfiguration, value)
	}
	return s.mutateCurrentGame(ctx, matchID, func(g *domain.GameState) error {
		if team == domain.TeamA {
			g.TeamAScore = value
		} else {
			g.TeamBScore = value
		}
		return nil
	})
}

// StartMatch transitions Not Started → In Progress and records the start time.
func (s *Service) StartMatch(ctx context.Context, matchID string) (domain.MatchState, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return domain.MatchState{}, err
	}
	switch m.Status {
	case domain.StatusInProgress:
		return domain.MatchState{}, domain.ErrMatchAlreadyStarted
	case domain.StatusCompleted:
		return domain.MatchState{}, domain.ErrMatchComplete
	}

	m.Status = domain.StatusInProgress
	m.StartedAt = s.now().UTC()
	m.Seq++
	if err := s.upsertMatch(ctx, m); err != nil {
		return domain.MatchState{}, err
	}
	s.publishMatch(m)
	logging.Info(s.logger, "match started", logging.FieldMatchID, m.ID)
	return m, nil
}

// CompleteMatch transitions In Progress → Completed, records the elapsed
// duration (clamped to zero under clock skew), and archives the result.
func (s *Service) CompleteMatch(ctx context.Context, matchID string) (domain.MatchState, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return domain.MatchState{}, err
	}
	switch m.Status {
	case domain.StatusNotStarted:
		return domain.MatchState{}, domain.ErrMatchNotStarted
	case domain.StatusCompleted:
		return domain.MatchState{}, domain.ErrMatchComplete
	}

	m.Status = domain.StatusCompleted
	m.DurationSeconds = timeutil.ClampedSeconds(m.StartedAt, s.now().UTC())
	m.IsGamePoint = false
	m.Seq++
	if err := s.upsertMatch(ctx, m); err != nil {
		return domain.MatchState{}, err
	}
	s.publishMatch(m)

	if s.archive != nil {
		games, gerr := s.store.ListGames(ctx, matchID)
		if gerr == nil {
			gerr = s.archive.WriteMatch(m, games)
		}
		if gerr != nil {
			logging.Error(s.logger, "match archive failed", gerr, logging.FieldMatchID, m.ID)
		}
	}

	logging.Info(s.logger, "match completed",
		logging.FieldMatchID, m.ID,
		"duration_seconds", m.DurationSeconds,
	)
	return m, nil
}

// SetActiveOverlay makes the match the owner's single broadcast-active
// match. Uniqueness is enforced by the store's transactional flip.
func (s *Service) SetActiveOverlay(ctx context.Context, matchID string) (domain.MatchState, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return domain.MatchState{}, err
	}
	if err := s.store.SetActiveMatch(ctx, m.OwnerID, matchID); err != nil {
		return domain.MatchState{}, err
	}
	m, err = s.store.GetMatch(ctx, matchID)
	if err != nil {
		return domain.MatchState{}, err
	}
	s.publishMatch(m)
	logging.Info(s.logger, "overlay activated",
		logging.FieldMatchID, m.ID,
		logging.FieldOwnerID, m.OwnerID,
	)
	return m, nil
}

// TruncateGames deletes games numbered above the given game, for the
// correction flow where a controller retreats and replays.
func (s *Service) TruncateGames(ctx context.Context, matchID string, after int) error {
	games, err := s.store.ListGames(ctx, matchID)
	if err != nil {
		return err
	}
	var ids []string
	for _, g := range games {
		if g.GameNumber > after {
			ids = append(ids, g.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.store.DeleteGames(ctx, ids); err != nil {
		return err
	}
	if m, err := s.store.GetMatch(ctx, matchID); err == nil {
		s.publishMatch(m)
	}
	return nil
}

func (s *Service) mutateCurrentGame(ctx context.Context, matchID string, fn func(*domain.GameState) error) (domain.GameState, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return domain.GameState{}, err
	}
	g, err := s.ensureGame(ctx, m, m.CurrentGame)
	if err != nil {
		return domain.GameState{}, err
	}
	if g.Completed {
		return domain.GameState{}, domain.ErrGameComplete
	}
	if err := fn(&g); err != nil {
		return domain.GameState{}, err
	}
	g.Seq++
	if err := s.upsertGame(ctx, g); err != nil {
		return domain.GameState{}, err
	}

	_, m.IsGamePoint = scoring.AtGamePoint(g)
	m.Seq++
	if err := s.upsertMatch(ctx, m); err != nil {
		return domain.GameState{}, err
	}

	s.publishGame(g)
	s.publishMatch(m)
	return g, nil
}

// ensureGame fetches a game, creating it with the match's rule template and
// default server when it does not exist yet.
func (s *Service) ensureGame(ctx context.Context, m domain.MatchState, gameNumber int) (domain.GameState, error) {
	if gameNumber < 1 || gameNumber > m.BestOf {
		return domain.GameState{}, domain.ErrOutOfRange
	}
	g, err := s.store.GetGame(ctx, m.ID, gameNumber)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.GameState{}, err
	}

	// Fresh games start with the latch armed so a game point reached
	// before the first side-out still counts once.
	g = domain.GameState{
		ID:         s.newID(),
		MatchID:    m.ID,
		GameNumber: gameNumber,
		Rules:      m.Rules,
		Server:     m.DefaultServer(),
		Latch:      domain.LatchArmed,
		Winner:     domain.TeamNone,
		Seq:        1,
	}
	if err := s.upsertGame(ctx, g); err != nil {
		return domain.GameState{}, err
	}
	return g, nil
}

func (s *Service) upsertGame(ctx context.Context, g domain.GameState) error {
	start := time.Now()
	err := s.store.UpsertGame(ctx, g)
	s.metrics.RecordStoreCall("upsert_game", time.Since(start), err)
	return err
}

func (s *Service) upsertMatch(ctx context.Context, m domain.MatchState) error {
	start := time.Now()
	err := s.store.UpsertMatch(ctx, m)
	s.metrics.RecordStoreCall("upsert_match", time.Since(start), err)
	return err
}

func (s *Service) publishGame(g domain.GameState) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(notify.Event{Kind: notify.KindGame, ID: g.ID, MatchID: g.MatchID, Seq: g.Seq})
}

func (s *Service) publishMatch(m domain.MatchState) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(notify.Event{Kind: notify.KindMatch, ID: m.ID, MatchID: m.ID, Seq: m.Seq})
}
