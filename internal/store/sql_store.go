package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pickleball-score-service/internal/domain"
)

// SQLStore persists matches and games through database/sql. It speaks both
// SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq); queries are written
// with ? placeholders and rebound for Postgres.
type SQLStore struct {
	db       *sql.DB
	postgres bool
}

// NewSQLStore wraps an open connection. driver is the database/sql driver
// name the connection was opened with ("sqlite" or "postgres").
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, postgres: driver == "postgres"}
}

// CreateSchema creates all tables needed by the store.
// Safe to call multiple times - uses IF NOT EXISTS.
func (s *SQLStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return &StoreError{Op: "create schema", Err: err}
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS matches (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    team_a_name TEXT NOT NULL,
    team_b_name TEXT NOT NULL,
    best_of INTEGER NOT NULL,
    current_game INTEGER NOT NULL DEFAULT 1,
    first_to_points INTEGER NOT NULL,
    win_by INTEGER NOT NULL,
    point_cap INTEGER NOT NULL DEFAULT 0,
    scoring_mode TEXT NOT NULL,
    win_on_serve INTEGER NOT NULL DEFAULT 0,
    starting_server INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'NOT_STARTED',
    active_overlay INTEGER NOT NULL DEFAULT 0,
    is_game_point INTEGER NOT NULL DEFAULT 0,
    started_at TEXT,
    duration_seconds INTEGER NOT NULL DEFAULT 0,
    seq INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_matches_owner ON matches(owner_id);
CREATE INDEX IF NOT EXISTS idx_matches_owner_active ON matches(owner_id, active_overlay);

CREATE TABLE IF NOT EXISTS games (
    id TEXT PRIMARY KEY,
    match_id TEXT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
    game_number INTEGER NOT NULL,
    first_to_points INTEGER NOT NULL,
    win_by INTEGER NOT NULL,
    point_cap INTEGER NOT NULL DEFAULT 0,
    scoring_mode TEXT NOT NULL,
    win_on_serve INTEGER NOT NULL DEFAULT 0,
    team_a_score INTEGER NOT NULL DEFAULT 0,
    team_b_score INTEGER NOT NULL DEFAULT 0,
    team_a_game_points INTEGER NOT NULL DEFAULT 0,
    team_b_game_points INTEGER NOT NULL DEFAULT 0,
    server INTEGER NOT NULL,
    game_point_latch TEXT NOT NULL,
    side_out_count INTEGER NOT NULL DEFAULT 0,
    completed INTEGER NOT NULL DEFAULT 0,
    winner TEXT NOT NULL DEFAULT 'NONE',
    seq INTEGER NOT NULL DEFAULT 0,
    UNIQUE (match_id, game_number)
);

CREATE INDEX IF NOT EXISTS idx_games_match ON games(match_id);

CREATE TABLE IF NOT EXISTS overlay_tokens (
    owner_id TEXT PRIMARY KEY,
    token TEXT NOT NULL UNIQUE
);
`

const matchColumns = `id, owner_id, team_a_name, team_b_name, best_of, current_game,
first_to_points, win_by, point_cap, scoring_mode, win_on_serve, starting_server,
status, active_overlay, is_game_point, started_at, duration_seconds, seq`

const gameColumns = `id, match_id, game_number, first_to_points, win_by, point_cap,
scoring_mode, win_on_serve, team_a_score, team_b_score, team_a_game_points,
team_b_game_points, server, game_point_latch, side_out_count, completed, winner, seq`

// GetMatch retrieves a match by ID.
func (s *SQLStore) GetMatch(ctx context.Context, id string) (domain.MatchState, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+matchColumns+` FROM matches WHERE id = ?`), id)
	return s.scanMatch(row, "get match")
}

// GetActiveMatch returns the owner's active match, repairing duplicate
// active flags when a non-atomic backend left more than one set.
func (s *SQLStore) GetActiveMatch(ctx context.Context, ownerID string) (domain.MatchState, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT `+matchColumns+` FROM matches WHERE owner_id = ? AND active_overlay = 1 ORDER BY seq DESC`), ownerID)
	if err != nil {
		return domain.MatchState{}, &StoreError{Op: "get active match", Err: err}
	}
	defer rows.Close()

	var active []domain.MatchState
	for rows.Next() {
		m, err := s.scanMatch(rows, "get active match")
		if err != nil {
			return domain.MatchState{}, err
		}
		active = append(active, m)
	}
	if err := rows.Err(); err != nil {
		return domain.MatchState{}, &StoreError{Op: "get active match", Err: err}
	}
	if len(active) == 0 {
		return domain.MatchState{}, ErrNotFound
	}
	if len(active) > 1 {
		if err := s.SetActiveMatch(ctx, ownerID, active[0].ID); err != nil {
			return domain.MatchState{}, err
		}
	}
	return active[0], nil
}

// ListMatches returns the owner's matches ordered by ID.
func (s *SQLStore) ListMatches(ctx context.Context, ownerID string) ([]domain.MatchState, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT `+matchColumns+` FROM matches WHERE owner_id = ? ORDER BY id`), ownerID)
	if err != nil {
		return nil, &StoreError{Op: "list matches", Err: err}
	}
	defer rows.Close()

	result := make([]domain.MatchState, 0)
	for rows.Next() {
		m, err := s.scanMatch(rows, "list matches")
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list matches", Err: err}
	}
	return result, nil
}

// UpsertMatch stores the match snapshot.
func (s *SQLStore) UpsertMatch(ctx context.Context, m domain.MatchState) error {
	startedAt := ""
	if !m.StartedAt.IsZero() {
		startedAt = m.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx, s.q(`
INSERT INTO matches (`+matchColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    owner_id = excluded.owner_id,
    team_a_name = excluded.team_a_name,
    team_b_name = excluded.team_b_name,
    best_of = excluded.best_of,
    current_game = excluded.current_game,
    first_to_points = excluded.first_to_points,
    win_by = excluded.win_by,
    point_cap = excluded.point_cap,
    scoring_mode = excluded.scoring_mode,
    win_on_serve = excluded.win_on_serve,
    starting_server = excluded.starting_server,
    status = excluded.status,
    active_overlay = excluded.active_overlay,
    is_game_point = excluded.is_game_point,
    started_at = excluded.started_at,
    duration_seconds = excluded.duration_seconds,
    seq = excluded.seq`),
		m.ID, m.OwnerID, m.TeamAName, m.TeamBName, m.BestOf, m.CurrentGame,
		m.Rules.FirstToPoints, m.Rules.WinBy, m.Rules.PointCap, string(m.Rules.ScoringMode),
		boolToInt(m.Rules.WinOnServe), m.StartingServer, string(m.Status),
		boolToInt(m.ActiveOverlay), boolToInt(m.IsGamePoint), startedAt,
		m.DurationSeconds, m.Seq)
	if err != nil {
		return &StoreError{Op: "upsert match", Err: err}
	}
	return nil
}

// SetActiveMatch flips the active flag in a single transaction so no read
// observes zero or multiple active matches for the owner.
func (s *SQLStore) SetActiveMatch(ctx context.Context, ownerID, matchID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StoreError{Op: "set active match", Err: err}
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, s.q(`SELECT COUNT(1) FROM matches WHERE id = ? AND owner_id = ?`), matchID, ownerID).Scan(&exists)
	if err != nil {
		return &StoreError{Op: "set active match", Err: err}
	}
	if exists == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, s.q(
		`UPDATE matches SET active_overlay = CASE WHEN id = ? THEN 1 ELSE 0 END WHERE owner_id = ?`), matchID, ownerID); err != nil {
		return &StoreError{Op: "set active match", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "set active match", Err: err}
	}
	return nil
}

// GetGame retrieves one game of a match.
func (s *SQLStore) GetGame(ctx context.Context, matchID string, gameNumber int) (domain.GameState, error) {
	row := s.db.QueryRowContext(ctx, s.q(
		`SELECT `+gameColumns+` FROM games WHERE match_id = ? AND game_number = ?`), matchID, gameNumber)
	return s.scanGame(row, "get game")
}

// ListGames returns a match's games ordered by game number.
func (s *SQLStore) ListGames(ctx context.Context, matchID string) ([]domain.GameState, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT `+gameColumns+` FROM games WHERE match_id = ? ORDER BY game_number`), matchID)
	if err != nil {
		return nil, &StoreError{Op: "list games", Err: err}
	}
	defer rows.Close()

	result := make([]domain.GameState, 0)
	for rows.Next() {
		g, err := s.scanGame(rows, "list games")
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list games", Err: err}
	}
	return result, nil
}

// UpsertGame stores the game snapshot.
func (s *SQLStore) UpsertGame(ctx context.Context, g domain.GameState) error {
	_, err := s.db.ExecContext(ctx, s.q(`
INSERT INTO games (`+gameColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (match_id, game_number) DO UPDATE SET
    first_to_points = excluded.first_to_points,
    win_by = excluded.win_by,
    point_cap = excluded.point_cap,
    scoring_mode = excluded.scoring_mode,
    win_on_serve = excluded.win_on_serve,
    team_a_score = excluded.team_a_score,
    team_b_score = excluded.team_b_score,
    team_a_game_points = excluded.team_a_game_points,
    team_b_game_points = excluded.team_b_game_points,
    server = excluded.server,
    game_point_latch = excluded.game_point_latch,
    side_out_count = excluded.side_out_count,
    completed = excluded.completed,
    winner = excluded.winner,
    seq = excluded.seq`),
		g.ID, g.MatchID, g.GameNumber, g.Rules.FirstToPoints, g.Rules.WinBy,
		g.Rules.PointCap, string(g.Rules.ScoringMode), boolToInt(g.Rules.WinOnServe),
		g.TeamAScore, g.TeamBScore, g.TeamAGamePoints, g.TeamBGamePoints,
		g.Server, string(g.Latch), g.SideOutCount, boolToInt(g.Completed),
		string(g.Winner), g.Seq)
	if err != nil {
		return &StoreError{Op: "upsert game", Err: err}
	}
	return nil
}

// DeleteGames removes games by ID.
func (s *SQLStore) DeleteGames(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM games WHERE id IN (`+placeholders+`)`), args...); err != nil {
		return &StoreError{Op: "delete games", Err: err}
	}
	return nil
}

// ResolveToken maps an overlay token to its owner.
func (s *SQLStore) ResolveToken(ctx context.Context, token string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT owner_id FROM overlay_tokens WHERE token = ?`), token).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", &StoreError{Op: "resolve token", Err: err}
	}
	return owner, nil
}

// SetOwnerToken registers (or replaces) the owner's overlay token.
func (s *SQLStore) SetOwnerToken(ctx context.Context, ownerID, token string) error {
	_, err := s.db.ExecContext(ctx, s.q(`
INSERT INTO overlay_tokens (owner_id, token) VALUES (?, ?)
ON CONFLICT (owner_id) DO UPDATE SET token = excluded.token`), ownerID, token)
	if err != nil {
		return &StoreError{Op: "set owner token", Err: err}
	}
	return nil
}

// OwnerToken returns the owner's overlay token if one is registered.
func (s *SQLStore) OwnerToken(ctx context.Context, ownerID string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT token FROM overlay_tokens WHERE owner_id = ?`), ownerID).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", &StoreError{Op: "owner token", Err: err}
	}
	return token, nil
}

// Ping verifies the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &StoreError{Op: "ping", Err: err}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLStore) scanMatch(row rowScanner, op string) (domain.MatchState, error) {
	var (
		m                             domain.MatchState
		winOnServe, active, gamePoint int
		mode, status, startedAt       string
	)
	err := row.Scan(&m.ID, &m.OwnerID, &m.TeamAName, &m.TeamBName, &m.BestOf, &m.CurrentGame,
		&m.Rules.FirstToPoints, &m.Rules.WinBy, &m.Rules.PointCap, &mode, &winOnServe,
		&m.StartingServer, &status, &active, &gamePoint, &startedAt, &m.DurationSeconds, &m.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MatchState{}, ErrNotFound
	}
	if err != nil {
		return domain.MatchState{}, &StoreError{Op: op, Err: err}
	}
	m.Rules.ScoringMode = domain.ScoringMode(mode)
	m.Rules.WinOnServe = winOnServe != 0
	m.Status = domain.MatchStatus(status)
	m.ActiveOverlay = active != 0
	m.IsGamePoint = gamePoint != 0
	if startedAt != "" {
		if t, perr := time.Parse(time.RFC3339Nano, startedAt); perr == nil {
			m.StartedAt = t
		}
	}
	return m, nil
}

func (s *SQLStore) scanGame(row rowScanner, op string) (domain.GameState, error) {
	var (
		g                     domain.GameState
		winOnServe, completed int
		mode, latch, winner   string
	)
	err := row.Scan(&g.ID, &g.MatchID, &g.GameNumber, &g.Rules.FirstToPoints, &g.Rules.WinBy,
		&g.Rules.PointCap, &mode, &winOnServe, &g.TeamAScore, &g.TeamBScore,
		&g.TeamAGamePoints, &g.TeamBGamePoints, &g.Server, &latch, &g.SideOutCount,
		&completed, &winner, &g.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GameState{}, ErrNotFound
	}
	if err != nil {
		return domain.GameState{}, &StoreError{Op: op, Err: err}
	}
	g.Rules.ScoringMode = domain.ScoringMode(mode)
	g.Rules.WinOnServe = winOnServe != 0
	g.Latch = domain.GamePointLatch(latch)
	g.Completed = completed != 0
	g.Winner = domain.TeamSide(winner)
	return g, nil
}

// q rewrites ? placeholders to $N for Postgres.
func (s *SQLStore) q(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
