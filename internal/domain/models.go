package domain

import "time"

// ScoringMode selects the ruleset a game is played under.
type ScoringMode string

const (
	// ModeRegular is traditional side-out scoring: only the serving team
	// can score, and four server slots rotate 1→2→3→4→1.
	ModeRegular ScoringMode = "REGULAR"
	// ModeRally awards a point on every rally to whichever side won it,
	// with two server slots that flip on a lost rally.
	ModeRally ScoringMode = "RALLY"
)

// TeamSide identifies one side of the net.
type TeamSide string

const (
	TeamNone TeamSide = "NONE"
	TeamA    TeamSide = "TEAM_A"
	TeamB    TeamSide = "TEAM_B"
)

// Opponent returns the other side. TeamNone maps to itself.
func (t TeamSide) Opponent() TeamSide {
	switch t {
	case TeamA:
		return TeamB
	case TeamB:
		return TeamA
	default:
		return TeamNone
	}
}

// MatchStatus mirrors the match lifecycle states.
type MatchStatus string

const (
	StatusNotStarted MatchStatus = "NOT_STARTED"
	StatusInProgress MatchStatus = "IN_PROGRESS"
	StatusCompleted  MatchStatus = "COMPLETED"
)

// GamePointLatch gates the once-per-side-out game-point counters.
// A side-out arms the latch; the first game-point detection consumes it.
type GamePointLatch string

const (
	LatchArmed           GamePointLatch = "ARMED"
	LatchAwaitingSideOut GamePointLatch = "AWAITING_SIDE_OUT"
)

// GameState is one game within a match. Scores and rotation are only ever
// mutated through the evaluator; a completed game accepts no further rallies.
type GameState struct {
	ID              string         `json:"id"`
	MatchID         string         `json:"match_id"`
	GameNumber      int            `json:"game_number"`
	Rules           GameRules      `json:"rules"`
	TeamAScore      int            `json:"team_a_score"`
	TeamBScore      int            `json:"team_b_score"`
	TeamAGamePoints int            `json:"team_a_game_points"`
	TeamBGamePoints int            `json:"team_b_game_points"`
	Server          int            `json:"server"`
	Latch           GamePointLatch `json:"game_point_latch"`
	SideOutCount    int            `json:"side_out_count"`
	Completed       bool           `json:"completed"`
	Winner          TeamSide       `json:"winner"`
	Seq             int64          `json:"seq"`
}

// Score returns the given side's score. TeamNone reports 0.
func (g GameState) Score(t TeamSide) int {
	switch t {
	case TeamA:
		return g.TeamAScore
	case TeamB:
		return g.TeamBScore
	default:
		return 0
	}
}

// MatchState is a best-of-N contest between two named teams.
type MatchState struct {
	ID              string      `json:"id"`
	OwnerID         string      `json:"owner_id"`
	TeamAName       string      `json:"team_a_name"`
	TeamBName       string      `json:"team_b_name"`
	BestOf          int         `json:"best_of"`
	CurrentGame     int         `json:"current_game"`
	Rules           GameRules   `json:"rules"`
	StartingServer  int         `json:"starting_server"`
	Status          MatchStatus `json:"status"`
	ActiveOverlay   bool        `json:"active_overlay"`
	IsGamePoint     bool        `json:"is_game_point"`
	StartedAt       time.Time   `json:"started_at,omitempty"`
	DurationSeconds int64       `json:"duration_seconds"`
	Seq             int64       `json:"seq"`
}

// DefaultServer returns the server slot a fresh game starts on. An explicit
// per-match starting server wins; otherwise Regular games start on server 2
// (second server of the first-serving side) and Rally games on server 1.
func (m MatchState) DefaultServer() int {
	if m.StartingServer > 0 {
		return m.StartingServer
	}
	if m.Rules.ScoringMode == ModeRally {
		return 1
	}
	return 2
}

// GamesWon tallies completed games per side, for recaps and overlays.
func GamesWon(games []GameState) (teamA, teamB int) {
	for _, g := range games {
		if !g.Completed {
			continue
		}
		switch g.Winner {
		case TeamA:
			teamA++
		case TeamB:
			teamB++
		}
	}
	return teamA, teamB
}
