package domain

import "fmt"

// GameRules holds the win-condition parameters for one game. Rules are fixed
// once a game starts being played.
type GameRules struct {
	FirstToPoints int         `json:"first_to_points"`
	WinBy         int         `json:"win_by"`
	PointCap      int         `json:"point_cap"`
	ScoringMode   ScoringMode `json:"scoring_mode"`
	WinOnServe    bool        `json:"win_on_serve"`
}

// DefaultRules is standard pickleball: first to 11, win by 2, no cap.
func DefaultRules() GameRules {
	return GameRules{
		FirstToPoints: 11,
		WinBy:         2,
		ScoringMode:   ModeRegular,
	}
}

// NewGameRules validates and returns a rule set.
func NewGameRules(firstTo, winBy, pointCap int, mode ScoringMode, winOnServe bool) (GameRules, error) {
	r := GameRules{
		FirstToPoints: firstTo,
		WinBy:         winBy,
		PointCap:      pointCap,
		ScoringMode:   mode,
		WinOnServe:    winOnServe,
	}
	if err := r.Validate(); err != nil {
		return GameRules{}, err
	}
	return r, nil
}

// Validate reports whether the rule set is playable.
func (r GameRules) Validate() error {
	if r.FirstToPoints < 1 {
		return fmt.Errorf("%w: first_to_points must be >= 1, got %d", ErrInvalidConfiguration, r.FirstToPoints)
	}
	if r.WinBy < 1 {
		return fmt.Errorf("%w: win_by must be >= 1, got %d", ErrInvalidConfiguration, r.WinBy)
	}
	if r.PointCap < 0 {
		return fmt.Errorf("%w: point_cap must be >= 0, got %d", ErrInvalidConfiguration, r.PointCap)
	}
	switch r.ScoringMode {
	case ModeRegular, ModeRally:
	default:
		return fmt.Errorf("%w: unknown scoring_mode %q", ErrInvalidConfiguration, r.ScoringMode)
	}
	return nil
}

// Target computes the score a team must reach to win, given the opponent's
// current score: max(first_to_points, opponent+win_by), clamped to the point
// cap when one is set. At the cap the win-by requirement degrades to
// sudden death.
func (r GameRules) Target(opponentScore int) int {
	target := r.FirstToPoints
	if opponentScore+r.WinBy > target {
		target = opponentScore + r.WinBy
	}
	if r.PointCap > 0 && target > r.PointCap {
		target = r.PointCap
	}
	return target
}
