package testutil

import (
	"fmt"

	"pickleball-score-service/internal/domain"
)

// SampleMatch returns a minimal in-progress match fixture with the provided id.
func SampleMatch(id string) domain.MatchState {
	return domain.MatchState{
		ID:          id,
		OwnerID:     "owner-1",
		TeamAName:   "Ospreys",
		TeamBName:   "Herons",
		BestOf:      3,
		CurrentGame: 1,
		Rules:       domain.DefaultRules(),
		Status:      domain.StatusInProgress,
		Seq:         1,
	}
}

// SampleGame returns a fresh game fixture attached to the given match.
func SampleGame(matchID string, number int) domain.GameState {
	return domain.GameState{
		ID:         fmt.Sprintf("%s-g%d", matchID, number),
		MatchID:    matchID,
		GameNumber: number,
		Rules:      domain.DefaultRules(),
		Server:     2,
		Latch:      domain.LatchArmed,
		Winner:     domain.TeamNone,
		Seq:        1,
	}
}

// RallyRules returns rally-scoring rules with the given target.
func RallyRules(firstTo int) domain.GameRules {
	r := domain.DefaultRules()
	r.FirstToPoints = firstTo
	r.ScoringMode = domain.ModeRally
	return r
}
