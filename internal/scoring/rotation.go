// Package scoring implements the rally evaluation core: server rotation,
// point awards, game-point detection, and win conditions. Everything here is
// pure; persistence and broadcast belong to the callers.
package scoring

import (
	"fmt"

	"pickleball-score-service/internal/domain"
)

// ServingTeam maps a server slot to the side holding serve. Regular mode has
// four slots ({1,2}=Team A, {3,4}=Team B); Rally mode has two.
func ServingTeam(server int, mode domain.ScoringMode) (domain.TeamSide, error) {
	switch mode {
	case domain.ModeRegular:
		switch server {
		case 1, 2:
			return domain.TeamA, nil
		case 3, 4:
			return domain.TeamB, nil
		}
	case domain.ModeRally:
		switch server {
		case 1:
			return domain.TeamA, nil
		case 2:
			return domain.TeamB, nil
		}
	}
	return domain.TeamNone, fmt.Errorf("%w: server %d in mode %s", domain.ErrInvalidServerState, server, mode)
}

// NextServer advances the rotation after a rally. The serving side keeps the
// same slot when it wins the rally. On a loss, Regular mode steps the cycle
// 1→2→3→4→1 (slots 2 and 4 hand serve to the other side, slots 1 and 3 pass
// it to the partner) and Rally mode flips 1↔2, so every lost Rally-mode
// rally is a side-out.
func NextServer(server int, mode domain.ScoringMode, rallyWonByServer bool) (int, error) {
	if _, err := ServingTeam(server, mode); err != nil {
		return 0, err
	}
	if rallyWonByServer {
		return server, nil
	}
	switch mode {
	case domain.ModeRally:
		if server == 1 {
			return 2, nil
		}
		return 1, nil
	default:
		return (server % 4) + 1, nil
	}
}
