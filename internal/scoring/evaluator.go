package scoring

import "pickleball-score-service/internal/domain"

// Outcome is the result of applying a single rally to a game.
type Outcome struct {
	Game domain.GameState

	// SideOut reports that serve changed sides on this rally.
	SideOut bool
	// GamePoint reports that a side is one point from winning, with
	// GamePointTeam naming it. Cleared once the game is won.
	GamePoint     bool
	GamePointTeam domain.TeamSide
	// PointWithheld reports that the win-on-serve rule withheld the
	// rally winner's point.
	PointWithheld bool
	// Won reports that this rally completed the game.
	Won bool
}

// EvaluateRally applies one rally outcome to a game. rallyWon is from the
// serving team's perspective. The input state is not mutated; callers
// persist and broadcast the returned state.
//
// Order of operations follows the rulebook: resolve the rally winner and
// award (or withhold) the point, rotate serve and arm the game-point latch
// on a side-out, then detect game point and the win condition.
func EvaluateRally(g domain.GameState, rallyWon bool) (Outcome, error) {
	if g.Completed {
		return Outcome{}, domain.ErrGameComplete
	}

	rules := g.Rules
	serving, err := ServingTeam(g.Server, rules.ScoringMode)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{}

	// Point award. Regular mode scores only on the server's own rallies;
	// Rally mode scores every rally for whichever side won it.
	winner := domain.TeamNone
	switch rules.ScoringMode {
	case domain.ModeRally:
		if rallyWon {
			winner = serving
		} else {
			winner = serving.Opponent()
		}
	default:
		if rallyWon {
			winner = serving
		}
	}

	if winner != domain.TeamNone {
		if rules.WinOnServe && winner != serving && atGamePoint(g.Score(winner)+1, g.Score(winner.Opponent()), rules) {
			// The non-serving side cannot close in on the game off
			// someone else's serve; the point is withheld.
			out.PointWithheld = true
		} else {
			switch winner {
			case domain.TeamA:
				g.TeamAScore++
			case domain.TeamB:
				g.TeamBScore++
			}
		}
	}

	// Serve rotation and side-out latch.
	next, err := NextServer(g.Server, rules.ScoringMode, rallyWon)
	if err != nil {
		return Outcome{}, err
	}
	nowServing, err := ServingTeam(next, rules.ScoringMode)
	if err != nil {
		return Outcome{}, err
	}
	if nowServing != serving {
		out.SideOut = true
		g.SideOutCount++
		g.Latch = domain.LatchArmed
	}
	g.Server = next

	// Game-point detection. Regular mode only announces the serving
	// side's game point, since the receiving side cannot win the next
	// rally. Rally mode announces either side; when both qualify the
	// higher score is surfaced, ties defaulting to Team A.
	gpTeam := gamePointTeam(g, nowServing)
	if gpTeam != domain.TeamNone {
		out.GamePoint = true
		out.GamePointTeam = gpTeam
		if g.Latch == domain.LatchArmed {
			switch gpTeam {
			case domain.TeamA:
				g.TeamAGamePoints++
			case domain.TeamB:
				g.TeamBGamePoints++
			}
			g.Latch = domain.LatchAwaitingSideOut
		}
	}

	// Win condition. Target already folds in win-by and the point cap,
	// so reaching it is sufficient; at the cap this degrades to sudden
	// death. Both sides cannot reach target on the same rally because
	// only one score changed.
	switch {
	case g.TeamAScore >= rules.Target(g.TeamBScore):
		g.Completed = true
		g.Winner = domain.TeamA
	case g.TeamBScore >= rules.Target(g.TeamAScore):
		g.Completed = true
		g.Winner = domain.TeamB
	}
	if g.Completed {
		out.Won = true
		out.GamePoint = false
		out.GamePointTeam = domain.TeamNone
	}

	out.Game = g
	return out, nil
}

// AtGamePoint reports whether the given game currently sits at game point
// and for which side, using the same announcement rules as the evaluator.
func AtGamePoint(g domain.GameState) (domain.TeamSide, bool) {
	if g.Completed {
		return domain.TeamNone, false
	}
	serving, err := ServingTeam(g.Server, g.Rules.ScoringMode)
	if err != nil {
		return domain.TeamNone, false
	}
	team := gamePointTeam(g, serving)
	return team, team != domain.TeamNone
}

func gamePointTeam(g domain.GameState, serving domain.TeamSide) domain.TeamSide {
	rules := g.Rules
	if rules.ScoringMode == domain.ModeRegular {
		if atGamePoint(g.Score(serving), g.Score(serving.Opponent()), rules) {
			return serving
		}
		return domain.TeamNone
	}

	aGP := atGamePoint(g.TeamAScore, g.TeamBScore, rules)
	bGP := atGamePoint(g.TeamBScore, g.TeamAScore, rules)
	switch {
	case aGP && bGP:
		if g.TeamBScore > g.TeamAScore {
			return domain.TeamB
		}
		return domain.TeamA
	case aGP:
		return domain.TeamA
	case bGP:
		return domain.TeamB
	default:
		return domain.TeamNone
	}
}

func atGamePoint(score, opponentScore int, rules domain.GameRules) bool {
	return score == rules.Target(opponentScore)-1
}
