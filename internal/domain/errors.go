package domain

import "errors"

// Sentinel errors for the scoring core. Callers branch with errors.Is;
// everything except ErrInvalidServerState is recoverable and surfaced to the
// controller UI as a notice rather than a failure.
var (
	// ErrInvalidConfiguration rejects unplayable game rules at creation.
	ErrInvalidConfiguration = errors.New("invalid game configuration")

	// ErrInvalidServerState flags a server value outside the valid range
	// for the scoring mode. This is a programming error when rotation is
	// mutated anywhere but the rotation engine; the check is defensive.
	ErrInvalidServerState = errors.New("invalid server state")

	// ErrGameNotComplete blocks advancing past a game still in play.
	ErrGameNotComplete = errors.New("current game is not complete")

	// ErrGameComplete rejects score-affecting input on a finished game.
	ErrGameComplete = errors.New("game already complete")

	// ErrOutOfRange rejects a game number outside [1, best_of].
	ErrOutOfRange = errors.New("game number out of range")

	// ErrMatchNotStarted rejects rally input or completion before start.
	ErrMatchNotStarted = errors.New("match not started")

	// ErrMatchAlreadyStarted rejects a second start transition.
	ErrMatchAlreadyStarted = errors.New("match already started")

	// ErrMatchComplete rejects input on a completed match.
	ErrMatchComplete = errors.New("match already complete")
)
