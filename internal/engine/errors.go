package engine

import "errors"

// Domain errors surfaced to the acting client. Every action either
// fully applies or fails with one of these (possibly wrapped) and
// leaves the game untouched.
var (
	// Setup errors.
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrTooManyPlayers   = errors.New("too many players")
	ErrInvalidDeckSize  = errors.New("invalid deck size")

	// Turn-order errors.
	ErrNotPlayerTurn = errors.New("not your turn")
	ErrWrongPhase    = errors.New("wrong game phase")

	// Input errors.
	ErrInvalidCardIndex = errors.New("invalid card index")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrUnknownAction    = errors.New("unknown action")

	// Rule-violation errors.
	ErrInvalidMove = errors.New("invalid move")
)
