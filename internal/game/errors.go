// internal/game/errors.go
package game

import (
	"errors"

	"github.com/blanksgame/blanks/internal/deck"
)

// Typed room errors. All of them are local and recoverable: they are
// returned to the single requesting player, never mutate room state, and
// never disturb timers or other players.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrGameInProgress      = errors.New("game already in progress")
	ErrNotEnoughPlayers    = errors.New("not enough players")
	ErrWrongPhase          = errors.New("action not valid in current phase")
	ErrNotAuthorized       = errors.New("player not authorized for this action")
	ErrUnknownCard         = errors.New("unknown card or submission reference")
	ErrDuplicateSubmission = errors.New("player already submitted this round")
	ErrWrongPassword       = errors.New("wrong room password")

	// ErrPoolExhausted is re-exported so gateway code only deals in this
	// package's error set.
	ErrPoolExhausted = deck.ErrPoolExhausted
)
