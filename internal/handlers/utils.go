// internal/handlers/utils.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/blanksgame/blanks/internal/game"
)

// extractCookieToken extracts a named cookie value from a "Cookie" header,
// or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeGameError maps a typed room error onto an HTTP status plus a stable
// machine-readable code.
func writeGameError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), map[string]string{
		"error": errorCode(err),
	})
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrRoomFull),
		errors.Is(err, game.ErrGameInProgress),
		errors.Is(err, game.ErrWrongPhase),
		errors.Is(err, game.ErrDuplicateSubmission),
		errors.Is(err, game.ErrNotEnoughPlayers),
		errors.Is(err, game.ErrPoolExhausted):
		return http.StatusConflict
	case errors.Is(err, game.ErrNotAuthorized), errors.Is(err, game.ErrWrongPassword):
		return http.StatusForbidden
	case errors.Is(err, game.ErrUnknownCard):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, game.ErrRoomFull):
		return "room_full"
	case errors.Is(err, game.ErrGameInProgress):
		return "game_in_progress"
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, game.ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, game.ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, game.ErrUnknownCard):
		return "unknown_card"
	case errors.Is(err, game.ErrDuplicateSubmission):
		return "duplicate_submission"
	case errors.Is(err, game.ErrWrongPassword):
		return "wrong_password"
	case errors.Is(err, game.ErrPoolExhausted):
		return "pool_exhausted"
	default:
		return "internal_error"
	}
}
