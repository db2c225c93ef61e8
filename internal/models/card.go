// internal/models/card.go
package models

import "github.com/google/uuid"

// CardKind distinguishes black prompt cards from white response cards.
type CardKind string

const (
	CardBlack CardKind = "black"
	CardWhite CardKind = "white"
)

// Card is an immutable prompt or response card. Pick is only meaningful for
// black cards and is always >= 1.
type Card struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
	Kind CardKind  `json:"kind"`
	Pick int       `json:"pick,omitempty"`
}

// Pack is a named collection of cards loadable into a room's pool.
type Pack struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	BlackCount  int       `json:"blackCount"`
	WhiteCount  int       `json:"whiteCount"`
}
