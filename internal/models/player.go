// internal/models/player.go
package models

import "github.com/google/uuid"

// Player is a seated room member. Hands live in the room's card pool and
// live connections in the gateway; join order is tracked by the owning room.
type Player struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	Connected bool      `json:"connected"`
}

func NewPlayer(name string) (*Player, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	return &Player{
		ID:        id,
		Name:      name,
		Connected: true,
	}, nil
}
