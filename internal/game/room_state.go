// internal/game/room_state.go
package game

import (
	"time"

	"github.com/google/uuid"
)

// PlayerState is the public view of one seated player.
type PlayerState struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Score        int       `json:"score"`
	Connected    bool      `json:"connected"`
	IsCzar       bool      `json:"isCzar"`
	HasSubmitted bool      `json:"hasSubmitted"`
}

// RoomState is the private sync snapshot sent to a player on connect or
// reconnect. It carries the player's own hand and nothing of anyone else's.
type RoomState struct {
	RoomID          uuid.UUID         `json:"roomId"`
	HostID          uuid.UUID         `json:"hostId"`
	Phase           Phase             `json:"phase"`
	Round           int               `json:"round"`
	Players         []PlayerState     `json:"players"`
	BlackCard       *EventCard        `json:"blackCard,omitempty"`
	CzarID          uuid.UUID         `json:"czarId,omitempty"`
	Hand            []EventCard       `json:"hand"`
	Submissions     []EventSubmission `json:"submissions,omitempty"`
	SubmissionCount int               `json:"submissionCount"`
	SecondsLeft     int               `json:"secondsLeft,omitempty"`
}

// RoomInfo is the public listing entry for a room.
type RoomInfo struct {
	ID          uuid.UUID `json:"id"`
	Phase       Phase     `json:"phase"`
	PlayerCount int       `json:"playerCount"`
	MaxPlayers  int       `json:"maxPlayers"`
	HasPassword bool      `json:"hasPassword"`
}

// Snapshot builds the private state view for one player.
func (r *Room) Snapshot(playerID uuid.UUID) RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := RoomState{
		RoomID:          r.ID,
		HostID:          r.HostID,
		Phase:           r.phase,
		Round:           r.roundIndex,
		CzarID:          r.czarID(),
		BlackCard:       eventCard(r.blackCard),
		Hand:            eventCards(r.pool.Hand(playerID)),
		SubmissionCount: len(r.submissions),
	}
	for _, p := range r.players {
		_, submitted := r.submissions[p.ID]
		st.Players = append(st.Players, PlayerState{
			ID:           p.ID,
			Name:         p.Name,
			Score:        p.Score,
			Connected:    p.Connected,
			IsCzar:       p.ID == st.CzarID && st.CzarID != uuid.Nil,
			HasSubmitted: submitted,
		})
	}
	if r.phase == PhaseJudging {
		for _, sub := range r.judgingOrder {
			st.Submissions = append(st.Submissions, EventSubmission{ID: sub.ID, Card: *eventCard(sub.Card)})
		}
	}
	if r.phase == PhaseSubmission || r.phase == PhaseJudging {
		if left := int(time.Until(r.deadline).Seconds()); left > 0 {
			st.SecondsLeft = left
		}
	}
	return st
}

// Info is the public listing view.
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfo{
		ID:          r.ID,
		Phase:       r.phase,
		PlayerCount: len(r.players),
		MaxPlayers:  r.Config.MaxPlayers,
		HasPassword: r.PasswordHash != "",
	}
}

// MarkConnected records a player's transport presence. Membership of an
// unknown player is reported so the gateway can refuse the socket.
func (r *Room) MarkConnected(playerID uuid.UUID, connected bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerByID(playerID)
	if p == nil {
		return ErrNotAuthorized
	}
	p.Connected = connected
	return nil
}
