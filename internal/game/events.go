// internal/game/events.go
package game

import (
	"github.com/google/uuid"

	"github.com/blanksgame/blanks/internal/models"
)

// EventType is an enum-like type for outbound room notifications.
type EventType string

const (
	EventPlayerJoined    EventType = "player_joined"
	EventPlayerLeft      EventType = "player_left"
	EventRoundStarted    EventType = "round_started"    // black card + czar, public
	EventHandDealt       EventType = "hand_dealt"       // player's own hand, private
	EventSubmissionCount EventType = "submission_count" // count only, never content
	EventJudgingStarted  EventType = "judging_started"  // anonymized submissions
	EventRoundWinner     EventType = "round_winner"
	EventTimeRemaining   EventType = "time_remaining"
	EventRoundEnd        EventType = "round_end"
	EventGameEnded       EventType = "game_ended"
	EventRoomReset       EventType = "room_reset"
	EventChat            EventType = "chat"
	EventStateSync       EventType = "state_sync" // private snapshot on (re)connect
	EventError           EventType = "error"      // requester only
)

// EventPlayer identifies a player within event payloads.
type EventPlayer struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// EventCard carries the public view of a card.
type EventCard struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
	Pick int       `json:"pick,omitempty"`
}

// EventSubmission is an anonymized submission shown during judging. The id
// is minted per round and maps back to the submitting player only inside
// the room.
type EventSubmission struct {
	ID   uuid.UUID `json:"id"`
	Card EventCard `json:"card"`
}

// Standing is one row of the final scoreboard.
type Standing struct {
	Player EventPlayer `json:"player"`
	Score  int         `json:"score"`
}

// Event is the bounded set of outbound notification variants. The gateway
// marshals these verbatim; game logic never touches transport framing.
type Event struct {
	Type        EventType              `json:"type"`
	Player      *EventPlayer           `json:"player,omitempty"`
	Card        *EventCard             `json:"card,omitempty"`
	Cards       []EventCard            `json:"cards,omitempty"`
	Submissions []EventSubmission      `json:"submissions,omitempty"`
	Standings   []Standing             `json:"standings,omitempty"`
	Winners     []EventPlayer          `json:"winners,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

func eventPlayer(p *models.Player) *EventPlayer {
	return &EventPlayer{ID: p.ID, Name: p.Name}
}

func eventCard(c *models.Card) *EventCard {
	if c == nil {
		return nil
	}
	return &EventCard{ID: c.ID, Text: c.Text, Pick: c.Pick}
}

func eventCards(cards []*models.Card) []EventCard {
	out := make([]EventCard, 0, len(cards))
	for _, c := range cards {
		out = append(out, *eventCard(c))
	}
	return out
}
