// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/blanksgame/blanks/internal/auth"
	"github.com/blanksgame/blanks/internal/game"
)

// ActionMessage is the single typed inbound envelope for all player
// actions on the room socket.
type ActionMessage struct {
	Type         string `json:"type"`
	CardID       string `json:"cardId,omitempty"`
	SubmissionID string `json:"submissionId,omitempty"`
	Msg          string `json:"msg,omitempty"`
}

// client wraps one player's socket. Outbound events go through a buffered
// channel drained by writePump, so broadcasts never block on a slow peer.
type client struct {
	playerID uuid.UUID
	roomID   uuid.UUID
	conn     *websocket.Conn
	out      chan []byte
	cancel   context.CancelFunc
}

// send queues data for the client, dropping it if the buffer is full.
func (c *client) send(data []byte, log *logrus.Logger) {
	select {
	case c.out <- data:
	default:
		log.Warnf("dropping event for slow client %s in room %s", c.playerID, c.roomID)
	}
}

func (c *client) close() {
	c.cancel()
	if c.conn != nil {
		c.conn.Close(websocket.StatusPolicyViolation, "connection replaced or room closed")
	}
}

// RoomWSHandler upgrades the connection for /room/ws/{room_id}, verifies
// the guest token belongs to that room, attaches the connection, sends a
// private state snapshot, and runs the action read loop. Socket closure is
// treated as leaving the room.
func RoomWSHandler(logger *logrus.Logger, s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomIDStr := strings.TrimPrefix(r.URL.Path, "/room/ws/")
		roomIDStr = strings.TrimSuffix(roomIDStr, "/")
		roomID, err := uuid.Parse(roomIDStr)
		if err != nil {
			http.Error(w, "invalid room_id format", http.StatusBadRequest)
			return
		}

		room, ok := s.Rooms.GetRoom(roomID)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"room"},
			OriginPatterns: []string{"*"}, // tighten for production deployments
		})
		if err != nil {
			logger.Warnf("websocket accept error for room %s: %v", roomID, err)
			return
		}
		if c.Subprotocol() != "room" {
			c.Close(BadSubprotocolError, "client must use the 'room' subprotocol")
			return
		}

		token := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
		playerID, tokenRoomID, err := auth.AuthenticateGuestToken(token)
		if err != nil {
			logger.Warnf("guest auth failed for room %s: %v", roomID, err)
			c.Close(InvalidAuthTokenError, "authentication failed")
			return
		}
		if tokenRoomID != roomID {
			c.Close(WrongRoomError, "token was issued for a different room")
			return
		}
		if err := room.MarkConnected(playerID, true); err != nil {
			c.Close(NotRoomMemberError, "you are not a player in this room")
			return
		}

		logger.WithFields(logrus.Fields{
			"room_id":   roomID,
			"player_id": playerID,
			"remote":    r.RemoteAddr,
		}).Info("websocket connected")

		ctx, cancel := context.WithCancel(r.Context())
		cl := &client{
			playerID: playerID,
			roomID:   roomID,
			conn:     c,
			out:      make(chan []byte, 64),
			cancel:   cancel,
		}
		s.addClient(cl)
		go cl.writePump(ctx, logger)

		// private state sync so reconnects resume mid-round
		s.sendToPlayer(roomID, playerID, snapshotEvent(room.Snapshot(playerID)))

		readActions(ctx, cl, room, s, logger)

		cancel()
		// a connection superseded by a reconnect must not vacate the seat;
		// only the player's current connection going away counts as leaving
		if s.removeClient(cl) {
			room.Leave(playerID)
		}
		c.Close(websocket.StatusNormalClosure, "bye")
		logger.WithFields(logrus.Fields{
			"room_id":   roomID,
			"player_id": playerID,
		}).Info("websocket disconnected")
	}
}

// snapshotEvent wraps a RoomState in the event envelope clients expect.
func snapshotEvent(st game.RoomState) game.Event {
	return game.Event{
		Type:    game.EventStateSync,
		Payload: map[string]interface{}{"state": st},
	}
}

// writePump drains the outbound channel onto the socket with a per-write
// timeout.
func (c *client) writePump(ctx context.Context, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.out:
			wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := c.conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("write to player %s failed: %v", c.playerID, err)
				return
			}
		}
	}
}

// readActions is the blocking inbound loop: one typed dispatch point per
// room connection. A panic in a transition fails only this action.
func readActions(ctx context.Context, cl *client, room *game.Room, s *Server, logger *logrus.Logger) {
	for {
		_, data, err := cl.conn.Read(ctx)
		if err != nil {
			return
		}

		var msg ActionMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendErrorTo(cl, "malformed action message")
			continue
		}

		if msg.Type == "leave_room" {
			return
		}
		dispatchAction(cl, room, s, logger, msg)
	}
}

func dispatchAction(cl *client, room *game.Room, s *Server, logger *logrus.Logger, msg ActionMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.WithField("panic", rec).Errorf("recovered panic handling %s for room %s", msg.Type, cl.roomID)
			s.sendErrorTo(cl, "internal_error")
		}
	}()

	var err error
	switch msg.Type {
	case "start_game":
		err = room.Start(cl.playerID)
	case "submit_card":
		var cardID uuid.UUID
		if cardID, err = uuid.Parse(msg.CardID); err != nil {
			err = game.ErrUnknownCard
			break
		}
		err = room.SubmitCard(cl.playerID, cardID)
	case "select_winner":
		var subID uuid.UUID
		if subID, err = uuid.Parse(msg.SubmissionID); err != nil {
			err = game.ErrUnknownCard
			break
		}
		err = room.SelectWinner(cl.playerID, subID)
	case "play_again":
		err = room.Reset(cl.playerID)
	case "chat":
		err = room.Chat(cl.playerID, msg.Msg)
	default:
		s.sendErrorTo(cl, "unknown action type")
		return
	}

	if err != nil {
		// typed rejection goes back to the requester only
		s.sendErrorTo(cl, errorCode(err))
	}
}

// sendErrorTo delivers an error event to a single requester.
func (s *Server) sendErrorTo(cl *client, reason string) {
	ev := game.Event{
		Type:    game.EventError,
		Payload: map[string]interface{}{"reason": reason},
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	cl.send(data, s.log)
}
