// internal/handlers/server.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/blanksgame/blanks/internal/cache"
	"github.com/blanksgame/blanks/internal/game"
)

// Server is the event gateway: it owns the room registry, the live
// WebSocket connections, and the fan-out from room events to clients.
// Connections are kept here, not in the room, so broadcast callbacks
// invoked under a room's lock only ever touch the gateway's own mutex.
type Server struct {
	Rooms *game.RoomStore

	mu      sync.Mutex
	clients map[uuid.UUID]map[uuid.UUID]*client // room id -> player id -> client

	log *logrus.Logger
}

func NewServer(store *game.RoomStore, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{
		Rooms:   store,
		clients: make(map[uuid.UUID]map[uuid.UUID]*client),
		log:     logger,
	}
}

// wireRoom installs the gateway's broadcast functions and lifecycle hooks
// on a freshly created room. Called once per room, before any client can
// act on it.
func (s *Server) wireRoom(room *game.Room) {
	roomID := room.ID

	room.BroadcastFn = func(ev game.Event) {
		s.broadcast(roomID, ev)
	}
	room.BroadcastToPlayerFn = func(playerID uuid.UUID, ev game.Event) {
		s.sendToPlayer(roomID, playerID, ev)
	}
	room.OnGameEnd = func(sum game.Summary) {
		// push to the record queue off the room's lock
		go publishSummary(s.log, sum)
	}
	room.OnEmpty = func(id uuid.UUID) {
		s.Rooms.DeleteRoom(id)
		s.dropRoom(id)
	}
}

// broadcast fans an event out to every connected member of a room. It is
// called while the room lock is held, so it must never block: slow clients
// have the event dropped and will resync on their next snapshot.
func (s *Server) broadcast(roomID uuid.UUID, ev game.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.WithError(err).Errorf("failed to marshal event %s for room %s", ev.Type, roomID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients[roomID] {
		c.send(data, s.log)
	}
}

// sendToPlayer delivers a private event to a single member.
func (s *Server) sendToPlayer(roomID, playerID uuid.UUID, ev game.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.WithError(err).Errorf("failed to marshal private event %s for player %s", ev.Type, playerID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[roomID][playerID]; ok {
		c.send(data, s.log)
	}
}

// addClient registers a connection, replacing (and closing) any prior one
// for the same player.
func (s *Server) addClient(c *client) {
	s.mu.Lock()
	room, ok := s.clients[c.roomID]
	if !ok {
		room = make(map[uuid.UUID]*client)
		s.clients[c.roomID] = room
	}
	prev := room[c.playerID]
	room[c.playerID] = c
	s.mu.Unlock()

	if prev != nil {
		prev.close()
	}
}

// removeClient unregisters a connection if it is still the player's
// current one. It reports false when the connection was already replaced
// by a newer one, so the caller knows the player still holds their seat.
func (s *Server) removeClient(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.clients[c.roomID][c.playerID]; ok && cur == c {
		delete(s.clients[c.roomID], c.playerID)
		if len(s.clients[c.roomID]) == 0 {
			delete(s.clients, c.roomID)
		}
		return true
	}
	return false
}

// dropRoom closes every connection of a removed room.
func (s *Server) dropRoom(roomID uuid.UUID) {
	s.mu.Lock()
	conns := s.clients[roomID]
	delete(s.clients, roomID)
	s.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}

func publishSummary(log *logrus.Logger, sum game.Summary) {
	rec := cache.GameRecord{
		RoomID:  sum.RoomID,
		Rounds:  sum.Rounds,
		Reason:  sum.Reason,
		EndedAt: sum.EndedAt.Unix(),
	}
	for _, st := range sum.Standings {
		rec.Standings = append(rec.Standings, cache.PlayerScore{
			PlayerID: st.Player.ID,
			Name:     st.Player.Name,
			Score:    st.Score,
		})
	}
	for _, w := range sum.Winners {
		rec.Winners = append(rec.Winners, w.ID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cache.PublishGameRecord(ctx, rec); err != nil {
		log.WithError(err).Warnf("failed to publish game record for room %s", sum.RoomID)
	}
}
