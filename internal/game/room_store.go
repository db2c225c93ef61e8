// internal/game/room_store.go
package game

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/blanksgame/blanks/internal/models"
)

// CardSource provides pack contents at room-load time. The room core treats
// the source as read-only injected configuration; implementations live in
// the database package (postgres) and the deck package (static).
type CardSource interface {
	Packs(ctx context.Context) ([]models.Pack, error)
	Cards(ctx context.Context, packIDs []uuid.UUID) ([]*models.Card, error)
}

// RoomStore is the process-wide registry of live rooms. It synchronizes
// only its own map; everything inside a room is serialized by that room.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room

	cfg    Config
	source CardSource
	log    *logrus.Logger
}

// CreateOptions carries the optional knobs for room creation.
type CreateOptions struct {
	PackIDs      []uuid.UUID
	PasswordHash string
}

func NewRoomStore(cfg Config, source CardSource, logger *logrus.Logger) *RoomStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &RoomStore{
		rooms:  make(map[uuid.UUID]*Room),
		cfg:    cfg,
		source: source,
		log:    logger,
	}
}

// CreateRoom allocates a fresh room with a pool loaded from the card
// source and seats the host. The room registers itself for removal once
// empty or torn down.
func (s *RoomStore) CreateRoom(ctx context.Context, hostName string, opts CreateOptions) (*Room, *models.Player, error) {
	cards, err := s.source.Cards(ctx, opts.PackIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("loading cards: %w", err)
	}
	if len(cards) == 0 {
		return nil, nil, ErrPoolExhausted
	}

	room := NewRoom(s.cfg, cards, s.log)
	room.PasswordHash = opts.PasswordHash
	room.OnEmpty = func(roomID uuid.UUID) {
		s.DeleteRoom(roomID)
	}

	host, err := room.Join(hostName)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	s.rooms[room.ID] = room
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"room_id": room.ID,
		"host":    hostName,
		"cards":   len(cards),
	}).Info("room created")
	return room, host, nil
}

// GetRoom retrieves a room if it exists.
func (s *RoomStore) GetRoom(id uuid.UUID) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// DeleteRoom removes a room from the registry.
func (s *RoomStore) DeleteRoom(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

// ListRooms returns public summaries for every live room.
func (s *RoomStore) ListRooms() []RoomInfo {
	s.mu.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.Unlock()

	// Info takes each room's own lock; do it outside the registry lock.
	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Info())
	}
	return out
}

// Packs exposes the pack catalogue of the configured source.
func (s *RoomStore) Packs(ctx context.Context) ([]models.Pack, error) {
	return s.source.Packs(ctx)
}
