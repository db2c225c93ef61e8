// internal/handlers/room.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/blanksgame/blanks/internal/auth"
	"github.com/blanksgame/blanks/internal/game"
)

type createRoomRequest struct {
	HostName string      `json:"hostName"`
	PackIDs  []uuid.UUID `json:"packIds,omitempty"`
	Password string      `json:"password,omitempty"`
}

type joinRoomRequest struct {
	RoomID   uuid.UUID `json:"roomId"`
	Name     string    `json:"name"`
	Password string    `json:"password,omitempty"`
}

type roomResponse struct {
	RoomID   uuid.UUID `json:"roomId"`
	PlayerID uuid.UUID `json:"playerId"`
	Name     string    `json:"name"`
}

// CreateRoomHandler builds a room in Lobby with the host seated, wires its
// broadcasts into the gateway, and issues the host's guest token cookie.
func CreateRoomHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad create request payload", http.StatusBadRequest)
			return
		}
		if req.HostName == "" {
			http.Error(w, "hostName is required", http.StatusBadRequest)
			return
		}

		opts := game.CreateOptions{PackIDs: req.PackIDs}
		if req.Password != "" {
			hash, err := auth.HashRoomPassword(req.Password)
			if err != nil {
				http.Error(w, "failed to hash password", http.StatusInternalServerError)
				return
			}
			opts.PasswordHash = hash
		}

		room, host, err := s.Rooms.CreateRoom(r.Context(), req.HostName, opts)
		if err != nil {
			writeGameError(w, err)
			return
		}
		s.wireRoom(room)

		if err := issueGuestCookie(w, host.ID, room.ID); err != nil {
			http.Error(w, "failed to issue token", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, roomResponse{
			RoomID:   room.ID,
			PlayerID: host.ID,
			Name:     host.Name,
		})
	}
}

// JoinRoomHandler seats a player in an existing room, enforcing the room
// password when one is set, and issues their guest token cookie.
func JoinRoomHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req joinRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad join request payload", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}

		room, ok := s.Rooms.GetRoom(req.RoomID)
		if !ok {
			writeGameError(w, game.ErrRoomNotFound)
			return
		}
		if room.PasswordHash != "" {
			match, err := auth.VerifyRoomPassword(req.Password, room.PasswordHash)
			if err != nil || !match {
				writeGameError(w, game.ErrWrongPassword)
				return
			}
		}

		player, err := room.Join(req.Name)
		if err != nil {
			writeGameError(w, err)
			return
		}

		if err := issueGuestCookie(w, player.ID, room.ID); err != nil {
			http.Error(w, "failed to issue token", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, roomResponse{
			RoomID:   room.ID,
			PlayerID: player.ID,
			Name:     player.Name,
		})
	}
}

// ListRoomsHandler returns public summaries of every live room.
func ListRoomsHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Rooms.ListRooms())
	}
}

// ListPacksHandler returns the card pack catalogue.
func ListPacksHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		packs, err := s.Rooms.Packs(r.Context())
		if err != nil {
			http.Error(w, "failed to list packs", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, packs)
	}
}

// InviteQRHandler renders a PNG QR code for a room's join link, so phones
// at the table can hop in without typing the id.
func InviteQRHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, err := uuid.Parse(r.URL.Query().Get("room_id"))
		if err != nil {
			http.Error(w, "invalid room_id", http.StatusBadRequest)
			return
		}
		if _, ok := s.Rooms.GetRoom(roomID); !ok {
			writeGameError(w, game.ErrRoomNotFound)
			return
		}

		base := os.Getenv("PUBLIC_URL")
		if base == "" {
			base = "http://localhost:8080"
		}
		joinURL := fmt.Sprintf("%s/join?room=%s", base, roomID)

		png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "failed to render qr code", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}
}

func issueGuestCookie(w http.ResponseWriter, playerID, roomID uuid.UUID) error {
	token, err := auth.CreateGuestToken(playerID, roomID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	return nil
}
