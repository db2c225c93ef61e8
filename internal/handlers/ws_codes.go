// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the room gateway. These give clients
// more specific reasons for closure than the standard codes.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Guest token was invalid or expired.
	WrongRoomError        = 3002 // Guest token was issued for a different room.
	NotRoomMemberError    = 3003 // Token's player is not seated in the target room.
)
