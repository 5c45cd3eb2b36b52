package api

import (
	"time"

	domain "github.com/example/social-chat/domain/chat"
	social "github.com/example/social-chat/domain/social"
)

// CreateRoomRequest is the API request to create a room.
type CreateRoomRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RoomResponse is the API response for a room.
type RoomResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsCustom    bool      `json:"is_custom"`
	CreatedAt   time.Time `json:"created_at"`
	Members     int       `json:"members"`
}

// RoomListResponse is the API response for listing rooms.
type RoomListResponse struct {
	Rooms []RoomResponse `json:"rooms"`
}

// HistoryResponse is the API response for message history.
type HistoryResponse struct {
	RoomID   string           `json:"room_id"`
	Messages []domain.Message `json:"messages"`
}

// InvitationsResponse is the API response for pending invitations.
type InvitationsResponse struct {
	UserID   string              `json:"user_id"`
	Incoming []social.Invitation `json:"incoming"`
	Outgoing []social.Invitation `json:"outgoing"`
}

// FriendResponse is one entry of a friend list.
type FriendResponse struct {
	FriendshipID string    `json:"friendship_id"`
	UserID       string    `json:"user_id"`
	InitiatedBy  string    `json:"initiated_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// FriendListResponse is the API response for a friend list.
type FriendListResponse struct {
	UserID  string           `json:"user_id"`
	Friends []FriendResponse `json:"friends"`
}

// PresenceResponse is the API response for a presence query.
type PresenceResponse struct {
	UserID      string    `json:"user_id"`
	Online      bool      `json:"online"`
	RoomID      string    `json:"room_id,omitempty"`
	Connections int       `json:"connections"`
	LastSeen    time.Time `json:"last_seen,omitempty"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

func newRoomResponse(room domain.RoomInfo) RoomResponse {
	return RoomResponse{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		IsCustom:    room.IsCustom,
		CreatedAt:   room.CreatedAt,
		Members:     room.Members,
	}
}
