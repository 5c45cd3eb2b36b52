package chat

import (
	"strings"
	"unicode"
	"unicode/utf8"

	domain "github.com/example/social-chat/domain/chat"
)

// Validation constants
const (
	MaxRoomIDLength   = 64
	MaxRoomNameLength = 100
	MaxMessageLength  = 5000
)

// Service names registered by the chat module.
const (
	ServiceCreateRoom  = "create-room"
	ServiceRoomExists  = "room-exists"
	ServiceGetHistory  = "get-history"
	ServiceGetMetadata = "get-metadata"
	ServiceListRooms   = "list-rooms"
)

// ValidateRoomID validates a room id.
func ValidateRoomID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrRoomIDEmpty
	}
	if len(id) > MaxRoomIDLength {
		return ErrRoomIDTooLong
	}
	if !utf8.ValidString(id) || strings.IndexFunc(id, unicode.IsControl) >= 0 {
		return ErrRoomInvalid
	}
	return nil
}

// ValidateRoomName validates an optional room display name.
func ValidateRoomName(name string) error {
	if len(name) > MaxRoomNameLength {
		return ErrRoomNameTooLong
	}
	if !utf8.ValidString(name) {
		return ErrRoomInvalid
	}
	return nil
}

// ValidateMessage validates a message body.
func ValidateMessage(body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrMessageEmpty
	}
	if len(body) > MaxMessageLength {
		return ErrMessageTooLong
	}
	if !utf8.ValidString(body) {
		return ErrMessageInvalid
	}
	return nil
}

// CreateRoomRequest is the request for the create-room service.
type CreateRoomRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateRoomResponse is the response of the create-room service.
type CreateRoomResponse struct {
	Room    *domain.RoomInfo `json:"room,omitempty"`
	Created bool             `json:"created"`
	Error   string           `json:"error,omitempty"`
}

// RoomExistsRequest is the request for the room-exists service.
type RoomExistsRequest struct {
	RoomID string `json:"room_id"`
}

// RoomExistsResponse is the response of the room-exists service.
type RoomExistsResponse struct {
	Exists bool `json:"exists"`
}

// GetHistoryRequest is the request for the get-history service.
type GetHistoryRequest struct {
	RoomID string `json:"room_id"`
	Limit  int    `json:"limit"`
}

// GetHistoryResponse is the response of the get-history service.
type GetHistoryResponse struct {
	Found    bool             `json:"found"`
	Messages []domain.Message `json:"messages"`
}

// GetMetadataRequest is the request for the get-metadata service.
type GetMetadataRequest struct {
	RoomID string `json:"room_id"`
}

// GetMetadataResponse is the response of the get-metadata service.
type GetMetadataResponse struct {
	Found bool             `json:"found"`
	Room  *domain.RoomInfo `json:"room,omitempty"`
}

// ListRoomsRequest is the request for the list-rooms service.
type ListRoomsRequest struct{}

// ListRoomsResponse is the response of the list-rooms service.
type ListRoomsResponse struct {
	Rooms []domain.RoomInfo `json:"rooms"`
}
