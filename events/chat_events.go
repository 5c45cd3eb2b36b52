package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MessageSentEvent is emitted after a chat message was appended to a room.
type MessageSentEvent struct {
	MessageID string    `json:"message_id"`
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// UserJoinedEvent is emitted when a connection joins a room.
type UserJoinedEvent struct {
	RoomID       string    `json:"room_id"`
	UserID       string    `json:"user_id"`
	ConnectionID string    `json:"connection_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// UserLeftEvent is emitted when a connection leaves a room, including on disconnect.
type UserLeftEvent struct {
	RoomID       string    `json:"room_id"`
	UserID       string    `json:"user_id"`
	ConnectionID string    `json:"connection_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// RoomCreatedEvent is emitted when a room is added to the room table.
type RoomCreatedEvent struct {
	RoomID    string    `json:"room_id"`
	RoomName  string    `json:"room_name"`
	IsCustom  bool      `json:"is_custom"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomDeletedEvent is emitted when an empty room is removed from the room table.
type RoomDeletedEvent struct {
	RoomID    string    `json:"room_id"`
	Timestamp time.Time `json:"timestamp"`
}

// IdentityUpdatedEvent is emitted after a connection changed its handle.
type IdentityUpdatedEvent struct {
	ConnectionID string    `json:"connection_id"`
	OldUserID    string    `json:"old_user_id"`
	NewUserID    string    `json:"new_user_id"`
	NewName      string    `json:"new_name"`
	Timestamp    time.Time `json:"timestamp"`
}

// Event definitions for the chat domain.
var (
	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"chat",
		"MessageSent",
		"v1",
	)

	UserJoinedV1 = helper.EventDefinition[UserJoinedEvent](
		"chat",
		"UserJoined",
		"v1",
	)

	UserLeftV1 = helper.EventDefinition[UserLeftEvent](
		"chat",
		"UserLeft",
		"v1",
	)

	RoomCreatedV1 = helper.EventDefinition[RoomCreatedEvent](
		"chat",
		"RoomCreated",
		"v1",
	)

	RoomDeletedV1 = helper.EventDefinition[RoomDeletedEvent](
		"chat",
		"RoomDeleted",
		"v1",
	)

	IdentityUpdatedV1 = helper.EventDefinition[IdentityUpdatedEvent](
		"chat",
		"IdentityUpdated",
		"v1",
	)
)
