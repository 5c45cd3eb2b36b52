package chat

import "time"

// Identity is the identity a client asserts over its connection.
// It is trusted as-is; authentication happens upstream of the chat core.
type Identity struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// RoomRef references a room by id inside wire payloads.
type RoomRef struct {
	ID string `json:"id"`
}

// RoomInfo is the metadata of a chat room.
type RoomInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsCustom    bool      `json:"isCustom"`
	CreatedAt   time.Time `json:"createdAt"`
	Members     int       `json:"members"`
}

// Message is a chat message as stored in room history and broadcast to members.
type Message struct {
	MessageID       string    `json:"messageId"`
	Sender          *Identity `json:"sender,omitempty"`
	Room            RoomRef   `json:"room"`
	Body            string    `json:"body"`
	ClientTimestamp time.Time `json:"clientTimestamp"`
	ServerTimestamp time.Time `json:"serverTimestamp"`
	IsSystemMessage bool      `json:"isSystemMessage,omitempty"`
}
