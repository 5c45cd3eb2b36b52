package chat

import (
	"encoding/json"
	"time"

	domain "github.com/example/social-chat/domain/chat"
	social "github.com/example/social-chat/domain/social"
)

// Kind is the type discriminator of a wire message.
type Kind string

// Client to server kinds.
const (
	KindIdentityHello         Kind = "identity-hello"
	KindRoomChange            Kind = "room-change"
	KindRoomCreate            Kind = "room-create"
	KindRoomLeave             Kind = "room-leave"
	KindChatSend              Kind = "chat-send"
	KindTypingStart           Kind = "typing-start"
	KindTypingStop            Kind = "typing-stop"
	KindIdentityUpdateRequest Kind = "identity-update-request"
	KindInvitationSend        Kind = "invitation-send"
	KindInvitationAccept      Kind = "invitation-accept"
	KindInvitationDecline     Kind = "invitation-decline"
	KindInvitationCancel      Kind = "invitation-cancel"
)

// Server to client kinds. Typing kinds are relayed unchanged.
const (
	KindConnected           Kind = "connected"
	KindChatBroadcast       Kind = "chat-broadcast"
	KindUserJoined          Kind = "user-joined"
	KindUserLeft            Kind = "user-left"
	KindRoomUsersSnapshot   Kind = "room-users-snapshot"
	KindRoomCreated         Kind = "room-created"
	KindIdentityUpdateError Kind = "identity-update-error"
	KindIdentityUpdated     Kind = "identity-updated"
	KindInvitationReceived  Kind = "invitation-received"
	KindInvitationSentAck   Kind = "invitation-sent-ack"
	KindInvitationAccepted  Kind = "invitation-accepted"
	KindInvitationDeclined  Kind = "invitation-declined"
	KindInvitationCancelled Kind = "invitation-cancelled"
	KindFriendAdded         Kind = "friend-added"
	KindError               Kind = "error"
)

var inboundKinds = map[Kind]struct{}{
	KindIdentityHello:         {},
	KindRoomChange:            {},
	KindRoomCreate:            {},
	KindRoomLeave:             {},
	KindChatSend:              {},
	KindTypingStart:           {},
	KindTypingStop:            {},
	KindIdentityUpdateRequest: {},
	KindInvitationSend:        {},
	KindInvitationAccept:      {},
	KindInvitationDecline:     {},
	KindInvitationCancel:      {},
}

// Inbound reports whether clients are allowed to send k.
func (k Kind) Inbound() bool {
	_, ok := inboundKinds[k]
	return ok
}

// InboundKinds returns every kind a client may send.
func InboundKinds() []Kind {
	kinds := make([]Kind, 0, len(inboundKinds))
	for k := range inboundKinds {
		kinds = append(kinds, k)
	}
	return kinds
}

// Envelope is the frame exchanged over a connection.
type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// IdentityHelloPayload announces the identity of a connection.
type IdentityHelloPayload struct {
	Identity domain.Identity `json:"identity"`
}

// RoomChangePayload moves a connection into a room.
type RoomChangePayload struct {
	Room domain.RoomRef `json:"room"`
}

// RoomCreatePayload creates a custom room with explicit metadata.
type RoomCreatePayload struct {
	Room struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"room"`
}

// ChatSendPayload is a chat message sent by a client.
type ChatSendPayload struct {
	MessageID       string         `json:"messageId"`
	Body            string         `json:"body"`
	Room            domain.RoomRef `json:"room"`
	ClientTimestamp time.Time      `json:"clientTimestamp"`
}

// TypingPayload is relayed to the other members of a room.
type TypingPayload struct {
	User *domain.Identity `json:"user,omitempty"`
	Room domain.RoomRef   `json:"room"`
}

// MembershipPayload announces a join or leave.
type MembershipPayload struct {
	User            *domain.Identity `json:"user,omitempty"`
	Room            domain.RoomRef   `json:"room"`
	ServerTimestamp time.Time        `json:"serverTimestamp"`
}

// RoomUsersSnapshotPayload lists the members of a room. It is only sent to the joiner.
type RoomUsersSnapshotPayload struct {
	Users []domain.Identity `json:"users"`
	Room  domain.RoomRef    `json:"room"`
}

// RoomCreatedPayload announces a newly created custom room.
type RoomCreatedPayload struct {
	Room domain.RoomInfo `json:"room"`
}

// ConnectedPayload is the first frame a connection receives.
type ConnectedPayload struct {
	ConnectionID string `json:"connectionId"`
}

// IdentityUpdateRequestPayload asks to change the handle of a connection.
type IdentityUpdateRequestPayload struct {
	ProposedIdentity domain.Identity `json:"proposedIdentity"`
}

// IdentityUpdateErrorPayload rejects an identity update.
type IdentityUpdateErrorPayload struct {
	Error string    `json:"error"`
	Code  ErrorCode `json:"code"`
}

// IdentityUpdatedPayload is broadcast to every connection after a handle change.
type IdentityUpdatedPayload struct {
	OldUser domain.Identity `json:"oldUser"`
	NewUser domain.Identity `json:"newUser"`
}

// InvitationSendPayload asks to invite another user.
type InvitationSendPayload struct {
	ToUserID string `json:"toUserId"`
	Message  string `json:"message,omitempty"`
}

// InvitationActionPayload accepts, declines or cancels an invitation.
type InvitationActionPayload struct {
	InvitationID      string `json:"invitationId"`
	CounterpartUserID string `json:"counterpartUserId"`
}

// InvitationPayload carries an invitation record.
type InvitationPayload struct {
	Invitation social.Invitation `json:"invitation"`
}

// InvitationSentAckPayload answers an invitation-send.
type InvitationSentAckPayload struct {
	Success    bool               `json:"success"`
	Invitation *social.Invitation `json:"invitation,omitempty"`
	Error      string             `json:"error,omitempty"`
	Code       ErrorCode          `json:"code,omitempty"`
	IsOnline   bool               `json:"isOnline"`
}

// FriendAddedPayload tells one side of a new friendship about the other side.
type FriendAddedPayload struct {
	FriendshipData social.Friendship `json:"friendshipData"`
	NewFriend      domain.Identity   `json:"newFriend"`
}

// ErrorPayload is the generic failure reply.
type ErrorPayload struct {
	Code        ErrorCode `json:"code"`
	Error       string    `json:"error"`
	RequestType Kind      `json:"requestType,omitempty"`
}

// Encode marshals payload into a frame of the given kind.
func Encode(kind Kind, payload any) ([]byte, error) {
	env := Envelope{Type: kind}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = data
	}
	return json.Marshal(env)
}
