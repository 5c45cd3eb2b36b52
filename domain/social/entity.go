package social

import (
	"time"

	"github.com/example/social-chat/domain/chat"
)

// InvitationStatus is the lifecycle state of a friend invitation.
type InvitationStatus string

const (
	StatusPending   InvitationStatus = "pending"
	StatusAccepted  InvitationStatus = "accepted"
	StatusDeclined  InvitationStatus = "declined"
	StatusCancelled InvitationStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s InvitationStatus) IsTerminal() bool {
	return s != StatusPending
}

// Invitation is a friend invitation between two logical identities.
type Invitation struct {
	ID         string           `json:"id"`
	FromUserID string           `json:"fromUserId"`
	ToUserID   string           `json:"toUserId"`
	Message    string           `json:"message,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
	Status     InvitationStatus `json:"status"`
}

// Friendship links two identities. UserID1 and UserID2 are stored in
// lexical order so the pair is unordered.
type Friendship struct {
	ID          string    `json:"id"`
	UserID1     string    `json:"userId1"`
	UserID2     string    `json:"userId2"`
	InitiatedBy string    `json:"initiatedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Other returns the member of the pair that is not userID.
func (f Friendship) Other(userID string) string {
	if f.UserID1 == userID {
		return f.UserID2
	}
	return f.UserID1
}

// User is a directory record for a known identity.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`
}

// Snapshot converts a directory record into a wire identity.
func (u User) Snapshot() chat.Identity {
	return chat.Identity{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}
