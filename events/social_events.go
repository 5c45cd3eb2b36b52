package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// InvitationSentEvent is emitted when a friend invitation was stored.
type InvitationSentEvent struct {
	InvitationID string    `json:"invitation_id"`
	FromUserID   string    `json:"from_user_id"`
	ToUserID     string    `json:"to_user_id"`
	Delivered    bool      `json:"delivered"`
	Timestamp    time.Time `json:"timestamp"`
}

// FriendAddedEvent is emitted when an accepted invitation created a friendship.
type FriendAddedEvent struct {
	FriendshipID string    `json:"friendship_id"`
	UserID1      string    `json:"user_id_1"`
	UserID2      string    `json:"user_id_2"`
	InitiatedBy  string    `json:"initiated_by"`
	Timestamp    time.Time `json:"timestamp"`
}

// Event definitions for the social domain.
var (
	InvitationSentV1 = helper.EventDefinition[InvitationSentEvent](
		"social",
		"InvitationSent",
		"v1",
	)

	FriendAddedV1 = helper.EventDefinition[FriendAddedEvent](
		"social",
		"FriendAdded",
		"v1",
	)
)
