package social

import (
	domain "github.com/example/social-chat/domain/social"
)

// Service names registered by the social module.
const (
	ServicePendingInvitations = "pending-invitations"
	ServiceListFriends        = "list-friends"
)

// PendingInvitationsRequest is the request for the pending-invitations service.
type PendingInvitationsRequest struct {
	UserID string `json:"user_id"`
}

// PendingInvitationsResponse splits pending invitations by direction.
type PendingInvitationsResponse struct {
	Incoming []domain.Invitation `json:"incoming"`
	Outgoing []domain.Invitation `json:"outgoing"`
}

// ListFriendsRequest is the request for the list-friends service.
type ListFriendsRequest struct {
	UserID string `json:"user_id"`
}

// ListFriendsResponse is the response of the list-friends service.
type ListFriendsResponse struct {
	Friendships []domain.Friendship `json:"friendships"`
}
