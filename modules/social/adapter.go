package social

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/social-chat/domain/social"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// SocialPort is the social read surface used by other modules.
type SocialPort interface {
	PendingInvitations(ctx context.Context, userID string) (*PendingInvitationsResponse, error)
	ListFriends(ctx context.Context, userID string) ([]domain.Friendship, error)
}

// SocialAdapter implements SocialPort using the service container.
type SocialAdapter struct {
	container mono.ServiceContainer
}

// NewSocialAdapter creates a new SocialAdapter.
func NewSocialAdapter(container mono.ServiceContainer) SocialPort {
	if container == nil {
		panic("social: ServiceContainer is nil")
	}
	return &SocialAdapter{container: container}
}

// PendingInvitations retrieves the pending invitations of a user.
func (a *SocialAdapter) PendingInvitations(ctx context.Context, userID string) (*PendingInvitationsResponse, error) {
	req := PendingInvitationsRequest{UserID: userID}
	var resp PendingInvitationsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServicePendingInvitations,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get invitations: %w", err)
	}
	return &resp, nil
}

// ListFriends retrieves the friendships of a user.
func (a *SocialAdapter) ListFriends(ctx context.Context, userID string) ([]domain.Friendship, error) {
	req := ListFriendsRequest{UserID: userID}
	var resp ListFriendsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListFriends,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return resp.Friendships, nil
}
