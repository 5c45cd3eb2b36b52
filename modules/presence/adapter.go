package presence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// PresencePort answers presence queries for other modules.
type PresencePort interface {
	GetPresence(ctx context.Context, userID string) (*Status, error)
}

// PresenceAdapter implements PresencePort using the service container.
type PresenceAdapter struct {
	container mono.ServiceContainer
}

// NewPresenceAdapter creates a new PresenceAdapter.
func NewPresenceAdapter(container mono.ServiceContainer) PresencePort {
	if container == nil {
		panic("presence: ServiceContainer is nil")
	}
	return &PresenceAdapter{container: container}
}

// GetPresence retrieves the presence of a user.
func (a *PresenceAdapter) GetPresence(ctx context.Context, userID string) (*Status, error) {
	req := GetPresenceRequest{UserID: userID}
	var resp GetPresenceResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetPresence,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}
	return &resp.Presence, nil
}
