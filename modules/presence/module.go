package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/social-chat/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Module is an EventConsumerModule that tracks presence from chat events.
type Module struct {
	tracker       *Tracker
	cancelTracker context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new presence module.
func NewModule() *Module {
	return &Module{
		tracker: NewTracker(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "presence"
}

// Start starts the tracker loop.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelTracker = cancel
	go m.tracker.Run(ctx)
	log.Println("[presence] Module started - tracker running")
	return nil
}

// Stop shuts down the tracker loop.
func (m *Module) Stop(_ context.Context) error {
	online := m.tracker.OnlineCount()
	if m.cancelTracker != nil {
		m.cancelTracker()
		m.tracker.Wait()
	}
	log.Printf("[presence] Module stopped - %d users were online", online)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"online_users": m.tracker.OnlineCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserJoinedV1, m.handleUserJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register UserJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserLeftV1, m.handleUserLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register UserLeft consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.IdentityUpdatedV1, m.handleIdentityUpdated, m,
	); err != nil {
		return fmt.Errorf("failed to register IdentityUpdated consumer: %w", err)
	}

	log.Println("[presence] Registered event consumers: UserJoined, UserLeft, IdentityUpdated")
	return nil
}

// RegisterServices registers the get-presence service.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetPresence, json.Unmarshal, json.Marshal, m.getPresence,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetPresence, err)
	}
	log.Printf("[presence] Registered services: services.presence.%s", ServiceGetPresence)
	return nil
}

// Event handlers

func (m *Module) handleUserJoined(_ context.Context, event events.UserJoinedEvent, _ *mono.Msg) error {
	m.tracker.Joined(event.UserID, event.ConnectionID, event.RoomID, event.Timestamp)
	return nil
}

func (m *Module) handleUserLeft(_ context.Context, event events.UserLeftEvent, _ *mono.Msg) error {
	m.tracker.Left(event.UserID, event.ConnectionID, event.RoomID, event.Timestamp)
	return nil
}

func (m *Module) handleIdentityUpdated(_ context.Context, event events.IdentityUpdatedEvent, _ *mono.Msg) error {
	log.Printf("[presence] Identity renamed: %s -> %s", event.OldUserID, event.NewUserID)
	m.tracker.Renamed(event.OldUserID, event.NewUserID, event.ConnectionID, event.Timestamp)
	return nil
}

func (m *Module) getPresence(_ context.Context, req GetPresenceRequest, _ *mono.Msg) (GetPresenceResponse, error) {
	return GetPresenceResponse{Presence: m.tracker.Get(req.UserID)}, nil
}
