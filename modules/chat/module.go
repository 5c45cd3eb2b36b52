package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/example/social-chat/domain/chat"
	"github.com/example/social-chat/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module implements the chat module: it owns the hub and exposes the room
// table as request-reply services.
type Module struct {
	hub      *Hub
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ Notifier                   = (*Module)(nil)
)

// NewModule creates a new chat module.
func NewModule(logger types.Logger) *Module {
	m := &Module{logger: logger}
	m.hub = NewHub(logger, WithNotifier(m))
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// Hub returns the connection hub.
func (m *Module) Hub() *Hub {
	return m.hub
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
		events.UserJoinedV1.ToBase(),
		events.UserLeftV1.ToBase(),
		events.RoomCreatedV1.ToBase(),
		events.RoomDeletedV1.ToBase(),
		events.IdentityUpdatedV1.ToBase(),
	}
}

// Notify publishes a hub event on the EventBus.
func (m *Module) Notify(_ context.Context, event any) {
	if m.eventBus == nil {
		return
	}
	var err error
	switch e := event.(type) {
	case events.MessageSentEvent:
		err = events.MessageSentV1.Publish(m.eventBus, e, nil)
	case events.UserJoinedEvent:
		err = events.UserJoinedV1.Publish(m.eventBus, e, nil)
	case events.UserLeftEvent:
		err = events.UserLeftV1.Publish(m.eventBus, e, nil)
	case events.RoomCreatedEvent:
		err = events.RoomCreatedV1.Publish(m.eventBus, e, nil)
	case events.RoomDeletedEvent:
		err = events.RoomDeletedV1.Publish(m.eventBus, e, nil)
	case events.IdentityUpdatedEvent:
		err = events.IdentityUpdatedV1.Publish(m.eventBus, e, nil)
	default:
		m.logger.Warn("Ignoring unknown chat event", "event", fmt.Sprintf("%T", event))
		return
	}
	if err != nil {
		m.logger.Warn("Failed to publish chat event", "event", fmt.Sprintf("%T", event), "error", err)
	}
}

// RegisterServices registers the room read surface.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateRoom, json.Unmarshal, json.Marshal, m.createRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateRoom, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRoomExists, json.Unmarshal, json.Marshal, m.roomExists,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRoomExists, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetHistory, json.Unmarshal, json.Marshal, m.getHistory,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetHistory, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetMetadata, json.Unmarshal, json.Marshal, m.getMetadata,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetMetadata, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListRooms, json.Unmarshal, json.Marshal, m.listRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}

	m.logger.Info("Registered chat services",
		"services", []string{ServiceCreateRoom, ServiceRoomExists, ServiceGetHistory, ServiceGetMetadata, ServiceListRooms})
	return nil
}

func (m *Module) createRoom(ctx context.Context, req CreateRoomRequest, _ *mono.Msg) (CreateRoomResponse, error) {
	id := req.ID
	if id == "" {
		id = m.hub.roomID()
	}
	var (
		info domain.RoomInfo
		err  error
	)
	m.hub.Router().Exclusive(func() {
		info, err = m.hub.Rooms().Create(ctx, domain.RoomInfo{
			ID:          id,
			Name:        req.Name,
			Description: req.Description,
			IsCustom:    true,
		})
	})
	if err != nil {
		return CreateRoomResponse{Error: err.Error()}, nil
	}

	m.Notify(ctx, events.RoomCreatedEvent{
		RoomID:    info.ID,
		RoomName:  info.Name,
		IsCustom:  true,
		Timestamp: info.CreatedAt,
	})
	m.hub.BroadcastGlobal(KindRoomCreated, RoomCreatedPayload{Room: info})
	return CreateRoomResponse{Room: &info, Created: true}, nil
}

func (m *Module) roomExists(ctx context.Context, req RoomExistsRequest, _ *mono.Msg) (RoomExistsResponse, error) {
	return RoomExistsResponse{Exists: m.hub.Rooms().Exists(ctx, req.RoomID)}, nil
}

func (m *Module) getHistory(ctx context.Context, req GetHistoryRequest, _ *mono.Msg) (GetHistoryResponse, error) {
	messages, err := m.hub.Rooms().GetHistory(ctx, req.RoomID, req.Limit)
	if errors.Is(err, ErrRoomNotFound) {
		return GetHistoryResponse{Found: false, Messages: []domain.Message{}}, nil
	}
	if err != nil {
		return GetHistoryResponse{}, err
	}
	return GetHistoryResponse{Found: true, Messages: messages}, nil
}

func (m *Module) getMetadata(ctx context.Context, req GetMetadataRequest, _ *mono.Msg) (GetMetadataResponse, error) {
	info, err := m.hub.Rooms().GetMetadata(ctx, req.RoomID)
	if errors.Is(err, ErrRoomNotFound) {
		return GetMetadataResponse{Found: false}, nil
	}
	if err != nil {
		return GetMetadataResponse{}, err
	}
	return GetMetadataResponse{Found: true, Room: &info}, nil
}

func (m *Module) listRooms(_ context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	return ListRoomsResponse{Rooms: m.hub.Rooms().List()}, nil
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	if m.eventBus == nil {
		m.logger.Warn("EventBus not set, chat events will not be published")
	}
	m.logger.Info("Chat module started")
	return nil
}

// Stop closes every open connection.
func (m *Module) Stop(_ context.Context) error {
	conns := m.hub.Registry().All()
	for _, conn := range conns {
		_ = conn.Close()
	}
	m.logger.Info("Chat module stopped", "connections", len(conns))
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connections": m.hub.Registry().Count(),
			"rooms":       m.hub.Rooms().Len(),
		},
	}
}
