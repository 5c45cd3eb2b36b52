package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/example/social-chat/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ChatPort is the room read surface used by other modules.
type ChatPort interface {
	CreateRoom(ctx context.Context, id, name, description string) (*domain.RoomInfo, error)
	RoomExists(ctx context.Context, roomID string) (bool, error)
	GetHistory(ctx context.Context, roomID string, limit int) ([]domain.Message, error)
	GetMetadata(ctx context.Context, roomID string) (*domain.RoomInfo, error)
	ListRooms(ctx context.Context) ([]domain.RoomInfo, error)
}

// ChatAdapter implements ChatPort using the service container.
type ChatAdapter struct {
	container mono.ServiceContainer
}

// NewChatAdapter creates a new ChatAdapter.
func NewChatAdapter(container mono.ServiceContainer) ChatPort {
	if container == nil {
		panic("chat: ServiceContainer is nil")
	}
	return &ChatAdapter{container: container}
}

// CreateRoom creates a custom room.
func (a *ChatAdapter) CreateRoom(ctx context.Context, id, name, description string) (*domain.RoomInfo, error) {
	req := CreateRoomRequest{ID: id, Name: name, Description: description}
	var resp CreateRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCreateRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	if !resp.Created {
		if resp.Error == ErrRoomExists.Error() {
			return nil, ErrRoomExists
		}
		return nil, errors.New(resp.Error)
	}
	return resp.Room, nil
}

// RoomExists checks whether a room is present.
func (a *ChatAdapter) RoomExists(ctx context.Context, roomID string) (bool, error) {
	req := RoomExistsRequest{RoomID: roomID}
	var resp RoomExistsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRoomExists,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return false, fmt.Errorf("failed to check room: %w", err)
	}
	return resp.Exists, nil
}

// GetHistory retrieves the message history of a room.
func (a *ChatAdapter) GetHistory(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	req := GetHistoryRequest{RoomID: roomID, Limit: limit}
	var resp GetHistoryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetHistory,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	if !resp.Found {
		return nil, ErrRoomNotFound
	}
	return resp.Messages, nil
}

// GetMetadata retrieves room metadata.
func (a *ChatAdapter) GetMetadata(ctx context.Context, roomID string) (*domain.RoomInfo, error) {
	req := GetMetadataRequest{RoomID: roomID}
	var resp GetMetadataResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetMetadata,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if !resp.Found {
		return nil, ErrRoomNotFound
	}
	return resp.Room, nil
}

// ListRooms returns every room.
func (a *ChatAdapter) ListRooms(ctx context.Context) ([]domain.RoomInfo, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return resp.Rooms, nil
}
