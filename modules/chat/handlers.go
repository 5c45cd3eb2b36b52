package chat

import (
	"context"
	"encoding/json"
	"errors"

	domain "github.com/example/social-chat/domain/chat"
	"github.com/example/social-chat/events"
)

func (h *Hub) registerHandlers() {
	h.router.Handle(KindIdentityHello, h.handleHello)
	h.router.Handle(KindRoomChange, h.handleRoomChange)
	h.router.Handle(KindRoomCreate, h.handleRoomCreate)
	h.router.Handle(KindRoomLeave, h.handleRoomLeave)
	h.router.Handle(KindChatSend, h.handleChatSend)
	h.router.Handle(KindTypingStart, h.typingRelay(KindTypingStart))
	h.router.Handle(KindTypingStop, h.typingRelay(KindTypingStop))
}

func (h *Hub) handleHello(ctx context.Context, conn *Connection, payload json.RawMessage) error {
	var req IdentityHelloPayload
	if err := DecodePayload(payload, &req); err != nil {
		return err
	}
	if req.Identity.ID == "" {
		return WrapError(CodeValidationFailed, ErrIdentityEmpty.Error(), ErrIdentityEmpty)
	}
	if req.Identity.Name == "" {
		req.Identity.Name = req.Identity.ID
	}

	conn.SetIdentity(req.Identity)
	for _, fn := range h.onIdentify {
		fn(ctx, req.Identity)
	}
	h.logger.Info("Connection identified", "connectionID", conn.ID(), "userID", req.Identity.ID)
	return nil
}

func (h *Hub) handleRoomChange(ctx context.Context, conn *Connection, payload json.RawMessage) error {
	var req RoomChangePayload
	if err := DecodePayload(payload, &req); err != nil {
		return err
	}
	if err := RequireIdentity(conn); err != nil {
		return err
	}

	tr, err := h.rooms.ChangeRoom(conn, req.Room.ID)
	switch {
	case errors.Is(err, ErrAlreadyInRoom):
		return WrapError(CodeConflict, err.Error(), err)
	case err != nil:
		return WrapError(CodeValidationFailed, err.Error(), err)
	}

	h.publishTransition(ctx, conn, tr)
	h.logger.Info("User changed room", "userID", conn.IdentityID(), "from", tr.From, "to", tr.To)
	return nil
}

func (h *Hub) handleRoomCreate(ctx context.Context, conn *Connection, payload json.RawMessage) error {
	var req RoomCreatePayload
	if err := DecodePayload(payload, &req); err != nil {
		return err
	}
	id := req.Room.ID
	if id == "" {
		id = h.roomID()
	}

	info, err := h.rooms.Create(ctx, domain.RoomInfo{
		ID:          id,
		Name:        req.Room.Name,
		Description: req.Room.Description,
		IsCustom:    true,
	})
	switch {
	case errors.Is(err, ErrRoomExists):
		return WrapError(CodeConflict, err.Error(), err)
	case err != nil:
		return WrapError(CodeValidationFailed, err.Error(), err)
	}

	h.notifier.Notify(ctx, events.RoomCreatedEvent{
		RoomID:    info.ID,
		RoomName:  info.Name,
		IsCustom:  true,
		Timestamp: info.CreatedAt,
	})
	h.BroadcastGlobal(KindRoomCreated, RoomCreatedPayload{Room: info})
	h.logger.Info("Room created", "roomID", info.ID, "connectionID", conn.ID())
	return nil
}

func (h *Hub) handleRoomLeave(ctx context.Context, conn *Connection, _ json.RawMessage) error {
	if conn.RoomID() == "" {
		return WrapError(CodeUnknownRoom, ErrNotInRoom.Error(), ErrNotInRoom)
	}
	tr := h.rooms.Leave(conn)
	h.publishTransition(ctx, conn, tr)
	return nil
}

func (h *Hub) handleChatSend(ctx context.Context, conn *Connection, payload json.RawMessage) error {
	var req ChatSendPayload
	if err := DecodePayload(payload, &req); err != nil {
		return err
	}
	if err := RequireIdentity(conn); err != nil {
		return err
	}
	room, err := h.currentRoom(conn, req.Room.ID)
	if err != nil {
		return err
	}
	if err := ValidateMessage(req.Body); err != nil {
		return WrapError(CodeValidationFailed, err.Error(), err)
	}

	msg := domain.Message{
		MessageID:       req.MessageID,
		Sender:          conn.Identity(),
		Room:            domain.RoomRef{ID: room.ID()},
		Body:            req.Body,
		ClientTimestamp: req.ClientTimestamp,
		ServerTimestamp: h.now(),
	}
	if msg.MessageID == "" {
		msg.MessageID = h.newID()
	}
	room.AppendAndBroadcast(msg)

	h.notifier.Notify(ctx, events.MessageSentEvent{
		MessageID: msg.MessageID,
		RoomID:    room.ID(),
		UserID:    msg.Sender.ID,
		Body:      msg.Body,
		Timestamp: msg.ServerTimestamp,
	})
	h.logger.Debug("Message sent", "userID", msg.Sender.ID, "roomID", room.ID())
	return nil
}

func (h *Hub) typingRelay(kind Kind) HandlerFunc {
	return func(_ context.Context, conn *Connection, payload json.RawMessage) error {
		var req TypingPayload
		if err := DecodePayload(payload, &req); err != nil {
			return err
		}
		room, err := h.currentRoom(conn, req.Room.ID)
		if err != nil {
			return err
		}
		room.BroadcastToOthers(conn, kind, TypingPayload{
			User: conn.Identity(),
			Room: domain.RoomRef{ID: room.ID()},
		})
		return nil
	}
}

// currentRoom resolves the room conn is in. A non-empty requested id must
// name that room.
func (h *Hub) currentRoom(conn *Connection, requested string) (*Room, error) {
	current := conn.RoomID()
	if current == "" {
		return nil, WrapError(CodeUnknownRoom, ErrNotInRoom.Error(), ErrNotInRoom)
	}
	if requested != "" && requested != current {
		return nil, NewError(CodeUnknownRoom, "not a member of room "+requested)
	}
	room, ok := h.rooms.Get(current)
	if !ok {
		return nil, WrapError(CodeUnknownRoom, ErrRoomNotFound.Error(), ErrRoomNotFound)
	}
	return room, nil
}

func (h *Hub) publishTransition(ctx context.Context, conn *Connection, tr Transition) {
	now := h.now()
	userID := conn.IdentityID()
	if tr.From != "" {
		h.notifier.Notify(ctx, events.UserLeftEvent{
			RoomID:       tr.From,
			UserID:       userID,
			ConnectionID: conn.ID(),
			Timestamp:    now,
		})
	}
	if tr.Deleted {
		h.notifier.Notify(ctx, events.RoomDeletedEvent{RoomID: tr.From, Timestamp: now})
	}
	if tr.Created {
		h.notifier.Notify(ctx, events.RoomCreatedEvent{RoomID: tr.To, RoomName: tr.To, Timestamp: now})
	}
	if tr.To != "" {
		h.notifier.Notify(ctx, events.UserJoinedEvent{
			RoomID:       tr.To,
			UserID:       userID,
			ConnectionID: conn.ID(),
			Timestamp:    now,
		})
	}
}
