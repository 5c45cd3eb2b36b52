package social

import (
	"context"
	"encoding/json"
	"errors"

	chatdomain "github.com/example/social-chat/domain/chat"
	domain "github.com/example/social-chat/domain/social"
	"github.com/example/social-chat/events"
	"github.com/example/social-chat/modules/chat"
	"github.com/go-monolith/mono/pkg/types"
)

type role int

const (
	roleRecipient role = iota
	roleSender
)

// Service runs the invitation and identity workflows on top of a chat hub.
// Its handlers are registered on the hub router, so they are serialized
// with the chat handlers.
type Service struct {
	hub      *chat.Hub
	store    Store
	notifier chat.Notifier
	logger   types.Logger
}

// NewService creates a social service. notifier receives the social domain
// events and may be nil.
func NewService(hub *chat.Hub, store Store, notifier chat.Notifier, logger types.Logger) *Service {
	return &Service{
		hub:      hub,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Register adds the social handlers to the hub and keeps the directory in
// sync with identity-hello.
func (s *Service) Register() {
	r := s.hub.Router()
	r.Handle(chat.KindInvitationSend, s.handleInvitationSend, chat.WithErrorReply(invitationAckError))
	r.Handle(chat.KindInvitationAccept, s.handleInvitationAccept)
	r.Handle(chat.KindInvitationDecline, s.handleInvitationDecline)
	r.Handle(chat.KindInvitationCancel, s.handleInvitationCancel)
	r.Handle(chat.KindIdentityUpdateRequest, s.handleIdentityUpdate, chat.WithErrorReply(identityUpdateError))
	s.hub.OnIdentify(s.recordIdentity)
}

func (s *Service) recordIdentity(ctx context.Context, identity chatdomain.Identity) {
	if err := s.store.UpsertUser(ctx, identity, s.hub.Now()); err != nil {
		s.logger.Warn("Failed to record identity", "userID", identity.ID, "error", err)
	}
}

func (s *Service) handleInvitationSend(ctx context.Context, conn *chat.Connection, payload json.RawMessage) error {
	var req chat.InvitationSendPayload
	if err := chat.DecodePayload(payload, &req); err != nil {
		return err
	}
	if err := chat.RequireIdentity(conn); err != nil {
		return err
	}
	from := conn.IdentityID()
	switch {
	case req.ToUserID == "":
		return chat.NewError(chat.CodeValidationFailed, "toUserId is required")
	case req.ToUserID == from:
		return chat.NewError(chat.CodeValidationFailed, "cannot invite yourself")
	case len(req.Message) > MaxInviteMessage:
		return chat.NewError(chat.CodeValidationFailed, "invitation message exceeds maximum length")
	}

	if _, err := s.store.FindUser(ctx, req.ToUserID); err != nil {
		return storeError(err)
	}
	friends, err := s.store.AreFriends(ctx, from, req.ToUserID)
	if err != nil {
		return err
	}
	if friends {
		return storeError(ErrAlreadyFriends)
	}

	inv := domain.Invitation{
		ID:         s.hub.NewID(),
		FromUserID: from,
		ToUserID:   req.ToUserID,
		Message:    req.Message,
		Timestamp:  s.hub.Now(),
		Status:     domain.StatusPending,
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return storeError(err)
	}

	online := s.hub.SendTo(inv.ToUserID, chat.KindInvitationReceived, chat.InvitationPayload{Invitation: inv})
	conn.Send(chat.KindInvitationSentAck, chat.InvitationSentAckPayload{
		Success:    true,
		Invitation: &inv,
		IsOnline:   online,
	})

	s.notify(ctx, events.InvitationSentEvent{
		InvitationID: inv.ID,
		FromUserID:   inv.FromUserID,
		ToUserID:     inv.ToUserID,
		Delivered:    online,
		Timestamp:    inv.Timestamp,
	})
	s.logger.Info("Invitation sent", "invitationID", inv.ID, "from", inv.FromUserID, "to", inv.ToUserID, "online", online)
	return nil
}

func (s *Service) handleInvitationAccept(ctx context.Context, conn *chat.Connection, payload json.RawMessage) error {
	inv, err := s.loadInvitation(ctx, conn, payload, roleRecipient)
	if err != nil {
		return err
	}
	accepter := *conn.Identity()
	inviter := s.lookupIdentity(ctx, inv.FromUserID)

	inv, friendship, err := s.store.AcceptInvitation(ctx, inv.ID, domain.Friendship{
		ID:        s.hub.NewID(),
		CreatedAt: s.hub.Now(),
	})
	if err != nil {
		return storeError(err)
	}

	if s.hub.SendTo(inv.FromUserID, chat.KindInvitationAccepted, chat.InvitationPayload{Invitation: inv}) {
		s.hub.SendTo(inv.FromUserID, chat.KindFriendAdded, chat.FriendAddedPayload{
			FriendshipData: friendship,
			NewFriend:      accepter,
		})
	}
	conn.Send(chat.KindInvitationAccepted, chat.InvitationPayload{Invitation: inv})
	conn.Send(chat.KindFriendAdded, chat.FriendAddedPayload{
		FriendshipData: friendship,
		NewFriend:      inviter,
	})

	s.notify(ctx, events.FriendAddedEvent{
		FriendshipID: friendship.ID,
		UserID1:      friendship.UserID1,
		UserID2:      friendship.UserID2,
		InitiatedBy:  friendship.InitiatedBy,
		Timestamp:    friendship.CreatedAt,
	})
	s.logger.Info("Invitation accepted", "invitationID", inv.ID, "friendshipID", friendship.ID)
	return nil
}

func (s *Service) handleInvitationDecline(ctx context.Context, conn *chat.Connection, payload json.RawMessage) error {
	inv, err := s.loadInvitation(ctx, conn, payload, roleRecipient)
	if err != nil {
		return err
	}
	inv, err = s.store.ResolveInvitation(ctx, inv.ID, domain.StatusDeclined)
	if err != nil {
		return storeError(err)
	}
	s.hub.SendTo(inv.FromUserID, chat.KindInvitationDeclined, chat.InvitationPayload{Invitation: inv})
	conn.Send(chat.KindInvitationDeclined, chat.InvitationPayload{Invitation: inv})
	s.logger.Info("Invitation declined", "invitationID", inv.ID)
	return nil
}

func (s *Service) handleInvitationCancel(ctx context.Context, conn *chat.Connection, payload json.RawMessage) error {
	inv, err := s.loadInvitation(ctx, conn, payload, roleSender)
	if err != nil {
		return err
	}
	inv, err = s.store.ResolveInvitation(ctx, inv.ID, domain.StatusCancelled)
	if err != nil {
		return storeError(err)
	}
	s.hub.SendTo(inv.ToUserID, chat.KindInvitationCancelled, chat.InvitationPayload{Invitation: inv})
	conn.Send(chat.KindInvitationCancelled, chat.InvitationPayload{Invitation: inv})
	s.logger.Info("Invitation cancelled", "invitationID", inv.ID)
	return nil
}

// loadInvitation decodes an invitation action and checks that conn plays
// the given role in the invitation it names.
func (s *Service) loadInvitation(ctx context.Context, conn *chat.Connection, payload json.RawMessage, r role) (domain.Invitation, error) {
	var req chat.InvitationActionPayload
	if err := chat.DecodePayload(payload, &req); err != nil {
		return domain.Invitation{}, err
	}
	if err := chat.RequireIdentity(conn); err != nil {
		return domain.Invitation{}, err
	}
	if req.InvitationID == "" {
		return domain.Invitation{}, chat.NewError(chat.CodeValidationFailed, "invitationId is required")
	}

	inv, err := s.store.FindInvitation(ctx, req.InvitationID)
	if err != nil {
		return domain.Invitation{}, storeError(err)
	}

	me := conn.IdentityID()
	counterpart := inv.FromUserID
	switch r {
	case roleRecipient:
		if inv.ToUserID != me {
			return domain.Invitation{}, chat.NewError(chat.CodeValidationFailed, "only the invited user can respond to this invitation")
		}
	case roleSender:
		if inv.FromUserID != me {
			return domain.Invitation{}, chat.NewError(chat.CodeValidationFailed, "only the sender can cancel this invitation")
		}
		counterpart = inv.ToUserID
	}
	if req.CounterpartUserID != "" && req.CounterpartUserID != counterpart {
		return domain.Invitation{}, chat.NewError(chat.CodeValidationFailed, "counterpartUserId does not match the invitation")
	}
	return inv, nil
}

func (s *Service) handleIdentityUpdate(ctx context.Context, conn *chat.Connection, payload json.RawMessage) error {
	var req chat.IdentityUpdateRequestPayload
	if err := chat.DecodePayload(payload, &req); err != nil {
		return err
	}
	if err := chat.RequireIdentity(conn); err != nil {
		return err
	}

	proposed := req.ProposedIdentity
	if err := ValidateIdentity(proposed.ID); err != nil {
		return chat.WrapError(chat.CodeValidationFailed, err.Error(), err)
	}
	// Only connected identities are checked; offline directory entries are not.
	if s.hub.Registry().IdentityInUse(proposed.ID, conn) {
		return chat.NewError(chat.CodeConflict, "identity is already taken")
	}

	old := *conn.Identity()
	if proposed.Name == "" {
		proposed.Name = proposed.ID
	}
	if proposed.Avatar == "" {
		proposed.Avatar = old.Avatar
	}
	conn.SetIdentity(proposed)

	s.hub.BroadcastGlobal(chat.KindIdentityUpdated, chat.IdentityUpdatedPayload{
		OldUser: old,
		NewUser: proposed,
	})
	s.recordIdentity(ctx, proposed)
	s.hub.Notify(ctx, events.IdentityUpdatedEvent{
		ConnectionID: conn.ID(),
		OldUserID:    old.ID,
		NewUserID:    proposed.ID,
		NewName:      proposed.Name,
		Timestamp:    s.hub.Now(),
	})
	s.logger.Info("Identity updated", "connectionID", conn.ID(), "from", old.ID, "to", proposed.ID)
	return nil
}

// lookupIdentity returns the freshest identity snapshot known for id.
func (s *Service) lookupIdentity(ctx context.Context, id string) chatdomain.Identity {
	if conn, ok := s.hub.Registry().FindByIdentity(id); ok {
		if identity := conn.Identity(); identity != nil {
			return *identity
		}
	}
	if user, err := s.store.FindUser(ctx, id); err == nil {
		return user.Snapshot()
	}
	return chatdomain.Identity{ID: id, Name: id}
}

func (s *Service) notify(ctx context.Context, event any) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, event)
	}
}

// storeError maps store outcomes to request failures.
func storeError(err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return chat.WrapError(chat.CodeUnknownUser, err.Error(), err)
	case errors.Is(err, ErrInvitationNotFound):
		return chat.WrapError(chat.CodeUnknownInvitation, err.Error(), err)
	case errors.Is(err, ErrDuplicatePending), errors.Is(err, ErrAlreadyFriends):
		return chat.WrapError(chat.CodeConflict, err.Error(), err)
	case errors.Is(err, ErrAlreadyTerminal):
		return chat.WrapError(chat.CodeAlreadyTerminal, err.Error(), err)
	}
	return err
}

func invitationAckError(conn *chat.Connection, _ chat.Kind, err *chat.Error) {
	conn.Send(chat.KindInvitationSentAck, chat.InvitationSentAckPayload{
		Success: false,
		Error:   err.Reason,
		Code:    err.Code,
	})
}

func identityUpdateError(conn *chat.Connection, _ chat.Kind, err *chat.Error) {
	conn.Send(chat.KindIdentityUpdateError, chat.IdentityUpdateErrorPayload{
		Error: err.Reason,
		Code:  err.Code,
	})
}
