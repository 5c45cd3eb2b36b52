package api

import (
	"errors"
	"strconv"

	domain "github.com/example/social-chat/domain/chat"
	social "github.com/example/social-chat/domain/social"
	"github.com/example/social-chat/modules/chat"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const maxHistoryLimit = 1000

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	// Health check
	app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1
	api := app.Group("/api/v1")

	// Rooms
	api.Get("/rooms", m.listRooms)
	api.Post("/rooms", m.createRoom)
	api.Get("/rooms/:id", m.getRoom)
	api.Get("/rooms/:id/history", m.getHistory)

	// Users
	api.Get("/users/:id/invitations", m.getInvitations)
	api.Get("/users/:id/friends", m.getFriends)
	api.Get("/users/:id/presence", m.getPresence)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.Registry().Count(),
			"rooms":             m.hub.Rooms().Len(),
		},
	})
}

// listRooms handles GET /api/v1/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	rooms, err := m.chatAdapter.ListRooms(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}

	response := RoomListResponse{
		Rooms: make([]RoomResponse, 0, len(rooms)),
	}
	for _, room := range rooms {
		response.Rooms = append(response.Rooms, newRoomResponse(room))
	}
	return c.JSON(response)
}

// createRoom handles POST /api/v1/rooms.
func (m *APIModule) createRoom(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if req.ID != "" {
		if err := chat.ValidateRoomID(req.ID); err != nil {
			return validationError(c, err)
		}
	}
	if err := chat.ValidateRoomName(req.Name); err != nil {
		return validationError(c, err)
	}

	room, err := m.chatAdapter.CreateRoom(c.UserContext(), req.ID, req.Name, req.Description)
	if errors.Is(err, chat.ErrRoomExists) {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "Room already exists",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create room",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(newRoomResponse(*room))
}

// getRoom handles GET /api/v1/rooms/:id.
func (m *APIModule) getRoom(c *fiber.Ctx) error {
	room, err := m.chatAdapter.GetMetadata(c.UserContext(), c.Params("id"))
	if err != nil {
		return roomError(c, err)
	}
	return c.JSON(newRoomResponse(*room))
}

// getHistory handles GET /api/v1/rooms/:id/history. Without a limit the
// whole history is returned.
func (m *APIModule) getHistory(c *fiber.Ctx) error {
	roomID := c.Params("id")
	limit := 0
	if l := c.Query("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 || parsed > maxHistoryLimit {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "validation_error",
				Message: "limit must be between 1 and 1000",
			})
		}
		limit = parsed
	}

	messages, err := m.chatAdapter.GetHistory(c.UserContext(), roomID, limit)
	if err != nil {
		return roomError(c, err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return c.JSON(HistoryResponse{
		RoomID:   roomID,
		Messages: messages,
	})
}

// getInvitations handles GET /api/v1/users/:id/invitations.
func (m *APIModule) getInvitations(c *fiber.Ctx) error {
	userID := c.Params("id")
	pending, err := m.socialAdapter.PendingInvitations(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "lookup_failed",
			Message: "Failed to load invitations",
		})
	}
	response := InvitationsResponse{
		UserID:   userID,
		Incoming: pending.Incoming,
		Outgoing: pending.Outgoing,
	}
	if response.Incoming == nil {
		response.Incoming = []social.Invitation{}
	}
	if response.Outgoing == nil {
		response.Outgoing = []social.Invitation{}
	}
	return c.JSON(response)
}

// getFriends handles GET /api/v1/users/:id/friends.
func (m *APIModule) getFriends(c *fiber.Ctx) error {
	userID := c.Params("id")
	friendships, err := m.socialAdapter.ListFriends(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "lookup_failed",
			Message: "Failed to load friends",
		})
	}

	response := FriendListResponse{
		UserID:  userID,
		Friends: make([]FriendResponse, 0, len(friendships)),
	}
	for _, f := range friendships {
		response.Friends = append(response.Friends, FriendResponse{
			FriendshipID: f.ID,
			UserID:       f.Other(userID),
			InitiatedBy:  f.InitiatedBy,
			CreatedAt:    f.CreatedAt,
		})
	}
	return c.JSON(response)
}

// getPresence handles GET /api/v1/users/:id/presence.
func (m *APIModule) getPresence(c *fiber.Ctx) error {
	status, err := m.presenceAdapter.GetPresence(c.UserContext(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "lookup_failed",
			Message: "Failed to load presence",
		})
	}
	return c.JSON(PresenceResponse{
		UserID:      status.UserID,
		Online:      status.Online,
		RoomID:      status.RoomID,
		Connections: status.Connections,
		LastSeen:    status.LastSeen,
	})
}

func validationError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}

func roomError(c *fiber.Ctx, err error) error {
	if errors.Is(err, chat.ErrRoomNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Room not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "lookup_failed",
		Message: "Failed to load room",
	})
}
