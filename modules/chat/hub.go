package chat

import (
	"context"
	"time"

	domain "github.com/example/social-chat/domain/chat"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
)

const roomIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Notifier receives domain events produced by the hub. Publishing is best
// effort and must not block.
type Notifier interface {
	Notify(ctx context.Context, event any)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, any) {}

// IdentifyFunc observes identities asserted through identity-hello.
type IdentifyFunc func(ctx context.Context, identity domain.Identity)

// Hub ties the connection registry, the room table and the message router
// together and serves the chat message kinds.
type Hub struct {
	registry *Registry
	rooms    *RoomTable
	router   *Router
	logger   types.Logger
	notifier Notifier
	now      func() time.Time
	newID    func() string
	roomID   func() string

	onIdentify []IdentifyFunc
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithClock overrides the server clock.
func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) {
		h.now = now
	}
}

// WithNotifier sets the receiver of domain events.
func WithNotifier(n Notifier) HubOption {
	return func(h *Hub) {
		h.notifier = n
	}
}

// WithIDGenerator overrides connection and message id generation.
func WithIDGenerator(gen func() string) HubOption {
	return func(h *Hub) {
		h.newID = gen
	}
}

// NewHub creates a hub with empty registry and room table and registers
// the chat handlers on its router.
func NewHub(logger types.Logger, opts ...HubOption) *Hub {
	roomID, err := nanoid.CustomASCII(roomIDAlphabet, 10)
	if err != nil {
		panic("chat: invalid room id generator: " + err.Error())
	}
	h := &Hub{
		registry: NewRegistry(),
		router:   NewRouter(logger),
		logger:   logger,
		notifier: nopNotifier{},
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		roomID:   roomID,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.rooms = NewRoomTable(logger, h.now)
	h.registerHandlers()
	return h
}

// Registry returns the connection registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Rooms returns the room table.
func (h *Hub) Rooms() *RoomTable {
	return h.rooms
}

// Router returns the message router so other modules can add handlers.
func (h *Hub) Router() *Router {
	return h.router
}

// Now returns the server time.
func (h *Hub) Now() time.Time {
	return h.now()
}

// NewID returns a fresh unique id.
func (h *Hub) NewID() string {
	return h.newID()
}

// Notify forwards a domain event to the configured notifier.
func (h *Hub) Notify(ctx context.Context, event any) {
	h.notifier.Notify(ctx, event)
}

// OnIdentify registers fn to observe every identity-hello.
// It must be called before connections are accepted.
func (h *Hub) OnIdentify(fn IdentifyFunc) {
	h.onIdentify = append(h.onIdentify, fn)
}

// Connect registers a connection for a freshly accepted transport and sends
// it its session handle.
func (h *Hub) Connect(transport Transport) *Connection {
	conn := NewConnection(h.newID(), transport, h.logger)
	h.router.Exclusive(func() {
		h.registry.Register(conn)
	})
	conn.Send(KindConnected, ConnectedPayload{ConnectionID: conn.ID()})
	h.logger.Info("Connection opened", "connectionID", conn.ID())
	return conn
}

// Handle dispatches one inbound frame from conn.
func (h *Hub) Handle(ctx context.Context, conn *Connection, frame []byte) {
	h.router.Dispatch(ctx, conn, frame)
}

// Disconnect removes conn from its room and from the registry. Calling it
// twice is harmless.
func (h *Hub) Disconnect(ctx context.Context, conn *Connection) {
	h.router.Exclusive(func() {
		tr := h.rooms.Leave(conn)
		h.publishTransition(ctx, conn, tr)
		h.registry.Unregister(conn)
	})
	h.logger.Info("Connection closed", "connectionID", conn.ID(), "userID", conn.IdentityID())
}

// BroadcastGlobal sends one message to every registered connection.
func (h *Hub) BroadcastGlobal(kind Kind, payload any) {
	frame, err := Encode(kind, payload)
	if err != nil {
		h.logger.Error("Failed to encode global broadcast", "type", kind, "error", err)
		return
	}
	for _, conn := range h.registry.All() {
		conn.deliver(frame)
	}
}

// SendTo delivers a message to the first connection claiming logicalID and
// reports whether one was found.
func (h *Hub) SendTo(logicalID string, kind Kind, payload any) bool {
	conn, ok := h.registry.FindByIdentity(logicalID)
	if !ok {
		return false
	}
	conn.Send(kind, payload)
	return true
}
