package chat

import (
	"sync"

	domain "github.com/example/social-chat/domain/chat"
	"github.com/go-monolith/mono/pkg/types"
)

// Transport delivers encoded frames to one client. Write must not block on
// the network; implementations queue the frame and report failure if they
// cannot.
type Transport interface {
	Write(frame []byte) error
	Close() error
}

// Connection is one live client session.
type Connection struct {
	id        string
	transport Transport
	logger    types.Logger

	mu       sync.RWMutex
	identity *domain.Identity
	roomID   string
}

// NewConnection wraps a transport. The connection starts unidentified and
// outside of any room.
func NewConnection(id string, transport Transport, logger types.Logger) *Connection {
	return &Connection{
		id:        id,
		transport: transport,
		logger:    logger,
	}
}

// ID returns the opaque session handle.
func (c *Connection) ID() string {
	return c.id
}

// Identity returns a copy of the claimed identity, or nil before identity-hello.
func (c *Connection) Identity() *domain.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.identity == nil {
		return nil
	}
	id := *c.identity
	return &id
}

// IdentityID returns the claimed logical id or "".
func (c *Connection) IdentityID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.identity == nil {
		return ""
	}
	return c.identity.ID
}

// SetIdentity replaces the claimed identity.
func (c *Connection) SetIdentity(identity domain.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = &identity
}

// RoomID returns the current room id, "" while unjoined.
func (c *Connection) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

func (c *Connection) setRoomID(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// Send encodes and delivers a single message. Failures are logged and
// swallowed; a dead connection is reaped by its own close event.
func (c *Connection) Send(kind Kind, payload any) {
	frame, err := Encode(kind, payload)
	if err != nil {
		c.logger.Error("Failed to encode message", "type", kind, "error", err)
		return
	}
	c.deliver(frame)
}

func (c *Connection) deliver(frame []byte) {
	if err := c.transport.Write(frame); err != nil {
		c.logger.Debug("Dropped frame for connection", "connectionID", c.id, "error", err)
	}
}

// Close closes the underlying transport.
func (c *Connection) Close() error {
	return c.transport.Close()
}
