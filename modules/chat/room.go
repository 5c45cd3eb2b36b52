package chat

import (
	"sync"
	"time"

	domain "github.com/example/social-chat/domain/chat"
	"github.com/go-monolith/mono/pkg/types"
)

// Room is a named set of connections with an append-only message history.
// History is never evicted.
type Room struct {
	id          string
	name        string
	description string
	isCustom    bool
	createdAt   time.Time
	logger      types.Logger

	mu      sync.RWMutex
	members []*Connection
	history []domain.Message
}

func newRoom(info domain.RoomInfo, logger types.Logger) *Room {
	name := info.Name
	if name == "" {
		name = info.ID
	}
	return &Room{
		id:          info.ID,
		name:        name,
		description: info.Description,
		isCustom:    info.IsCustom,
		createdAt:   info.CreatedAt,
		logger:      logger,
	}
}

// ID returns the room id.
func (r *Room) ID() string {
	return r.id
}

// Info returns the room metadata with the current member count.
func (r *Room) Info() domain.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return domain.RoomInfo{
		ID:          r.id,
		Name:        r.name,
		Description: r.description,
		IsCustom:    r.isCustom,
		CreatedAt:   r.createdAt,
		Members:     len(r.members),
	}
}

// AddMember inserts conn, tells every other member about it and then sends
// the full member list, including conn, to conn only.
func (r *Room) AddMember(conn *Connection, now time.Time) {
	r.mu.Lock()
	if r.indexOf(conn) >= 0 {
		r.mu.Unlock()
		return
	}
	r.members = append(r.members, conn)
	r.mu.Unlock()
	conn.setRoomID(r.id)

	r.BroadcastToOthers(conn, KindUserJoined, MembershipPayload{
		User:            conn.Identity(),
		Room:            domain.RoomRef{ID: r.id},
		ServerTimestamp: now,
	})
	conn.Send(KindRoomUsersSnapshot, RoomUsersSnapshotPayload{
		Users: r.Users(),
		Room:  domain.RoomRef{ID: r.id},
	})
}

// RemoveMember removes conn, tells the remaining members and returns how
// many are left.
func (r *Room) RemoveMember(conn *Connection, now time.Time) int {
	r.mu.Lock()
	idx := r.indexOf(conn)
	if idx < 0 {
		remaining := len(r.members)
		r.mu.Unlock()
		return remaining
	}
	r.members = append(r.members[:idx], r.members[idx+1:]...)
	remaining := len(r.members)
	r.mu.Unlock()
	conn.setRoomID("")

	r.BroadcastToAll(KindUserLeft, MembershipPayload{
		User:            conn.Identity(),
		Room:            domain.RoomRef{ID: r.id},
		ServerTimestamp: now,
	})
	return remaining
}

// AppendAndBroadcast pushes msg to the history and sends it to every
// member, the sender included.
func (r *Room) AppendAndBroadcast(msg domain.Message) {
	r.mu.Lock()
	r.history = append(r.history, msg)
	r.mu.Unlock()
	r.BroadcastToAll(KindChatBroadcast, msg)
}

// BroadcastToOthers sends to every member except sender.
func (r *Room) BroadcastToOthers(sender *Connection, kind Kind, payload any) {
	r.fanOut(sender, kind, payload)
}

// BroadcastToAll sends to every member.
func (r *Room) BroadcastToAll(kind Kind, payload any) {
	r.fanOut(nil, kind, payload)
}

func (r *Room) fanOut(skip *Connection, kind Kind, payload any) {
	frame, err := Encode(kind, payload)
	if err != nil {
		r.logger.Error("Failed to encode broadcast", "roomID", r.id, "type", kind, "error", err)
		return
	}
	for _, member := range r.Members() {
		if member == skip {
			continue
		}
		member.deliver(frame)
	}
}

// Members returns a snapshot of the member set in join order.
func (r *Room) Members() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Connection, len(r.members))
	copy(result, r.members)
	return result
}

// Users returns the identities of the identified members.
func (r *Room) Users() []domain.Identity {
	members := r.Members()
	users := make([]domain.Identity, 0, len(members))
	for _, member := range members {
		if identity := member.Identity(); identity != nil {
			users = append(users, *identity)
		}
	}
	return users
}

// Len returns the member count.
func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// History returns the last limit messages, or all of them when limit <= 0.
func (r *Room) History(limit int) []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.history) {
		limit = len(r.history)
	}
	start := len(r.history) - limit
	result := make([]domain.Message, limit)
	copy(result, r.history[start:])
	return result
}

func (r *Room) indexOf(conn *Connection) int {
	for i, member := range r.members {
		if member == conn {
			return i
		}
	}
	return -1
}
