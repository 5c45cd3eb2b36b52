package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/example/social-chat/domain/chat"
	"github.com/go-monolith/mono/pkg/types"
)

// RoomStore is the read/write surface the room table offers to the HTTP
// read path.
type RoomStore interface {
	Create(ctx context.Context, info domain.RoomInfo) (domain.RoomInfo, error)
	Exists(ctx context.Context, roomID string) bool
	GetHistory(ctx context.Context, roomID string, limit int) ([]domain.Message, error)
	GetMetadata(ctx context.Context, roomID string) (domain.RoomInfo, error)
}

var _ RoomStore = (*RoomTable)(nil)

// Transition describes the effect of a room change.
type Transition struct {
	From    string // room left, "" when the connection was unjoined
	To      string // room joined, "" for an explicit leave
	Created bool   // To was created by this change
	Deleted bool   // From became empty and was removed
}

// RoomTable maps room ids to rooms. Rooms are created lazily and removed
// the moment their member set becomes empty.
type RoomTable struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	logger types.Logger
	now    func() time.Time
}

// NewRoomTable creates an empty room table.
func NewRoomTable(logger types.Logger, now func() time.Time) *RoomTable {
	if now == nil {
		now = time.Now
	}
	return &RoomTable{
		rooms:  make(map[string]*Room),
		logger: logger,
		now:    now,
	}
}

// Get returns the room with the given id.
func (t *RoomTable) Get(roomID string) (*Room, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	room, ok := t.rooms[roomID]
	return room, ok
}

// GetOrCreate returns the room with info.ID, creating it from info when absent.
func (t *RoomTable) GetOrCreate(info domain.RoomInfo) (*Room, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if room, ok := t.rooms[info.ID]; ok {
		return room, false
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = t.now()
	}
	room := newRoom(info, t.logger)
	t.rooms[info.ID] = room
	return room, true
}

// Create adds a room with explicit metadata. It fails with ErrRoomExists
// when the id is taken.
func (t *RoomTable) Create(_ context.Context, info domain.RoomInfo) (domain.RoomInfo, error) {
	if err := ValidateRoomID(info.ID); err != nil {
		return domain.RoomInfo{}, err
	}
	if err := ValidateRoomName(info.Name); err != nil {
		return domain.RoomInfo{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rooms[info.ID]; ok {
		return domain.RoomInfo{}, ErrRoomExists
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = t.now()
	}
	room := newRoom(info, t.logger)
	t.rooms[info.ID] = room
	return room.Info(), nil
}

// Exists reports whether a room is present.
func (t *RoomTable) Exists(_ context.Context, roomID string) bool {
	_, ok := t.Get(roomID)
	return ok
}

// GetHistory returns the history of a room.
func (t *RoomTable) GetHistory(_ context.Context, roomID string, limit int) ([]domain.Message, error) {
	room, ok := t.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room.History(limit), nil
}

// GetMetadata returns the metadata of a room.
func (t *RoomTable) GetMetadata(_ context.Context, roomID string) (domain.RoomInfo, error) {
	room, ok := t.Get(roomID)
	if !ok {
		return domain.RoomInfo{}, ErrRoomNotFound
	}
	return room.Info(), nil
}

// List returns the metadata of every room sorted by id.
func (t *RoomTable) List() []domain.RoomInfo {
	t.mu.RLock()
	rooms := make([]*Room, 0, len(t.rooms))
	for _, room := range t.rooms {
		rooms = append(rooms, room)
	}
	t.mu.RUnlock()

	result := make([]domain.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		result = append(result, room.Info())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Len returns the number of rooms.
func (t *RoomTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}

// ChangeRoom moves conn into roomID. Changing into the current room is
// rejected with ErrAlreadyInRoom and nothing is broadcast.
func (t *RoomTable) ChangeRoom(conn *Connection, roomID string) (Transition, error) {
	if err := ValidateRoomID(roomID); err != nil {
		return Transition{}, err
	}
	current := conn.RoomID()
	if current == roomID {
		return Transition{}, ErrAlreadyInRoom
	}

	tr := Transition{From: current, To: roomID}
	if current != "" {
		tr.Deleted = t.removeFrom(conn, current)
	}
	room, created := t.GetOrCreate(domain.RoomInfo{ID: roomID})
	tr.Created = created
	room.AddMember(conn, t.now())
	return tr, nil
}

// Leave moves conn back to the unjoined state. It is a no-op for an
// unjoined connection.
func (t *RoomTable) Leave(conn *Connection) Transition {
	current := conn.RoomID()
	if current == "" {
		return Transition{}
	}
	return Transition{From: current, Deleted: t.removeFrom(conn, current)}
}

func (t *RoomTable) removeFrom(conn *Connection, roomID string) bool {
	room, ok := t.Get(roomID)
	if !ok {
		conn.setRoomID("")
		return false
	}
	if room.RemoveMember(conn, t.now()) > 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rooms[roomID] == room && room.Len() == 0 {
		delete(t.rooms, roomID)
		t.logger.Debug("Deleted empty room", "roomID", roomID)
		return true
	}
	return false
}
