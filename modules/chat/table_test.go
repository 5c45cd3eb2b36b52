package chat

import (
	"context"
	"math/rand"
	"time"
	"testing"

	domain "github.com/example/social-chat/domain/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable() *RoomTable {
	return NewRoomTable(&mockLogger{}, func() time.Time { return testNow })
}

func TestRoomTable_ChangeRoom(t *testing.T) {
	log := &wireLog{}
	table := newTestTable()
	a, _ := newBareConn(log, "a", "alice")
	b, _ := newBareConn(log, "b", "bob")

	tr, err := table.ChangeRoom(a, "lobby")
	require.NoError(t, err)
	assert.Equal(t, Transition{To: "lobby", Created: true}, tr)

	tr, err = table.ChangeRoom(b, "lobby")
	require.NoError(t, err)
	assert.Equal(t, Transition{To: "lobby"}, tr)

	tr, err = table.ChangeRoom(a, "games")
	require.NoError(t, err)
	assert.Equal(t, Transition{From: "lobby", To: "games", Created: true}, tr)

	tr, err = table.ChangeRoom(b, "games")
	require.NoError(t, err)
	assert.Equal(t, Transition{From: "lobby", To: "games", Deleted: true}, tr)
	assert.False(t, table.Exists(context.Background(), "lobby"))

	room, ok := table.Get("games")
	require.True(t, ok)
	assert.Equal(t, []*Connection{a, b}, room.Members())
}

func TestRoomTable_ChangeRoom_SameRoomRejected(t *testing.T) {
	log := &wireLog{}
	table := newTestTable()
	a, _ := newBareConn(log, "a", "alice")
	b, _ := newBareConn(log, "b", "bob")
	_, err := table.ChangeRoom(a, "lobby")
	require.NoError(t, err)
	_, err = table.ChangeRoom(b, "lobby")
	require.NoError(t, err)
	log.reset()

	_, err = table.ChangeRoom(a, "lobby")

	assert.ErrorIs(t, err, ErrAlreadyInRoom)
	assert.Empty(t, log.all(), "no duplicate join broadcast")
	room, _ := table.Get("lobby")
	assert.Equal(t, 2, room.Len())
}

func TestRoomTable_ChangeRoom_InvalidID(t *testing.T) {
	table := newTestTable()
	a, _ := newBareConn(&wireLog{}, "a", "alice")

	tests := []struct {
		name    string
		roomID  string
		wantErr error
	}{
		{name: "empty", roomID: "", wantErr: ErrRoomIDEmpty},
		{name: "blank", roomID: "   ", wantErr: ErrRoomIDEmpty},
		{name: "control characters", roomID: "lob\nby", wantErr: ErrRoomInvalid},
		{name: "too long", roomID: string(make([]byte, MaxRoomIDLength+1)), wantErr: ErrRoomIDTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := table.ChangeRoom(a, tt.roomID)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, "", a.RoomID())
		})
	}
	assert.Equal(t, 0, table.Len())
}

func TestRoomTable_LastMemberLeavingDeletesRoom(t *testing.T) {
	log := &wireLog{}
	table := newTestTable()
	a, _ := newBareConn(log, "a", "alice")

	_, err := table.ChangeRoom(a, "lobby")
	require.NoError(t, err)
	room, _ := table.Get("lobby")
	room.AppendAndBroadcast(domain.Message{MessageID: "m1", Body: "hi"})

	tr := table.Leave(a)
	assert.Equal(t, Transition{From: "lobby", Deleted: true}, tr)
	assert.False(t, table.Exists(context.Background(), "lobby"))
	assert.Equal(t, "", a.RoomID())

	_, err = table.ChangeRoom(a, "lobby")
	require.NoError(t, err)
	history, err := table.GetHistory(context.Background(), "lobby", 0)
	require.NoError(t, err)
	assert.Empty(t, history, "re-created room starts with empty history")
}

func TestRoomTable_LeaveUnjoined(t *testing.T) {
	table := newTestTable()
	a, _ := newBareConn(&wireLog{}, "a", "alice")
	assert.Equal(t, Transition{}, table.Leave(a))
}

func TestRoomTable_Create(t *testing.T) {
	ctx := context.Background()
	table := newTestTable()

	info, err := table.Create(ctx, domain.RoomInfo{ID: "book-club", Name: "Book Club", Description: "Reading", IsCustom: true})
	require.NoError(t, err)
	assert.Equal(t, "Book Club", info.Name)
	assert.True(t, info.IsCustom)
	assert.Equal(t, testNow, info.CreatedAt)

	_, err = table.Create(ctx, domain.RoomInfo{ID: "book-club"})
	assert.ErrorIs(t, err, ErrRoomExists)

	_, err = table.Create(ctx, domain.RoomInfo{ID: "x", Name: string(make([]byte, MaxRoomNameLength+1))})
	assert.ErrorIs(t, err, ErrRoomNameTooLong)

	// explicit metadata survives the first join
	a, _ := newBareConn(&wireLog{}, "a", "alice")
	tr, err := table.ChangeRoom(a, "book-club")
	require.NoError(t, err)
	assert.False(t, tr.Created)
	meta, err := table.GetMetadata(ctx, "book-club")
	require.NoError(t, err)
	assert.Equal(t, "Book Club", meta.Name)
	assert.Equal(t, "Reading", meta.Description)
	assert.Equal(t, 1, meta.Members)
}

func TestRoomTable_ReadSurfaceUnknownRoom(t *testing.T) {
	ctx := context.Background()
	table := newTestTable()

	_, err := table.GetHistory(ctx, "nope", 10)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = table.GetMetadata(ctx, "nope")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.False(t, table.Exists(ctx, "nope"))
}

func TestRoomTable_List(t *testing.T) {
	table := newTestTable()
	for _, id := range []string{"c", "a", "b"} {
		conn, _ := newBareConn(&wireLog{}, id, id)
		_, err := table.ChangeRoom(conn, id)
		require.NoError(t, err)
	}

	rooms := table.List()
	require.Len(t, rooms, 3)
	assert.Equal(t, "a", rooms[0].ID)
	assert.Equal(t, "c", rooms[2].ID)
	assert.Equal(t, 1, rooms[1].Members)
}

// Every connection is in at most one room, and the room it points at
// contains it.
func TestRoomTable_MembershipIsExclusive(t *testing.T) {
	log := &wireLog{}
	table := newTestTable()
	rng := rand.New(rand.NewSource(42))
	roomIDs := []string{"lobby", "games", "music", "random"}

	conns := make([]*Connection, 8)
	for i := range conns {
		conns[i], _ = newBareConn(log, string(rune('a'+i)), string(rune('a'+i)))
	}

	for step := 0; step < 500; step++ {
		conn := conns[rng.Intn(len(conns))]
		if rng.Intn(5) == 0 {
			table.Leave(conn)
		} else {
			_, _ = table.ChangeRoom(conn, roomIDs[rng.Intn(len(roomIDs))])
		}
		log.reset()

		for _, c := range conns {
			memberOf := 0
			for _, info := range table.List() {
				room, _ := table.Get(info.ID)
				for _, m := range room.Members() {
					if m == c {
						memberOf++
						assert.Equal(t, info.ID, c.RoomID())
					}
				}
			}
			if c.RoomID() == "" {
				require.Equal(t, 0, memberOf, "step %d: unjoined connection %s is a member", step, c.ID())
			} else {
				require.Equal(t, 1, memberOf, "step %d: connection %s in %d rooms", step, c.ID(), memberOf)
			}
		}
		for _, info := range table.List() {
			require.Greater(t, info.Members, 0, "step %d: empty room %s kept", step, info.ID)
		}
	}
}
