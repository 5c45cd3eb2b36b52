package social

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	chatdomain "github.com/example/social-chat/domain/chat"
	"github.com/example/social-chat/modules/chat"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

// setupTestRepo creates a migrated repository over in-memory SQLite.
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := OpenDatabase(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := NewRepository(db)
	require.NoError(t, repo.Migrate())
	return repo
}

// recorder is a transport that keeps every frame it was asked to write.
type recorder struct {
	mu     sync.Mutex
	frames []chat.Envelope
}

func (r *recorder) Write(frame []byte) error {
	var env chat.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, env)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) take() []chat.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	frames := r.frames
	r.frames = nil
	return frames
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []any
}

func (n *recordingNotifier) Notify(_ context.Context, event any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) all() []any {
	n.mu.Lock()
	defer n.mu.Unlock()
	result := make([]any, len(n.events))
	copy(result, n.events)
	return result
}

type client struct {
	conn *chat.Connection
	wire *recorder
}

type testEnv struct {
	hub       *chat.Hub
	repo      *Repository
	notified  *recordingNotifier
	hubEvents *recordingNotifier
	nextID    int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:     setupTestRepo(t),
		notified:  &recordingNotifier{},
		hubEvents: &recordingNotifier{},
	}
	env.hub = chat.NewHub(&mockLogger{},
		chat.WithClock(func() time.Time { return testNow }),
		chat.WithNotifier(env.hubEvents),
		chat.WithIDGenerator(func() string {
			env.nextID++
			return fmt.Sprintf("id-%d", env.nextID)
		}),
	)
	NewService(env.hub, env.repo, env.notified, &mockLogger{}).Register()
	return env
}

// online connects a client, identifies it as userID and discards the
// frames produced so far.
func (e *testEnv) online(t *testing.T, userID string) *client {
	t.Helper()
	c := &client{wire: &recorder{}}
	c.conn = e.hub.Connect(c.wire)
	e.send(t, c, chat.KindIdentityHello, chat.IdentityHelloPayload{Identity: identityOf(userID)})
	c.wire.take()
	return c
}

// known makes userID resolvable through the directory and leaves it offline.
func (e *testEnv) known(t *testing.T, userID string) {
	t.Helper()
	c := e.online(t, userID)
	e.hub.Disconnect(context.Background(), c.conn)
}

func (e *testEnv) send(t *testing.T, c *client, kind chat.Kind, payload any) {
	t.Helper()
	frame, err := chat.Encode(kind, payload)
	require.NoError(t, err)
	e.hub.Handle(context.Background(), c.conn, frame)
}

// invite sends an invitation and returns the acknowledged record.
func (e *testEnv) invite(t *testing.T, from *client, to string) chat.InvitationSentAckPayload {
	t.Helper()
	e.send(t, from, chat.KindInvitationSend, chat.InvitationSendPayload{ToUserID: to, Message: "hey"})
	frames := from.wire.take()
	require.Len(t, frames, 1)
	require.Equal(t, chat.KindInvitationSentAck, frames[0].Type)
	return decode[chat.InvitationSentAckPayload](t, frames[0])
}

func decode[T any](t *testing.T, env chat.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Payload, &v))
	return v
}

func kinds(frames []chat.Envelope) []chat.Kind {
	result := make([]chat.Kind, 0, len(frames))
	for _, f := range frames {
		result = append(result, f.Type)
	}
	return result
}

func identityOf(userID string) chatdomain.Identity {
	return chatdomain.Identity{ID: userID, Name: userID}
}
