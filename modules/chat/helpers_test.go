package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	domain "github.com/example/social-chat/domain/chat"
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

var testNow = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

type delivery struct {
	connID string
	env    Envelope
}

// wireLog records every frame written to any fake transport, in order.
type wireLog struct {
	mu      sync.Mutex
	entries []delivery
}

func (l *wireLog) record(connID string, frame []byte) error {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, delivery{connID: connID, env: env})
	return nil
}

func (l *wireLog) all() []delivery {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]delivery, len(l.entries))
	copy(result, l.entries)
	return result
}

func (l *wireLog) forConn(connID string) []Envelope {
	var result []Envelope
	for _, d := range l.all() {
		if d.connID == connID {
			result = append(result, d.env)
		}
	}
	return result
}

func (l *wireLog) kinds(connID string) []Kind {
	var result []Kind
	for _, env := range l.forConn(connID) {
		result = append(result, env.Type)
	}
	return result
}

func (l *wireLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

type fakeTransport struct {
	log    *wireLog
	connID string
	mu     sync.Mutex
	fail   bool
	closed bool
}

func (f *fakeTransport) Write(frame []byte) error {
	f.mu.Lock()
	failing := f.fail || f.closed
	f.mu.Unlock()
	if failing {
		return errors.New("transport not writable")
	}
	return f.log.record(f.connID, frame)
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) setFailing(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

type testEnv struct {
	hub        *Hub
	log        *wireLog
	notified   *recordingNotifier
	transports map[string]*fakeTransport
	nextID     int
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

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		log:        &wireLog{},
		notified:   &recordingNotifier{},
		transports: make(map[string]*fakeTransport),
	}
	env.hub = NewHub(&mockLogger{},
		WithClock(func() time.Time { return testNow }),
		WithNotifier(env.notified),
		WithIDGenerator(func() string {
			env.nextID++
			return fmt.Sprintf("id-%d", env.nextID)
		}),
	)
	return env
}

// connect opens a connection and drops its "connected" frame from the log.
func (e *testEnv) connect(t *testing.T) *Connection {
	t.Helper()
	tr := &fakeTransport{log: e.log}
	tr.connID = fmt.Sprintf("pending-%d", len(e.transports))
	conn := e.hub.Connect(tr)
	tr.connID = conn.ID()
	e.transports[conn.ID()] = tr
	return conn
}

// identified opens a connection and sends identity-hello for userID.
func (e *testEnv) identified(t *testing.T, userID string) *Connection {
	t.Helper()
	conn := e.connect(t)
	e.send(t, conn, KindIdentityHello, map[string]any{"identity": map[string]string{"id": userID}})
	return conn
}

func (e *testEnv) send(t *testing.T, conn *Connection, kind Kind, payload any) {
	t.Helper()
	frame, err := Encode(kind, payload)
	require.NoError(t, err)
	e.hub.Handle(context.Background(), conn, frame)
}

func (e *testEnv) join(t *testing.T, conn *Connection, roomID string) {
	t.Helper()
	e.send(t, conn, KindRoomChange, map[string]any{"room": map[string]string{"id": roomID}})
}

func decode[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Payload, &v))
	return v
}

// newBareConn returns a connection outside of any hub, writing to log.
func newBareConn(log *wireLog, id, userID string) (*Connection, *fakeTransport) {
	tr := &fakeTransport{log: log, connID: id}
	conn := NewConnection(id, tr, &mockLogger{})
	if userID != "" {
		conn.SetIdentity(identityOf(userID))
	}
	return conn, tr
}

func identityOf(userID string) domain.Identity {
	return domain.Identity{ID: userID, Name: userID}
}
