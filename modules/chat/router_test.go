package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_HandleRejectsOutboundKind(t *testing.T) {
	r := NewRouter(&mockLogger{})
	assert.Panics(t, func() {
		r.Handle(KindChatBroadcast, func(context.Context, *Connection, json.RawMessage) error { return nil })
	})
}

func TestRouter_HandleRejectsDuplicate(t *testing.T) {
	r := NewRouter(&mockLogger{})
	h := func(context.Context, *Connection, json.RawMessage) error { return nil }
	r.Handle(KindChatSend, h)
	assert.True(t, r.Handles(KindChatSend))
	assert.Panics(t, func() { r.Handle(KindChatSend, h) })
}

func TestRouter_UnsupportedKind(t *testing.T) {
	log := &wireLog{}
	r := NewRouter(&mockLogger{})
	conn, _ := newBareConn(log, "a", "alice")

	r.Dispatch(context.Background(), conn, []byte(`{"type":"invitation-send","payload":{}}`))

	frames := log.forConn("a")
	require.Len(t, frames, 1)
	reply := decode[ErrorPayload](t, frames[0])
	assert.Equal(t, CodeValidationFailed, reply.Code)
	assert.Equal(t, KindInvitationSend, reply.RequestType)
}

func TestRouter_UnknownTypeIsDropped(t *testing.T) {
	log := &wireLog{}
	r := NewRouter(&mockLogger{})
	conn, _ := newBareConn(log, "a", "alice")

	// not a client kind at all, so it is treated as malformed input
	r.Dispatch(context.Background(), conn, []byte(`{"type":"foo","payload":{}}`))
	r.Dispatch(context.Background(), conn, []byte(`{"type":"chat-broadcast","payload":{}}`))
	assert.Empty(t, log.forConn("a"))

	// a client kind nobody handles gets a reply
	r.Dispatch(context.Background(), conn, []byte(`{"type":"typing-start","payload":{}}`))
	assert.Equal(t, []Kind{KindError}, log.kinds("a"))
}

func TestRouter_ErrorReplies(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
		wantText string
	}{
		{name: "typed", err: NewError(CodeConflict, "taken"), wantCode: CodeConflict, wantText: "taken"},
		{name: "wrapped typed", err: errors.Join(NewError(CodeUnknownUser, "who")), wantCode: CodeUnknownUser, wantText: "who"},
		{name: "untyped", err: errors.New("disk on fire"), wantCode: CodeInternal, wantText: "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &wireLog{}
			r := NewRouter(&mockLogger{})
			r.Handle(KindInvitationSend, func(context.Context, *Connection, json.RawMessage) error { return tt.err })
			conn, _ := newBareConn(log, "a", "alice")

			r.Dispatch(context.Background(), conn, []byte(`{"type":"invitation-send"}`))

			frames := log.forConn("a")
			require.Len(t, frames, 1)
			reply := decode[ErrorPayload](t, frames[0])
			assert.Equal(t, tt.wantCode, reply.Code)
			assert.Equal(t, tt.wantText, reply.Error)
		})
	}
}

func TestRouter_CustomErrorReply(t *testing.T) {
	log := &wireLog{}
	r := NewRouter(&mockLogger{})
	var gotKind Kind
	var gotErr *Error
	r.Handle(KindIdentityUpdateRequest,
		func(context.Context, *Connection, json.RawMessage) error { return NewError(CodeConflict, "taken") },
		WithErrorReply(func(_ *Connection, kind Kind, err *Error) {
			gotKind = kind
			gotErr = err
		}),
	)
	conn, _ := newBareConn(log, "a", "alice")

	r.Dispatch(context.Background(), conn, []byte(`{"type":"identity-update-request","payload":{}}`))

	assert.Empty(t, log.all())
	assert.Equal(t, KindIdentityUpdateRequest, gotKind)
	require.NotNil(t, gotErr)
	assert.Equal(t, CodeConflict, gotErr.Code)
}

func TestRouter_MalformedPayloadIsSilent(t *testing.T) {
	log := &wireLog{}
	r := NewRouter(&mockLogger{})
	r.Handle(KindChatSend, func(_ context.Context, _ *Connection, payload json.RawMessage) error {
		var req ChatSendPayload
		return DecodePayload(payload, &req)
	})
	conn, _ := newBareConn(log, "a", "alice")

	r.Dispatch(context.Background(), conn, []byte(`{"type":"chat-send","payload":42}`))

	assert.Empty(t, log.all())
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	env := newTestEnv(t)
	env.hub.Router().Handle(KindInvitationSend, func(context.Context, *Connection, json.RawMessage) error {
		panic("boom")
	})
	a := env.identified(t, "alice")
	env.join(t, a, "lobby")

	assert.NotPanics(t, func() {
		env.send(t, a, KindInvitationSend, InvitationSendPayload{ToUserID: "bob"})
	})

	env.log.reset()
	env.send(t, a, KindChatSend, ChatSendPayload{MessageID: "m", Body: "still alive"})
	assert.Equal(t, []Kind{KindChatBroadcast}, env.log.kinds(a.ID()))
}

func TestRouter_DecodePayloadEmpty(t *testing.T) {
	var req RoomChangePayload
	require.NoError(t, DecodePayload(nil, &req))
	assert.Equal(t, "", req.Room.ID)

	err := DecodePayload(json.RawMessage(`"x"`), &req)
	assert.True(t, IsCode(err, CodeMalformedMessage))
}
