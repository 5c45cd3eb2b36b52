package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-monolith/mono/pkg/types"
)

// HandlerFunc handles one decoded inbound message. A returned error is
// reported to conn only.
type HandlerFunc func(ctx context.Context, conn *Connection, payload json.RawMessage) error

// ErrorReplyFunc turns a failed request into the reply sent to the requester.
type ErrorReplyFunc func(conn *Connection, kind Kind, err *Error)

type route struct {
	handle  HandlerFunc
	onError ErrorReplyFunc
}

// RouteOption configures a route.
type RouteOption func(*route)

// WithErrorReply replaces the generic error reply of a route.
func WithErrorReply(fn ErrorReplyFunc) RouteOption {
	return func(r *route) {
		r.onError = fn
	}
}

// Router dispatches inbound frames to the handler registered for their
// kind. Handlers run one at a time, so a handler observes and mutates rooms
// and the registry without interleaving with any other handler.
type Router struct {
	mu     sync.Mutex
	routes map[Kind]route
	logger types.Logger
}

// NewRouter creates a router without routes.
func NewRouter(logger types.Logger) *Router {
	return &Router{
		routes: make(map[Kind]route),
		logger: logger,
	}
}

// Handle registers h for kind. Only inbound kinds can be routed and each
// kind has exactly one handler.
func (r *Router) Handle(kind Kind, h HandlerFunc, opts ...RouteOption) {
	if !kind.Inbound() {
		panic(fmt.Sprintf("chat: %q is not an inbound message type", kind))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.routes[kind]; exists {
		panic(fmt.Sprintf("chat: handler for %q already registered", kind))
	}
	rt := route{handle: h, onError: sendErrorReply}
	for _, opt := range opts {
		opt(&rt)
	}
	r.routes[kind] = rt
}

// Handles reports whether kind has a handler.
func (r *Router) Handles(kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.routes[kind]
	return ok
}

// Dispatch decodes frame and runs the matching handler. Undecodable frames
// are logged and dropped; the connection stays open.
func (r *Router) Dispatch(ctx context.Context, conn *Connection, frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		r.logger.Warn("Dropped malformed message", "connectionID", conn.ID(), "error", err)
		return
	}
	if !env.Type.Inbound() {
		r.logger.Warn("Dropped message of unknown type", "connectionID", conn.ID(), "type", env.Type)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.routes[env.Type]
	if !ok {
		sendErrorReply(conn, env.Type, NewError(CodeValidationFailed, "unsupported message type"))
		return
	}
	r.run(ctx, conn, env, rt)
}

// Exclusive runs fn while no handler is running.
func (r *Router) Exclusive(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

func (r *Router) run(ctx context.Context, conn *Connection, env Envelope, rt route) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Recovered from handler panic",
				"connectionID", conn.ID(), "type", env.Type, "panic", rec)
		}
	}()

	err := rt.handle(ctx, conn, env.Payload)
	if err == nil {
		return
	}
	reqErr := AsError(err)
	if reqErr.Code == CodeMalformedMessage {
		r.logger.Warn("Dropped malformed payload", "connectionID", conn.ID(), "type", env.Type, "error", err)
		return
	}
	if reqErr.Code == CodeInternal {
		r.logger.Error("Handler failed", "connectionID", conn.ID(), "type", env.Type, "error", err)
	}
	rt.onError(conn, env.Type, reqErr)
}

func sendErrorReply(conn *Connection, kind Kind, err *Error) {
	conn.Send(KindError, ErrorPayload{
		Code:        err.Code,
		Error:       err.Reason,
		RequestType: kind,
	})
}

// DecodePayload unmarshals a handler payload. Failures are classified as
// CodeMalformedMessage.
func DecodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return WrapError(CodeMalformedMessage, "invalid payload", err)
	}
	return nil
}

// RequireIdentity returns the claimed identity of conn or a validation failure.
func RequireIdentity(conn *Connection) error {
	if conn.IdentityID() == "" {
		return WrapError(CodeValidationFailed, ErrNotIdentified.Error(), ErrNotIdentified)
	}
	return nil
}

// IsCode reports whether err is a request failure with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
