package chat

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failed request. The set is closed.
type ErrorCode string

const (
	CodeMalformedMessage  ErrorCode = "MalformedMessage"
	CodeUnknownRoom       ErrorCode = "UnknownRoom"
	CodeUnknownUser       ErrorCode = "UnknownUser"
	CodeUnknownInvitation ErrorCode = "UnknownInvitation"
	CodeValidationFailed  ErrorCode = "ValidationFailed"
	CodeConflict          ErrorCode = "Conflict"
	CodeAlreadyTerminal   ErrorCode = "AlreadyTerminal"
	CodeRateLimited       ErrorCode = "RateLimited"
	CodeInternal          ErrorCode = "Internal"
)

// Error is a request failure that is reported back to the requesting
// connection only. It never closes the connection.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a request failure with the given code and reason.
func NewError(code ErrorCode, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}

// WrapError creates a request failure that keeps err in its chain.
func WrapError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// AsError classifies err. Errors that are not request failures become
// CodeInternal with a generic reason so internals do not leak to clients.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeInternal, Reason: "internal error", Err: err}
}

// Validation errors
var (
	ErrNotIdentified   = errors.New("connection has not identified itself")
	ErrIdentityEmpty   = errors.New("identity id cannot be empty")
	ErrRoomIDEmpty     = errors.New("room id cannot be empty")
	ErrRoomIDTooLong   = errors.New("room id exceeds maximum length")
	ErrRoomNameTooLong = errors.New("room name exceeds maximum length")
	ErrRoomInvalid     = errors.New("room id contains invalid characters")
	ErrMessageEmpty    = errors.New("message body cannot be empty")
	ErrMessageTooLong  = errors.New("message exceeds maximum length")
	ErrMessageInvalid  = errors.New("message contains invalid characters")
	ErrNotInRoom       = errors.New("connection is not in a room")
	ErrAlreadyInRoom   = errors.New("connection is already in this room")
	ErrRoomExists      = errors.New("room already exists")
	ErrRoomNotFound    = errors.New("room not found")
)
