package model

import "errors"

// Sentinel errors callers match with errors.Is across package boundaries.
var (
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrContactNotFound    = errors.New("contact not found")
	ErrChatNotFound       = errors.New("chat not found")
	ErrTokenExpired       = errors.New("contact token expired")
	ErrSelfImport         = errors.New("cannot import own contact token")
	ErrUnknownPeer        = errors.New("message from unknown peer")
	ErrMaxRetriesExceeded = errors.New("queue entry exceeded max retries")
	ErrInvalidSetting     = errors.New("setting value out of range")
)

// Kind identifies which taxonomy bucket an error belongs to. It is
// carried on the wrapper types below so handlers can decide how to
// respond (400 vs swallow-and-log vs surface to the user) without
// re-deriving the bucket from the underlying cause.
type Kind string

const (
	KindCrypto       Kind = "crypto"
	KindCodec        Kind = "codec"
	KindTransport    Kind = "transport"
	KindStorage      Kind = "storage"
	KindQueue        Kind = "queue"
	KindConnectivity Kind = "connectivity"
	KindValidation   Kind = "validation"
)

// Error wraps a cause with the taxonomy Kind and a short user-facing
// Reason. Reason is the one-line string surfaced to a caller; Err is
// what gets logged and what errors.Is/As unwrap into.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}
