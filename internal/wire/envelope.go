// Package wire defines the peer protocol's wire types and their
// CBOR/JSON codecs.
package wire

import (
	"github.com/google/uuid"

	"pure2p/internal/model"
)

// EnvelopeVersion is fixed at 1; a receiver that sees anything else
// hard-rejects rather than attempting to interpret it.
const EnvelopeVersion = 1

// MessageEnvelope is the legacy /output wire shape.
type MessageEnvelope struct {
	Version         int               `cbor:"version" json:"version"`
	ID              string            `cbor:"id" json:"id"`
	FromUID         string            `cbor:"from_uid" json:"from_uid"`
	ToUID           string            `cbor:"to_uid" json:"to_uid"`
	TimestampMillis int64             `cbor:"timestamp_ms" json:"timestamp_ms"`
	MessageType     model.MessageType `cbor:"message_type" json:"message_type"`
	Encrypted       bool              `cbor:"encrypted" json:"encrypted"`
	Payload         []byte            `cbor:"payload" json:"payload"`
}

// NewEnvelope stamps a fresh UUIDv4 id and the current version onto a
// MessageEnvelope.
func NewEnvelope(fromUID, toUID string, msgType model.MessageType, encrypted bool, payload []byte) MessageEnvelope {
	return MessageEnvelope{
		Version:         EnvelopeVersion,
		ID:              uuid.NewString(),
		FromUID:         fromUID,
		ToUID:           toUID,
		TimestampMillis: model.NowMillis(),
		MessageType:     msgType,
		Encrypted:       encrypted,
		Payload:         payload,
	}
}

// MessageRequest is the /message wire shape.
type MessageRequest struct {
	FromUID     string            `cbor:"from_uid" json:"from_uid"`
	MessageType model.MessageType `cbor:"message_type" json:"message_type"`
	Payload     []byte            `cbor:"payload" json:"payload"`
}

// PingRequest is the /ping wire shape: a base64url(CBOR) encoded
// SignedContactToken, carried as an opaque string so the transport
// layer never needs to know about cryptoid.
type PingRequest struct {
	ContactToken string `cbor:"contact_token" json:"contact_token"`
}

// PingResponse is the /ping response shape.
type PingResponse struct {
	UID    string `cbor:"uid" json:"uid"`
	Status string `cbor:"status" json:"status"`
}

const PingStatusOK = "ok"
