package cryptoid

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/fxamacker/cbor/v2"

	"pure2p/internal/model"
)

// ContactTokenPayload is the signed content of a contact token:
// address and both public keys of the peer issuing the token.
type ContactTokenPayload struct {
	IP               string `cbor:"ip"`
	SigningPublicKey []byte `cbor:"pubkey"`
	KxPublicKey      []byte `cbor:"x25519_pubkey"`
	ExpiryMillis     int64  `cbor:"expiry"`
}

// SignedContactToken is {payload, signature}, signature = Sign(signing
// secret key, CBOR(payload)). This is the one artifact ever exchanged
// out of band between peers.
type SignedContactToken struct {
	Payload   ContactTokenPayload `cbor:"payload"`
	Signature []byte              `cbor:"signature"`
}

// IssueToken signs a fresh ContactTokenPayload under kp's signing
// secret key and base64url-encodes the CBOR of {payload, signature}
// into a single transportable string: encode the payload, sign it,
// then wrap both in an outer encoding.
func IssueToken(kp *KeyPair, ip string, validFor int64) (string, error) {
	payload := ContactTokenPayload{
		IP:               ip,
		SigningPublicKey: append([]byte{}, kp.SigningPublicKey...),
		KxPublicKey:      append([]byte{}, kp.KxPublicKey[:]...),
		ExpiryMillis:     model.NowMillis() + validFor,
	}

	payloadBytes, err := cbor.Marshal(payload)
	if err != nil {
		return "", model.NewError(model.KindCodec, "encoding contact token payload", err)
	}

	signature := ed25519.Sign(kp.SigningSecretKey, payloadBytes)

	token := SignedContactToken{Payload: payload, Signature: signature}
	encoded, err := cbor.Marshal(token)
	if err != nil {
		return "", model.NewError(model.KindCodec, "encoding signed contact token", err)
	}

	return base64.URLEncoding.EncodeToString(encoded), nil
}

// ParseAndVerifyToken decodes a base64url(CBOR({payload, signature}))
// token and verifies the signature against the payload's own signing
// public key. Bad base64 and bad CBOR are reported as a codec error
// ("decoding contact token"); wrong signature length, wrong public key
// length, and signature mismatch all collapse to the same opaque crypto
// error ("invalid contact token"), which does not say which check failed.
func ParseAndVerifyToken(encoded string) (*SignedContactToken, error) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, model.NewError(model.KindCodec, "decoding contact token", err)
	}

	var token SignedContactToken
	if err := cbor.Unmarshal(raw, &token); err != nil {
		return nil, model.NewError(model.KindCodec, "decoding contact token", err)
	}

	if len(token.Signature) != ed25519.SignatureSize {
		return nil, model.NewError(model.KindCrypto, "invalid contact token", nil)
	}
	if len(token.Payload.SigningPublicKey) != ed25519.PublicKeySize {
		return nil, model.NewError(model.KindCrypto, "invalid contact token", nil)
	}

	payloadBytes, err := cbor.Marshal(token.Payload)
	if err != nil {
		return nil, model.NewError(model.KindCodec, "re-encoding contact token payload", err)
	}

	if !ed25519.Verify(ed25519.PublicKey(token.Payload.SigningPublicKey), payloadBytes, token.Signature) {
		return nil, model.NewError(model.KindCrypto, "invalid contact token", nil)
	}

	return &token, nil
}

// CheckExpiry rejects a token whose expiry is at or before nowMillis;
// a token that expires at exactly now is treated as already expired.
func CheckExpiry(token *SignedContactToken, nowMillis int64) error {
	if token.Payload.ExpiryMillis <= nowMillis {
		return model.ErrTokenExpired
	}
	return nil
}

// CheckSelfImport rejects a token whose signing key hashes to our own
// UID.
func CheckSelfImport(token *SignedContactToken, ourUID string) error {
	if DeriveUID(token.Payload.SigningPublicKey) == ourUID {
		return model.ErrSelfImport
	}
	return nil
}
