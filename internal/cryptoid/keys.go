// Package cryptoid implements the cryptographic identity primitives:
// dual keypairs, UID derivation, shared-secret derivation, AEAD
// payload encryption, and contact-token signing/verification.
package cryptoid

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/curve25519"

	"pure2p/internal/model"
)

// KeyPair is an Edwards-curve signing keypair (64-byte detached
// signatures) paired with a Montgomery-curve key-exchange keypair
// (scalar-clamped, public key derived by base-point scalar mult).
// Generated once from crypto/rand; an Identity never regenerates these.
type KeyPair struct {
	SigningPublicKey ed25519.PublicKey
	SigningSecretKey ed25519.PrivateKey
	KxPublicKey      [32]byte
	KxSecretKey      [32]byte
}

// GenerateKeyPair draws both keypairs from a cryptographically secure
// RNG, one draw each for the signing keypair and the key-exchange
// keypair.
func GenerateKeyPair() (*KeyPair, error) {
	signPub, signSec, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, model.NewError(model.KindCrypto, "generating signing keypair", err)
	}

	var kxSec [32]byte
	if _, err := rand.Read(kxSec[:]); err != nil {
		return nil, model.NewError(model.KindCrypto, "generating key-exchange secret", err)
	}
	clampScalar(&kxSec)

	var kxPub [32]byte
	curve25519.ScalarBaseMult(&kxPub, &kxSec)

	return &KeyPair{
		SigningPublicKey: signPub,
		SigningSecretKey: signSec,
		KxPublicKey:      kxPub,
		KxSecretKey:      kxSec,
	}, nil
}

// clampScalar applies the standard Curve25519 clamp so the scalar is a
// valid Diffie-Hellman private exponent.
func clampScalar(s *[32]byte) {
	s[0] &= 248
	s[31] &= 127
	s[31] |= 64
}

// DeriveUID computes uid = hex(sha256(signing_pub)[0..16]).
// Deterministic and stable: the same signing public key always yields
// the same UID.
func DeriveUID(signingPublicKey []byte) string {
	sum := sha256.Sum256(signingPublicKey)
	return hex.EncodeToString(sum[:16])
}

// ToIdentity packages a freshly generated keypair into the persisted
// Identity row shape.
func (k *KeyPair) ToIdentity() *model.Identity {
	return &model.Identity{
		UID:              DeriveUID(k.SigningPublicKey),
		SigningPublicKey: append([]byte{}, k.SigningPublicKey...),
		SigningSecretKey: append([]byte{}, k.SigningSecretKey...),
		KxPublicKey:      append([]byte{}, k.KxPublicKey[:]...),
		KxSecretKey:      append([]byte{}, k.KxSecretKey[:]...),
	}
}

// KeyPairFromIdentity reconstructs a usable KeyPair from a persisted
// Identity row, the inverse of ToIdentity.
func KeyPairFromIdentity(id *model.Identity) (*KeyPair, error) {
	if len(id.SigningSecretKey) != ed25519.PrivateKeySize {
		return nil, model.NewError(model.KindCrypto, "malformed signing secret key", fmt.Errorf("got %d bytes", len(id.SigningSecretKey)))
	}
	if len(id.KxSecretKey) != 32 {
		return nil, model.NewError(model.KindCrypto, "malformed key-exchange secret key", fmt.Errorf("got %d bytes", len(id.KxSecretKey)))
	}

	kp := &KeyPair{
		SigningPublicKey: ed25519.PublicKey(id.SigningPublicKey),
		SigningSecretKey: ed25519.PrivateKey(id.SigningSecretKey),
	}
	copy(kp.KxSecretKey[:], id.KxSecretKey)
	copy(kp.KxPublicKey[:], id.KxPublicKey)
	return kp, nil
}
