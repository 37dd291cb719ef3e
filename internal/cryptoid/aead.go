package cryptoid

import (
	"crypto/rand"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/chacha20poly1305"

	"pure2p/internal/model"
)

// aeadEnvelope is the wire shape of an encrypted payload: {nonce: 24
// bytes, ciphertext: bytes (includes the 16-byte Poly1305 tag)},
// CBOR-encoded. It never appears in exported APIs; callers only see
// plaintext in and opaque bytes out.
type aeadEnvelope struct {
	Nonce      []byte `cbor:"nonce"`
	Ciphertext []byte `cbor:"ciphertext"`
}

// Encrypt seals plaintext under the shared secret k with a fresh random
// 192-bit nonce and returns the CBOR-encoded envelope bytes that go on
// the wire as the encrypted payload.
func Encrypt(k [32]byte, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(k[:])
	if err != nil {
		return nil, model.NewError(model.KindCrypto, "constructing AEAD cipher", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, model.NewError(model.KindCrypto, "generating AEAD nonce", err)
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	encoded, err := cbor.Marshal(aeadEnvelope{Nonce: nonce, Ciphertext: ciphertext})
	if err != nil {
		return nil, model.NewError(model.KindCodec, "encoding AEAD envelope", err)
	}
	return encoded, nil
}

// Decrypt reverses Encrypt. Any failure (malformed envelope, wrong
// key, tampered nonce or ciphertext) collapses to a single opaque
// error; it never reveals which byte was wrong or why.
func Decrypt(k [32]byte, envelopeBytes []byte) ([]byte, error) {
	var env aeadEnvelope
	if err := cbor.Unmarshal(envelopeBytes, &env); err != nil {
		return nil, model.NewError(model.KindCrypto, "decryption failed", nil)
	}
	if len(env.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, model.NewError(model.KindCrypto, "decryption failed", nil)
	}

	aead, err := chacha20poly1305.NewX(k[:])
	if err != nil {
		return nil, model.NewError(model.KindCrypto, "decryption failed", nil)
	}

	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, model.NewError(model.KindCrypto, "decryption failed", nil)
	}
	return plaintext, nil
}
